package notify

import (
	"context"

	"castanet-watch/internal/observability"
)

// LogNotifier пишет сообщение в лог вместо отправки (сухой прогон)
type LogNotifier struct {
	logger *observability.Logger
}

func NewLogNotifier(logger *observability.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, msg Message) error {
	n.logger.Info("New listing", "headline", msg.Headline, "content", msg.Content)
	return nil
}
