package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Discord публикует сообщение в вебхук Discord (поле формы "content")
type Discord struct {
	client     *resty.Client
	webhookURL string
}

func NewDiscord(webhookURL string, timeout time.Duration) *Discord {
	return &Discord{
		client:     resty.New().SetTimeout(timeout),
		webhookURL: webhookURL,
	}
}

func (d *Discord) Notify(ctx context.Context, msg Message) error {
	res, err := d.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{"content": msg.Content}).
		Post(d.webhookURL)
	if err != nil {
		return fmt.Errorf("discord webhook: %w", err)
	}
	if res.IsError() {
		return fmt.Errorf("discord webhook: http status %d: %s", res.StatusCode(), res.String())
	}
	return nil
}
