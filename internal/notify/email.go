package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"

	"castanet-watch/internal/config"
	"castanet-watch/internal/normalize"
)

type Email struct {
	cfg        config.SMTPConfig
	normalizer *normalize.Normalizer
}

func NewEmail(cfg config.SMTPConfig, normalizer *normalize.Normalizer) *Email {
	return &Email{cfg: cfg, normalizer: normalizer}
}

func (e *Email) Notify(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	mail := email.NewEmail()
	mail.From = fmt.Sprintf("castanet-watch <%s>", e.cfg.From)
	mail.To = e.cfg.To
	mail.Subject = "New listing: " + msg.Headline
	mail.Text = []byte(e.body(msg))

	addr := fmt.Sprintf("%s:%d", e.cfg.Server, e.cfg.Port)

	var auth smtp.Auth
	if e.cfg.Username != "" {
		auth = smtp.PlainAuth("", e.cfg.Username, e.cfg.Password, e.cfg.Server)
	}

	err := mail.Send(addr, auth)
	if err != nil && auth != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(addr, nil)
	}
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

func (e *Email) body(msg Message) string {
	var b strings.Builder
	b.WriteString(msg.Content)
	if msg.Description != "" {
		b.WriteString("\n\n")
		b.WriteString(e.normalizer.TruncatePreview(msg.Description))
	}
	b.WriteString("\n\n")
	b.WriteString(msg.Link)
	b.WriteString("\n")
	return b.String()
}
