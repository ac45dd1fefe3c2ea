package provider

import (
	"context"
	"fmt"

	"comms-service/internal/config"

	mail "gopkg.in/gomail.v2"
)

// SMTP is the fallback email transport, used when no Resend key is
// configured. SMTP has no provider message ID, so status webhooks never
// reconcile against records it produces.
type SMTP struct {
	dialer *mail.Dialer
	from   string
}

func NewSMTP(cfg config.SMTPConfig) *SMTP {
	return &SMTP{
		dialer: mail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:   cfg.From,
	}
}

func (s *SMTP) Sender() string {
	return s.from
}

func (s *SMTP) Send(ctx context.Context, destination string, payload Payload) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m := mail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", destination)
	m.SetHeader("Subject", payload.Subject)
	m.SetBody("text/html", payload.Text)

	if err := s.dialer.DialAndSend(m); err != nil {
		return nil, fmt.Errorf("could not send email: %w", err)
	}

	return &Response{Status: "sent"}, nil
}
