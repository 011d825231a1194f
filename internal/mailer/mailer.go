// Package mailer delivers outgoing email.
package mailer

import (
	"context"
	"errors"
	"strings"

	"github.com/startup-vidyapith/apiserver/config"
	"github.com/startup-vidyapith/apiserver/internal/logger"
)

// Email is one outgoing message to a single recipient.
type Email struct {
	To      string
	ToName  string
	Subject string
	Text    string
}

func (e Email) validate() error {
	if strings.TrimSpace(e.To) == "" {
		return errors.New("mailer: recipient required")
	}
	if strings.TrimSpace(e.Subject) == "" {
		return errors.New("mailer: subject required")
	}
	if strings.TrimSpace(e.Text) == "" {
		return errors.New("mailer: body required")
	}
	return nil
}

// Mailer sends an Email.
type Mailer interface {
	Send(ctx context.Context, email Email) error
}

// New returns a SendGrid mailer when an API key is configured and a
// LogMailer otherwise.
func New(log *logger.Logger, cfg config.SendGridConfig) Mailer {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return NewLogMailer(log)
	}
	return NewSendGrid(log, cfg)
}

// LogMailer writes each email to the log instead of delivering it.
type LogMailer struct {
	log *logger.Logger
}

func NewLogMailer(log *logger.Logger) *LogMailer {
	return &LogMailer{log: log.With("service", "LogMailer")}
}

func (m *LogMailer) Send(_ context.Context, email Email) error {
	if err := email.validate(); err != nil {
		return err
	}
	m.log.Info("email not delivered, no provider configured",
		"to", email.To,
		"subject", email.Subject,
	)
	return nil
}
