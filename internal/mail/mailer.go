package mail

import (
	"go.uber.org/zap"
	gomail "gopkg.in/gomail.v2"

	"github.com/spec-kit/issue-tracker/internal/config"
)

// Mailer delivers plain-text email. Delivery is best-effort; callers log and
// continue on error.
type Mailer interface {
	Send(to, subject, body string) error
}

type smtpMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewMailer builds an SMTP mailer, or a logging no-op when no host is
// configured so local development needs no mail server.
func NewMailer(cfg config.SMTPConfig, logger *zap.Logger) Mailer {
	if cfg.Host == "" {
		logger.Warn("SMTP_HOST not provided; email delivery disabled")
		return &noopMailer{logger: logger}
	}
	return &smtpMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (m *smtpMailer) Send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	return m.dialer.DialAndSend(msg)
}

type noopMailer struct {
	logger *zap.Logger
}

func (m *noopMailer) Send(to, subject, _ string) error {
	m.logger.Info("email suppressed",
		zap.String("to", to),
		zap.String("subject", subject))
	return nil
}
