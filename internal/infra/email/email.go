package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"commitment_notifier/internal/app"
	"commitment_notifier/internal/infra/config"

	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
)

var _ app.Mailer = (*Sender)(nil)

// Sender handles sending emails via SMTP
type Sender struct {
	from   string
	addr   string
	auth   smtp.Auth
	logger *logrus.Entry
	send   func(e *email.Email, addr string, auth smtp.Auth) error
}

// NewSender creates a new email sender
func NewSender(cfg *config.AppConfig, logger *logrus.Entry) *Sender {
	var auth smtp.Auth
	if cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPHost)
	}
	return &Sender{
		from:   cfg.SenderEmail,
		addr:   fmt.Sprintf("%s:%s", cfg.SMTPHost, cfg.SMTPPort),
		auth:   auth,
		logger: logger,
		send: func(e *email.Email, addr string, auth smtp.Auth) error {
			return e.Send(addr, auth)
		},
	}
}

// Send delivers a plain text message. Markdown emphasis used by the chat
// channels is stripped from subject and body.
func (s *Sender) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e := email.NewEmail()
	e.From = s.from
	e.To = []string{to}
	e.Subject = plainText(subject)
	e.Text = []byte(plainText(body) + "\n\n--\nNotificaciones de compromisos")

	if err := s.send(e, s.addr, s.auth); err != nil {
		s.logger.WithError(err).WithField("to", to).Error("Failed to send email")
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.WithFields(logrus.Fields{"to": to, "subject": e.Subject}).Info("Email sent")
	return nil
}

func plainText(s string) string {
	return strings.ReplaceAll(s, "*", "")
}
