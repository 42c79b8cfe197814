package email

import (
	"context"
	"errors"
	"net/smtp"
	"testing"

	"commitment_notifier/internal/infra/config"
	"commitment_notifier/internal/infra/logger"

	"github.com/jordan-wright/email"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSender(sendErr error) (*Sender, *[]*email.Email) {
	var sent []*email.Email
	s := NewSender(&config.AppConfig{
		SMTPHost:     "smtp.example.com",
		SMTPPort:     "587",
		SMTPUsername: "notifier",
		SMTPPassword: "secret",
		SenderEmail:  "alertas@example.com",
	}, logger.Discard())
	s.send = func(e *email.Email, addr string, auth smtp.Auth) error {
		if addr != "smtp.example.com:587" || auth == nil {
			return errors.New("unexpected smtp settings")
		}
		sent = append(sent, e)
		return sendErr
	}
	return s, &sent
}

func TestSender_Send(t *testing.T) {
	s, sent := newTestSender(nil)

	err := s.Send(context.Background(), "ana@example.com", "Compromiso vencido", "❌ *COMPROMISO VENCIDO*\n\n🏢 Empresa: Acme SAS")
	require.NoError(t, err)
	require.Len(t, *sent, 1)

	e := (*sent)[0]
	assert.Equal(t, "alertas@example.com", e.From)
	assert.Equal(t, []string{"ana@example.com"}, e.To)
	assert.Equal(t, "Compromiso vencido", e.Subject)
	assert.Contains(t, string(e.Text), "❌ COMPROMISO VENCIDO")
	assert.NotContains(t, string(e.Text), "*")
}

func TestSender_SendError(t *testing.T) {
	s, _ := newTestSender(errors.New("connection refused"))
	err := s.Send(context.Background(), "ana@example.com", "x", "y")
	assert.ErrorContains(t, err, "connection refused")
}

func TestSender_CancelledContext(t *testing.T) {
	s, sent := newTestSender(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.Send(ctx, "ana@example.com", "x", "y"), context.Canceled)
	assert.Empty(t, *sent)
}
