package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/commitments?sslmode=disable")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("TWILIO_ACCOUNT_SID", "AC123")
	t.Setenv("TWILIO_AUTH_TOKEN", "token")
	t.Setenv("MESSAGING_SERVICE_SID", "MG123")
	t.Setenv("WHATSAPP_FALLBACK_NUMBER", "+14155238886")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)
	t.Setenv("TIMEZONE", "UTC")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "0 9 * * 1-5", cfg.CronSpecDailyCheck)
	assert.Equal(t, 4, cfg.StatusPollAttempts)
	assert.Equal(t, 2500*time.Millisecond, cfg.StatusPollInterval)
	assert.Equal(t, "CO", cfg.DefaultPhoneRegion)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.False(t, cfg.TelegramEnabled())
	assert.False(t, cfg.EmailEnabled())
}

func TestLoad_MissingRequired(t *testing.T) {
	setRequired(t)
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	assert.ErrorContains(t, err, "DATABASE_URL")
}

func TestLoad_TelegramNeedsAdmin(t *testing.T) {
	setRequired(t)
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("ADMIN_TELEGRAM_ID", "")

	_, err := Load()
	assert.ErrorContains(t, err, "ADMIN_TELEGRAM_ID")

	t.Setenv("ADMIN_TELEGRAM_ID", "not-a-number")
	_, err = Load()
	assert.ErrorContains(t, err, "invalid ADMIN_TELEGRAM_ID")

	t.Setenv("ADMIN_TELEGRAM_ID", "555")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.TelegramEnabled())
	assert.Equal(t, int64(555), cfg.AdminTelegramID)
}

func TestLoad_InvalidPollInterval(t *testing.T) {
	setRequired(t)
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("STATUS_POLL_INTERVAL", "soon")

	_, err := Load()
	assert.ErrorContains(t, err, "STATUS_POLL_INTERVAL")
}

func TestLoadBase_SkipsMessagingSettings(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/commitments?sslmode=disable")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("TWILIO_ACCOUNT_SID", "")
	t.Setenv("TIMEZONE", "America/Bogota")

	cfg, err := LoadBase()
	require.NoError(t, err)
	assert.Equal(t, "America/Bogota", cfg.Location.String())

	_, err = Load()
	assert.ErrorContains(t, err, "TWILIO_ACCOUNT_SID")
}
