package config

import (
	"fmt"
	"os"
	"strconv"
	"strings" // For LogLevel normalization
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	DatabaseURL        string
	HTTPPort           string
	LogLevel           string
	Environment        string
	Location           *time.Location
	CronSpecDailyCheck string // Business days only
	JWTSecret          string

	// Messaging relay
	TwilioAccountSID       string
	TwilioAuthToken        string
	MessagingServiceSID    string
	WhatsAppBusinessNumber string
	WhatsAppFallbackNumber string
	DefaultPhoneRegion     string
	StatusPollAttempts     int
	StatusPollInterval     time.Duration

	// Telegram (optional)
	TelegramToken   string
	AdminTelegramID int64

	// SMTP (optional)
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SenderEmail  string
}

// TelegramEnabled reports whether a bot token was configured.
func (c *AppConfig) TelegramEnabled() bool { return c.TelegramToken != "" }

// EmailEnabled reports whether an SMTP server was configured.
func (c *AppConfig) EmailEnabled() bool { return c.SMTPHost != "" && c.SenderEmail != "" }

// LoadBase reads the settings shared by every command: database, JWT,
// logging and timezone. Used directly by the maintenance CLI.
func LoadBase() (*AppConfig, error) {
	// Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is not set")
	}

	cfg.HTTPPort = getEnv("HTTP_PORT", "8080")
	cfg.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", "info"))
	cfg.Environment = strings.ToLower(getEnv("ENVIRONMENT", "development"))

	tz := getEnv("TIMEZONE", "America/Bogota")
	cfg.Location, err = time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", tz, err)
	}

	return cfg, nil
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	cfg, err := LoadBase()
	if err != nil {
		return nil, err
	}

	// 9:00 AM Monday to Friday in the configured timezone
	cfg.CronSpecDailyCheck = getEnv("CRON_SPEC_DAILY_CHECK", "0 9 * * 1-5")

	cfg.TwilioAccountSID = os.Getenv("TWILIO_ACCOUNT_SID")
	cfg.TwilioAuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	if cfg.TwilioAccountSID == "" || cfg.TwilioAuthToken == "" {
		return nil, fmt.Errorf("TWILIO_ACCOUNT_SID and TWILIO_AUTH_TOKEN must be set")
	}
	cfg.MessagingServiceSID = os.Getenv("MESSAGING_SERVICE_SID")
	if cfg.MessagingServiceSID == "" {
		return nil, fmt.Errorf("MESSAGING_SERVICE_SID is not set")
	}
	cfg.WhatsAppBusinessNumber = os.Getenv("WHATSAPP_BUSINESS_NUMBER")
	cfg.WhatsAppFallbackNumber = os.Getenv("WHATSAPP_FALLBACK_NUMBER")
	if cfg.WhatsAppFallbackNumber == "" {
		return nil, fmt.Errorf("WHATSAPP_FALLBACK_NUMBER is not set")
	}
	cfg.DefaultPhoneRegion = strings.ToUpper(getEnv("DEFAULT_PHONE_REGION", "CO"))

	cfg.StatusPollAttempts, err = strconv.Atoi(getEnv("STATUS_POLL_ATTEMPTS", "4"))
	if err != nil || cfg.StatusPollAttempts < 0 {
		return nil, fmt.Errorf("invalid STATUS_POLL_ATTEMPTS: %v", err)
	}
	cfg.StatusPollInterval, err = time.ParseDuration(getEnv("STATUS_POLL_INTERVAL", "2500ms"))
	if err != nil {
		return nil, fmt.Errorf("invalid STATUS_POLL_INTERVAL: %w", err)
	}

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if adminIDStr := os.Getenv("ADMIN_TELEGRAM_ID"); adminIDStr != "" {
		cfg.AdminTelegramID, err = strconv.ParseInt(adminIDStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID: %w", err)
		}
	}
	if cfg.TelegramEnabled() && cfg.AdminTelegramID == 0 {
		return nil, fmt.Errorf("ADMIN_TELEGRAM_ID is required when TELEGRAM_TOKEN is set")
	}

	cfg.SMTPHost = os.Getenv("SMTP_HOST")
	cfg.SMTPPort = getEnv("SMTP_PORT", "587")
	cfg.SMTPUsername = os.Getenv("SMTP_USERNAME")
	cfg.SMTPPassword = os.Getenv("SMTP_PASSWORD")
	cfg.SenderEmail = os.Getenv("SENDER_EMAIL")

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultVal
}
