// internal/domain/notification/log.go
package notification

import (
	"database/sql"
	"time"
)

// Channel a notification was delivered through.
type Channel string

const (
	ChannelWhatsApp Channel = "whatsapp"
	ChannelTelegram Channel = "telegram"
	ChannelEmail    Channel = "email"
)

// Log records a single delivery attempt with its initial and polled final status.
// Corresponds to the 'notification_logs' table.
type Log struct {
	ID               int64
	Channel          Channel
	Route            string // primary or fallback for WhatsApp, empty otherwise
	Recipient        string
	NotificationType string
	ContentSID       sql.NullString
	MessageSID       sql.NullString
	InitialStatus    string
	FinalStatus      string
	ErrorCode        sql.NullString
	ErrorMessage     sql.NullString
	CreatedAt        time.Time
}
