package user

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// User is a dashboard user who may subscribe to notifications.
type User struct {
	ID                   int64
	DisplayName          string
	Email                string
	Role                 string
	IsActive             bool
	NotificationSettings NotificationSettings
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// NotificationSettings holds the channels and subscriptions of a user.
// Stored as JSONB in users.notification_settings.
type NotificationSettings struct {
	PhoneNumber         string `json:"phoneNumber,omitempty"`
	TelegramChatID      int64  `json:"telegramChatId,omitempty"`
	EmailEnabled        bool   `json:"emailEnabled"`
	Commitments15Days   bool   `json:"commitments15Days"`
	Commitments7Days    bool   `json:"commitments7Days"`
	Commitments2Days    bool   `json:"commitments2Days"`
	CommitmentsDueToday bool   `json:"commitmentsDueToday"`
	NewCommitments      bool   `json:"newCommitments"`
	AutomaticEvents     bool   `json:"automaticEvents"`
	ContractAlerts      bool   `json:"contractAlerts"`
}

// WantsCommitmentHorizon reports whether the user subscribed to the given
// commitment horizon (15, 7, 2 or 0 days).
func (s NotificationSettings) WantsCommitmentHorizon(days int) bool {
	switch days {
	case 15:
		return s.Commitments15Days
	case 7:
		return s.Commitments7Days
	case 2:
		return s.Commitments2Days
	case 0:
		return s.CommitmentsDueToday
	default:
		return false
	}
}

// HasNotificationChannel reports whether at least one delivery channel is configured.
func (u *User) HasNotificationChannel() bool {
	s := u.NotificationSettings
	return s.PhoneNumber != "" || s.TelegramChatID != 0 || (s.EmailEnabled && u.Email != "")
}

// Value implements driver.Valuer.
func (s NotificationSettings) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan implements sql.Scanner.
func (s *NotificationSettings) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*s = NotificationSettings{}
		return nil
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("cannot scan %T into NotificationSettings", src)
	}
}
