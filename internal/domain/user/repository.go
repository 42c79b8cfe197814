package user

import (
	"context"
)

// Repository defines the operations for retrieving users and their settings.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	// ListWithNotificationChannels returns active users with a phone number,
	// a Telegram chat or email notifications enabled.
	ListWithNotificationChannels(ctx context.Context) ([]*User, error)
	ListSubscribedToNewCommitments(ctx context.Context) ([]*User, error)
}
