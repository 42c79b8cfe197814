// internal/domain/notification/repository.go
package notification

import (
	"context"
	"time"
)

// Repository defines operations for notification logs and dispatch runs.
type Repository interface {
	// Log methods
	CreateLog(ctx context.Context, l *Log) error
	ListLogsByRecipient(ctx context.Context, recipient string, limit int) ([]*Log, error)

	// Run methods
	CreateRun(ctx context.Context, r *Run) error
	FinishRun(ctx context.Context, r *Run) error
	GetRunByDateAndKind(ctx context.Context, runDate time.Time, kind RunKind) (*Run, error)
}
