// internal/domain/commitment/repository.go
package commitment

import (
	"context"
	"time"
)

// Repository defines persistence operations for commitments.
type Repository interface {
	Create(ctx context.Context, c *Commitment) error
	CreateBatch(ctx context.Context, commitments []*Commitment) error // Recurring instances in one transaction
	GetByID(ctx context.Context, id int64) (*Commitment, error)
	ListAll(ctx context.Context) ([]*Commitment, error)
	ListByStatuses(ctx context.Context, statuses []Status) ([]*Commitment, error)
	// ListUnpaidDueBetween returns non-paid commitments with from <= due_date < to.
	ListUnpaidDueBetween(ctx context.Context, from, to time.Time) ([]*Commitment, error)
	MarkPaid(ctx context.Context, id int64) error
	MarkOrphaned(ctx context.Context, ids []int64) (int64, error)
	ResetToPending(ctx context.Context, ids []int64) (int64, error) // Maintenance only
}

// PaymentRepository defines persistence operations for payments.
type PaymentRepository interface {
	Create(ctx context.Context, p *Payment) error
	ListByCommitment(ctx context.Context, commitmentID int64) ([]*Payment, error)
	ListAll(ctx context.Context) ([]*Payment, error)
	Delete(ctx context.Context, ids []int64) (int64, error) // Maintenance only
}
