// internal/domain/commitment/commitment.go
package commitment

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the persisted payment state of a commitment.
type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
	StatusOverdue Status = "overdue"
)

// Periodicity controls how recurring instances are generated.
type Periodicity string

const (
	PeriodicityUnique      Periodicity = "unique"
	PeriodicityMonthly     Periodicity = "monthly"
	PeriodicityBimonthly   Periodicity = "bimonthly"
	PeriodicityQuarterly   Periodicity = "quarterly"
	PeriodicityFourMonthly Periodicity = "fourmonthly"
	PeriodicityBiannual    Periodicity = "biannual"
	PeriodicityAnnual      Periodicity = "annual"
)

// Commitment represents a financial obligation of a company.
// Corresponds to the 'commitments' table.
type Commitment struct {
	ID             int64
	CompanyID      int64
	Concept        string
	Beneficiary    string
	Amount         decimal.Decimal
	DueDate        sql.NullTime // Missing for some imported records
	Status         Status
	Periodicity    Periodicity
	Priority       Priority // Base priority set by the user
	Category       string
	Observations   string
	RecurringGroup sql.NullString
	InstanceNumber int
	TotalInstances int
	Orphaned       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsOpen reports whether the commitment still needs attention.
func (c *Commitment) IsOpen() bool {
	return c.Status == StatusPending || c.Status == StatusOverdue
}

// Payment is a settlement registered against a commitment.
// Corresponds to the 'payments' table.
type Payment struct {
	ID           int64
	CommitmentID int64
	Amount       decimal.Decimal
	Method       string
	Reference    string
	Attachments  []string
	Notes        string
	PaidAt       time.Time
	CreatedAt    time.Time
}
