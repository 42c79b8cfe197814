package company

import (
	"context"
	"database/sql"
	"time"
)

// Company owns commitments and may have a contract with an expiration date.
type Company struct {
	ID                 int64
	Name               string
	NIT                string
	ContractExpiration sql.NullTime
	CreatedAt          time.Time
}

// Repository defines the operations for retrieving companies.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Company, error)
	ListAll(ctx context.Context) ([]*Company, error)
	ListWithContracts(ctx context.Context) ([]*Company, error)
}
