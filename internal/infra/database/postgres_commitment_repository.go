// internal/infra/database/postgres_commitment_repository.go
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"commitment_notifier/internal/domain/commitment"

	"github.com/lib/pq" // For pq.Array
)

// Custom errors specific to commitment repository
var ErrCommitmentNotFound = errors.New("commitment not found")

const commitmentColumns = `id, company_id, concept, beneficiary, amount, due_date, status, periodicity,
               priority, category, observations, recurring_group, instance_number, total_instances,
               orphaned, created_at, updated_at`

type PostgresCommitmentRepository struct {
	db *sql.DB
}

func NewPostgresCommitmentRepository(db *sql.DB) *PostgresCommitmentRepository {
	return &PostgresCommitmentRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCommitment(row rowScanner) (*commitment.Commitment, error) {
	c := &commitment.Commitment{}
	err := row.Scan(
		&c.ID, &c.CompanyID, &c.Concept, &c.Beneficiary, &c.Amount, &c.DueDate, &c.Status, &c.Periodicity,
		&c.Priority, &c.Category, &c.Observations, &c.RecurringGroup, &c.InstanceNumber, &c.TotalInstances,
		&c.Orphaned, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func scanCommitments(rows *sql.Rows) ([]*commitment.Commitment, error) {
	list := make([]*commitment.Commitment, 0)
	for rows.Next() {
		c, err := scanCommitment(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning commitment row: %w", err)
		}
		list = append(list, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating commitment rows: %w", err)
	}
	return list, nil
}

const insertCommitmentQuery = `INSERT INTO commitments (company_id, concept, beneficiary, amount, due_date, status, periodicity,
               priority, category, observations, recurring_group, instance_number, total_instances)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
               RETURNING id, created_at, updated_at`

func commitmentArgs(c *commitment.Commitment) []any {
	return []any{
		c.CompanyID, c.Concept, c.Beneficiary, c.Amount, c.DueDate, c.Status, c.Periodicity,
		c.Priority, c.Category, c.Observations, c.RecurringGroup, c.InstanceNumber, c.TotalInstances,
	}
}

func (r *PostgresCommitmentRepository) Create(ctx context.Context, c *commitment.Commitment) error {
	err := r.db.QueryRowContext(ctx, insertCommitmentQuery, commitmentArgs(c)...).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error creating commitment: %w", err)
	}
	return nil
}

func (r *PostgresCommitmentRepository) CreateBatch(ctx context.Context, commitments []*commitment.Commitment) error {
	if len(commitments) == 0 {
		return nil
	}

	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for batch create: %w", err)
	}
	defer txn.Rollback() // Rollback if not committed

	stmt, err := txn.PrepareContext(ctx, insertCommitmentQuery)
	if err != nil {
		return fmt.Errorf("failed to prepare statement for batch create: %w", err)
	}
	defer stmt.Close()

	for _, c := range commitments {
		if err := stmt.QueryRowContext(ctx, commitmentArgs(c)...).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return fmt.Errorf("error creating commitment %q (instance %d): %w", c.Concept, c.InstanceNumber, err)
		}
	}

	return txn.Commit()
}

func (r *PostgresCommitmentRepository) GetByID(ctx context.Context, id int64) (*commitment.Commitment, error) {
	query := `SELECT ` + commitmentColumns + ` FROM commitments WHERE id = $1`
	c, err := scanCommitment(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCommitmentNotFound
		}
		return nil, fmt.Errorf("error getting commitment by ID: %w", err)
	}
	return c, nil
}

func (r *PostgresCommitmentRepository) ListAll(ctx context.Context) ([]*commitment.Commitment, error) {
	query := `SELECT ` + commitmentColumns + ` FROM commitments ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying commitments: %w", err)
	}
	defer rows.Close()
	return scanCommitments(rows)
}

func (r *PostgresCommitmentRepository) ListByStatuses(ctx context.Context, statuses []commitment.Status) ([]*commitment.Commitment, error) {
	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}
	query := `SELECT ` + commitmentColumns + `
               FROM commitments
               WHERE status = ANY($1::varchar[]) AND NOT orphaned
               ORDER BY due_date ASC NULLS LAST`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(values))
	if err != nil {
		return nil, fmt.Errorf("error querying commitments by status: %w", err)
	}
	defer rows.Close()
	return scanCommitments(rows)
}

func (r *PostgresCommitmentRepository) ListUnpaidDueBetween(ctx context.Context, from, to time.Time) ([]*commitment.Commitment, error) {
	query := `SELECT ` + commitmentColumns + `
               FROM commitments
               WHERE due_date >= $1 AND due_date < $2 AND status != $3 AND NOT orphaned
               ORDER BY due_date ASC`
	rows, err := r.db.QueryContext(ctx, query, from, to, commitment.StatusPaid)
	if err != nil {
		return nil, fmt.Errorf("error querying unpaid commitments due between %s and %s: %w", from.Format(time.RFC3339), to.Format(time.RFC3339), err)
	}
	defer rows.Close()
	return scanCommitments(rows)
}

func (r *PostgresCommitmentRepository) MarkPaid(ctx context.Context, id int64) error {
	query := `UPDATE commitments SET status = $1, updated_at = NOW() WHERE id = $2`
	res, err := r.db.ExecContext(ctx, query, commitment.StatusPaid, id)
	if err != nil {
		return fmt.Errorf("error marking commitment %d as paid: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading affected rows: %w", err)
	}
	if n == 0 {
		return ErrCommitmentNotFound
	}
	return nil
}

func (r *PostgresCommitmentRepository) MarkOrphaned(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query := `UPDATE commitments SET orphaned = TRUE, updated_at = NOW() WHERE id = ANY($1::bigint[])`
	res, err := r.db.ExecContext(ctx, query, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("error marking commitments as orphaned: %w", err)
	}
	return res.RowsAffected()
}

func (r *PostgresCommitmentRepository) ResetToPending(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query := `UPDATE commitments SET status = $1, updated_at = NOW() WHERE id = ANY($2::bigint[]) AND status = $3`
	res, err := r.db.ExecContext(ctx, query, commitment.StatusPending, pq.Array(ids), commitment.StatusPaid)
	if err != nil {
		return 0, fmt.Errorf("error resetting paid commitments to pending: %w", err)
	}
	return res.RowsAffected()
}
