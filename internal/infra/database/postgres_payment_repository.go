package database

import (
	"context"
	"database/sql"
	"fmt"

	"commitment_notifier/internal/domain/commitment"

	"github.com/lib/pq"
)

type PostgresPaymentRepository struct {
	db *sql.DB
}

func NewPostgresPaymentRepository(db *sql.DB) *PostgresPaymentRepository {
	return &PostgresPaymentRepository{db: db}
}

func (r *PostgresPaymentRepository) Create(ctx context.Context, p *commitment.Payment) error {
	query := `INSERT INTO payments (commitment_id, amount, method, reference, attachments, notes, paid_at)
               VALUES ($1, $2, $3, $4, $5, $6, $7)
               RETURNING id, created_at`
	attachments := p.Attachments
	if attachments == nil {
		attachments = []string{}
	}
	err := r.db.QueryRowContext(ctx, query, p.CommitmentID, p.Amount, p.Method, p.Reference, pq.Array(attachments), p.Notes, p.PaidAt).
		Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating payment: %w", err)
	}
	return nil
}

func scanPayments(rows *sql.Rows) ([]*commitment.Payment, error) {
	payments := make([]*commitment.Payment, 0)
	for rows.Next() {
		p := &commitment.Payment{}
		if err := rows.Scan(&p.ID, &p.CommitmentID, &p.Amount, &p.Method, &p.Reference, pq.Array(&p.Attachments), &p.Notes, &p.PaidAt, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning payment row: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payment rows: %w", err)
	}
	return payments, nil
}

func (r *PostgresPaymentRepository) ListByCommitment(ctx context.Context, commitmentID int64) ([]*commitment.Payment, error) {
	query := `SELECT id, commitment_id, amount, method, reference, attachments, notes, paid_at, created_at
               FROM payments WHERE commitment_id = $1 ORDER BY paid_at`
	rows, err := r.db.QueryContext(ctx, query, commitmentID)
	if err != nil {
		return nil, fmt.Errorf("error querying payments for commitment %d: %w", commitmentID, err)
	}
	defer rows.Close()
	return scanPayments(rows)
}

func (r *PostgresPaymentRepository) ListAll(ctx context.Context) ([]*commitment.Payment, error) {
	query := `SELECT id, commitment_id, amount, method, reference, attachments, notes, paid_at, created_at
               FROM payments ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying payments: %w", err)
	}
	defer rows.Close()
	return scanPayments(rows)
}

func (r *PostgresPaymentRepository) Delete(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM payments WHERE id = ANY($1::bigint[])`, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("error deleting payments: %w", err)
	}
	return res.RowsAffected()
}
