// internal/infra/database/postgres_notification_repository.go
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"commitment_notifier/internal/domain/notification"
)

// Custom errors specific to notification repository
var (
	ErrRunNotFound      = errors.New("notification run not found")
	ErrRunAlreadyExists = errors.New("daily check already started for this date")
)

type PostgresNotificationRepository struct {
	db *sql.DB
}

func NewPostgresNotificationRepository(db *sql.DB) *PostgresNotificationRepository {
	return &PostgresNotificationRepository{db: db}
}

// --- Log Methods ---

func (r *PostgresNotificationRepository) CreateLog(ctx context.Context, l *notification.Log) error {
	query := `INSERT INTO notification_logs (channel, route, recipient, notification_type, content_sid, message_sid,
                                            initial_status, final_status, error_code, error_message)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
               RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query,
		l.Channel, l.Route, l.Recipient, l.NotificationType, l.ContentSID, l.MessageSID,
		l.InitialStatus, l.FinalStatus, l.ErrorCode, l.ErrorMessage,
	).Scan(&l.ID, &l.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating notification log: %w", err)
	}
	return nil
}

// Helper to scan multiple rows
func scanLogs(rows *sql.Rows) ([]*notification.Log, error) {
	logs := make([]*notification.Log, 0)
	for rows.Next() {
		l := notification.Log{}
		if err := rows.Scan(
			&l.ID, &l.Channel, &l.Route, &l.Recipient, &l.NotificationType, &l.ContentSID, &l.MessageSID,
			&l.InitialStatus, &l.FinalStatus, &l.ErrorCode, &l.ErrorMessage, &l.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning notification log row: %w", err)
		}
		logs = append(logs, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notification log rows: %w", err)
	}
	return logs, nil
}

func (r *PostgresNotificationRepository) ListLogsByRecipient(ctx context.Context, recipient string, limit int) ([]*notification.Log, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id, channel, route, recipient, notification_type, content_sid, message_sid,
                      initial_status, final_status, error_code, error_message, created_at
               FROM notification_logs
               WHERE recipient = $1
               ORDER BY created_at DESC
               LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, recipient, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying notification logs for %s: %w", recipient, err)
	}
	defer rows.Close()
	return scanLogs(rows)
}

// --- Run Methods ---

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// CreateRun inserts a run row. Only one DAILY_CHECK row may exist per date;
// a second one returns ErrRunAlreadyExists.
func (r *PostgresNotificationRepository) CreateRun(ctx context.Context, run *notification.Run) error {
	query := `INSERT INTO notification_runs (run_date, kind, sent, failed)
               VALUES ($1, $2, $3, $4)
               ON CONFLICT (run_date, kind) WHERE kind = 'DAILY_CHECK' DO NOTHING
               RETURNING id, started_at`
	run.RunDate = dateOnly(run.RunDate)
	err := r.db.QueryRowContext(ctx, query, run.RunDate, run.Kind, run.Sent, run.Failed).Scan(&run.ID, &run.StartedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrRunAlreadyExists
		}
		return fmt.Errorf("error creating notification run: %w", err)
	}
	return nil
}

func (r *PostgresNotificationRepository) FinishRun(ctx context.Context, run *notification.Run) error {
	query := `UPDATE notification_runs
               SET sent = $1, failed = $2, finished_at = NOW()
               WHERE id = $3
               RETURNING finished_at`
	err := r.db.QueryRowContext(ctx, query, run.Sent, run.Failed, run.ID).Scan(&run.FinishedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrRunNotFound
		}
		return fmt.Errorf("error finishing notification run: %w", err)
	}
	return nil
}

func (r *PostgresNotificationRepository) GetRunByDateAndKind(ctx context.Context, runDate time.Time, kind notification.RunKind) (*notification.Run, error) {
	query := `SELECT id, run_date, kind, sent, failed, started_at, finished_at
               FROM notification_runs
               WHERE run_date = $1 AND kind = $2
               ORDER BY started_at DESC LIMIT 1`
	run := notification.Run{}
	err := r.db.QueryRowContext(ctx, query, dateOnly(runDate), kind).Scan(
		&run.ID, &run.RunDate, &run.Kind, &run.Sent, &run.Failed, &run.StartedAt, &run.FinishedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("error getting notification run by date and kind: %w", err)
	}
	return &run, nil
}
