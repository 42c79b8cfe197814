package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"commitment_notifier/internal/domain/user"
)

var ErrUserNotFound = errors.New("user not found")

const userColumns = `id, display_name, email, role, is_active, notification_settings, created_at, updated_at`

type PostgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u := &user.User{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&u.ID, &u.DisplayName, &u.Email, &u.Role, &u.IsActive, &u.NotificationSettings, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("error getting user by ID: %w", err)
	}
	return u, nil
}

func (r *PostgresUserRepository) list(ctx context.Context, query string) ([]*user.User, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying users: %w", err)
	}
	defer rows.Close()

	users := make([]*user.User, 0)
	for rows.Next() {
		u := &user.User{}
		if err := rows.Scan(&u.ID, &u.DisplayName, &u.Email, &u.Role, &u.IsActive, &u.NotificationSettings, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("error scanning user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}
	return users, nil
}

func (r *PostgresUserRepository) ListWithNotificationChannels(ctx context.Context) ([]*user.User, error) {
	query := `SELECT ` + userColumns + `
               FROM users
               WHERE is_active
                 AND (COALESCE(notification_settings->>'phoneNumber', '') != ''
                      OR COALESCE((notification_settings->>'telegramChatId')::bigint, 0) != 0
                      OR COALESCE((notification_settings->>'emailEnabled')::boolean, FALSE))
               ORDER BY id`
	return r.list(ctx, query)
}

func (r *PostgresUserRepository) ListSubscribedToNewCommitments(ctx context.Context) ([]*user.User, error) {
	query := `SELECT ` + userColumns + `
               FROM users
               WHERE is_active AND COALESCE((notification_settings->>'newCommitments')::boolean, FALSE)
               ORDER BY id`
	return r.list(ctx, query)
}
