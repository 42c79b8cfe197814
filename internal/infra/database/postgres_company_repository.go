package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"commitment_notifier/internal/domain/company"
)

var ErrCompanyNotFound = errors.New("company not found")

type PostgresCompanyRepository struct {
	db *sql.DB
}

func NewPostgresCompanyRepository(db *sql.DB) *PostgresCompanyRepository {
	return &PostgresCompanyRepository{db: db}
}

func (r *PostgresCompanyRepository) GetByID(ctx context.Context, id int64) (*company.Company, error) {
	query := `SELECT id, name, nit, contract_expiration_date, created_at FROM companies WHERE id = $1`
	c := &company.Company{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.Name, &c.NIT, &c.ContractExpiration, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCompanyNotFound
		}
		return nil, fmt.Errorf("error getting company by ID: %w", err)
	}
	return c, nil
}

func (r *PostgresCompanyRepository) list(ctx context.Context, query string) ([]*company.Company, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying companies: %w", err)
	}
	defer rows.Close()

	companies := make([]*company.Company, 0)
	for rows.Next() {
		c := &company.Company{}
		if err := rows.Scan(&c.ID, &c.Name, &c.NIT, &c.ContractExpiration, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning company row: %w", err)
		}
		companies = append(companies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating company rows: %w", err)
	}
	return companies, nil
}

func (r *PostgresCompanyRepository) ListAll(ctx context.Context) ([]*company.Company, error) {
	return r.list(ctx, `SELECT id, name, nit, contract_expiration_date, created_at FROM companies ORDER BY name`)
}

func (r *PostgresCompanyRepository) ListWithContracts(ctx context.Context) ([]*company.Company, error) {
	return r.list(ctx, `SELECT id, name, nit, contract_expiration_date, created_at
               FROM companies WHERE contract_expiration_date IS NOT NULL ORDER BY contract_expiration_date`)
}
