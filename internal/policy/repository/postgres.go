package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"parish-platform/internal/policy/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a policy repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const policyColumns = `id, table_name, version, rules, enabled, created_at, updated_at`

// GetByTable returns the policy for the table, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByTable(ctx context.Context, tableName string) (*domain.Policy, error) {
	p := &domain.Policy{}
	err := r.db.QueryRowContext(ctx,
		`SELECT `+policyColumns+` FROM policies WHERE table_name = $1`, tableName).
		Scan(&p.ID, &p.TableName, &p.Version, &p.Rules, &p.Enabled, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// List returns all policies ordered by table name.
func (r *PostgresRepository) List(ctx context.Context) ([]*domain.Policy, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+policyColumns+` FROM policies ORDER BY table_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Policy
	for rows.Next() {
		p := &domain.Policy{}
		if err := rows.Scan(&p.ID, &p.TableName, &p.Version, &p.Rules, &p.Enabled, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Upsert stores rules for the table. Inserts at version 1; on conflict bumps
// the version, replaces rules, and re-enables. The whole change is a single
// atomic statement.
func (r *PostgresRepository) Upsert(ctx context.Context, tableName, rules string) (*domain.Policy, error) {
	p := &domain.Policy{}
	now := time.Now().UTC()
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO policies (id, table_name, version, rules, enabled, created_at, updated_at)
		 VALUES ($1, $2, 1, $3, TRUE, $4, $4)
		 ON CONFLICT (table_name) DO UPDATE
		 SET rules = EXCLUDED.rules,
		     version = policies.version + 1,
		     enabled = TRUE,
		     updated_at = EXCLUDED.updated_at
		 RETURNING `+policyColumns,
		uuid.New().String(), tableName, rules, now).
		Scan(&p.ID, &p.TableName, &p.Version, &p.Rules, &p.Enabled, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// SetEnabled toggles the policy for the table.
func (r *PostgresRepository) SetEnabled(ctx context.Context, tableName string, enabled bool) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE policies SET enabled = $2, updated_at = $3 WHERE table_name = $1`,
		tableName, enabled, time.Now().UTC())
	return err
}

var _ Repository = (*PostgresRepository)(nil)
