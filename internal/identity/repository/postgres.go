package repository

import (
	"context"
	"database/sql"
	"errors"

	"parish-platform/internal/identity/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an identity repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the identity for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Identity, error) {
	return r.getOne(ctx,
		`SELECT id, email, display_name, password_hash, created_at
		 FROM identities WHERE id = $1`, id)
}

// GetByEmail returns the identity for email, or nil if not found.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	return r.getOne(ctx,
		`SELECT id, email, display_name, password_hash, created_at
		 FROM identities WHERE email = $1`, email)
}

// Create persists the identity. The identity must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, i *domain.Identity) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO identities (id, email, display_name, password_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		i.ID, i.Email, i.DisplayName, i.PasswordHash, i.CreatedAt)
	return err
}

// ListWithoutProfile returns up to limit identities with no profile row.
func (r *PostgresRepository) ListWithoutProfile(ctx context.Context, limit int) ([]*domain.Identity, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT i.id, i.email, i.display_name, i.password_hash, i.created_at
		 FROM identities i
		 LEFT JOIN profiles p ON p.identity_id = i.id
		 WHERE p.identity_id IS NULL
		 ORDER BY i.created_at
		 LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Identity
	for rows.Next() {
		i := &domain.Identity{}
		if err := rows.Scan(&i.ID, &i.Email, &i.DisplayName, &i.PasswordHash, &i.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) getOne(ctx context.Context, query, arg string) (*domain.Identity, error) {
	i := &domain.Identity{}
	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&i.ID, &i.Email, &i.DisplayName, &i.PasswordHash, &i.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return i, nil
}

var _ Repository = (*PostgresRepository)(nil)
