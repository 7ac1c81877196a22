package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"parish-platform/internal/profile/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a profile repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const profileColumns = `identity_id, display_name, email, role, is_active, created_at, updated_at`

// GetByIdentity returns the profile for the identity, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByIdentity(ctx context.Context, identityID string) (*domain.Profile, error) {
	p := &domain.Profile{}
	err := r.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE identity_id = $1`, identityID).
		Scan(&p.IdentityID, &p.DisplayName, &p.Email, &p.Role, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// List returns profiles ordered by creation time with limit and offset.
func (r *PostgresRepository) List(ctx context.Context, limit, offset int) ([]*domain.Profile, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+profileColumns+` FROM profiles ORDER BY created_at LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Profile
	for rows.Next() {
		p := &domain.Profile{}
		if err := rows.Scan(&p.IdentityID, &p.DisplayName, &p.Email, &p.Role, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpsertSync inserts the profile or refreshes display_name/email/updated_at.
// ON CONFLICT keyed by identity_id makes concurrent first-logins for the
// same identity converge on exactly one row; role and is_active are never
// touched on conflict.
func (r *PostgresRepository) UpsertSync(ctx context.Context, p *domain.Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO profiles (identity_id, display_name, email, role, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $6)
		 ON CONFLICT (identity_id) DO UPDATE
		 SET display_name = EXCLUDED.display_name,
		     email = EXCLUDED.email,
		     updated_at = EXCLUDED.updated_at`,
		p.IdentityID, p.DisplayName, p.Email, p.Role, p.IsActive, now)
	return err
}

// UpdateRoleStatus sets role and is_active for the identity and returns the
// updated profile, or nil when no row exists.
func (r *PostgresRepository) UpdateRoleStatus(ctx context.Context, identityID string, role domain.Role, isActive bool) (*domain.Profile, error) {
	p := &domain.Profile{}
	err := r.db.QueryRowContext(ctx,
		`UPDATE profiles SET role = $2, is_active = $3, updated_at = $4
		 WHERE identity_id = $1
		 RETURNING `+profileColumns,
		identityID, role, isActive, time.Now().UTC()).
		Scan(&p.IdentityID, &p.DisplayName, &p.Email, &p.Role, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

var _ Repository = (*PostgresRepository)(nil)
