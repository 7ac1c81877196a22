package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"parish-platform/internal/session/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a session repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByTokenHash returns the session for the token hash, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error) {
	s := &domain.Session{}
	var revokedAt sql.NullTime
	err := r.db.QueryRowContext(ctx,
		`SELECT id, token_hash, identity_id, issued_at, expires_at, revoked_at
		 FROM sessions WHERE token_hash = $1`, tokenHash).
		Scan(&s.ID, &s.TokenHash, &s.IdentityID, &s.IssuedAt, &s.ExpiresAt, &revokedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if revokedAt.Valid {
		s.RevokedAt = &revokedAt.Time
	}
	return s, nil
}

// Create persists the session. The session must have ID and TokenHash set.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, token_hash, identity_id, issued_at, expires_at, revoked_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		s.ID, s.TokenHash, s.IdentityID, s.IssuedAt, s.ExpiresAt, nullTime(s.RevokedAt))
	return err
}

// Revoke marks the session with the given id as revoked. Returns an error if the update fails.
func (r *PostgresRepository) Revoke(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET revoked_at = $2 WHERE id = $1 AND revoked_at IS NULL`,
		id, time.Now().UTC())
	return err
}

// RevokeAllByIdentity revokes all sessions for the given identity.
func (r *PostgresRepository) RevokeAllByIdentity(ctx context.Context, identityID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET revoked_at = $2 WHERE identity_id = $1 AND revoked_at IS NULL`,
		identityID, time.Now().UTC())
	return err
}

// DeleteExpiredBefore removes sessions that expired before t.
func (r *PostgresRepository) DeleteExpiredBefore(ctx context.Context, t time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < $1`, t)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

var _ Repository = (*PostgresRepository)(nil)
