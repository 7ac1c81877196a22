package repository

import (
	"context"
	"time"

	"parish-platform/internal/session/domain"
)

// Repository defines persistence for sessions.
type Repository interface {
	GetByTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error)
	Create(ctx context.Context, s *domain.Session) error
	Revoke(ctx context.Context, id string) error
	RevokeAllByIdentity(ctx context.Context, identityID string) error
	// DeleteExpiredBefore removes sessions that expired before t. Returns the
	// number of rows deleted. Used by maintenance, not by request handling;
	// request handling relies on lazy expiry.
	DeleteExpiredBefore(ctx context.Context, t time.Time) (int64, error)
}
