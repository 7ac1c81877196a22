package repository

import (
	"context"

	"parish-platform/internal/profile/domain"
)

// Repository defines persistence for profiles.
type Repository interface {
	GetByIdentity(ctx context.Context, identityID string) (*domain.Profile, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Profile, error)
	// UpsertSync inserts the profile with defaults (role=member, is_active=true)
	// or, when a row for the identity already exists, refreshes display_name,
	// email, and updated_at only. It never overwrites role or is_active.
	// Safe under concurrent first-logins for the same identity.
	UpsertSync(ctx context.Context, p *domain.Profile) error
	// UpdateRoleStatus sets role and is_active for the identity. Admin-only
	// mutation. Returns the updated profile, or nil if no row exists.
	UpdateRoleStatus(ctx context.Context, identityID string, role domain.Role, isActive bool) (*domain.Profile, error)
}
