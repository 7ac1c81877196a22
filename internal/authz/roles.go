package authz

import (
	"context"

	"parish-platform/internal/apperr"
	profiledomain "parish-platform/internal/profile/domain"
)

// ProfileStore is the minimal profile repository needed by the RoleResolver.
type ProfileStore interface {
	GetByIdentity(ctx context.Context, identityID string) (*profiledomain.Profile, error)
}

// RoleResolver maps a resolved identity to its authorization role. It is a
// pure read over profile state; it never creates or mutates profiles.
type RoleResolver struct {
	profiles ProfileStore
}

// NewRoleResolver returns a RoleResolver backed by the given profile store.
func NewRoleResolver(profiles ProfileStore) *RoleResolver {
	return &RoleResolver{profiles: profiles}
}

// Resolve returns the role for identity. NoIdentity resolves to anonymous.
// A missing profile (identity created but sync not yet run) resolves to
// anonymous rather than erroring: deny over availability. An inactive
// profile resolves to anonymous regardless of its stored role. Only a store
// failure returns an error, tagged Transient.
func (r *RoleResolver) Resolve(ctx context.Context, identity string) (profiledomain.Role, error) {
	if identity == NoIdentity {
		return profiledomain.RoleAnonymous, nil
	}
	p, err := r.profiles.GetByIdentity(ctx, identity)
	if err != nil {
		return profiledomain.RoleAnonymous, apperr.Wrap(apperr.KindTransient, "profile lookup failed", err)
	}
	if p == nil {
		return profiledomain.RoleAnonymous, nil
	}
	if !p.IsActive {
		return profiledomain.RoleAnonymous, nil
	}
	return p.Role, nil
}
