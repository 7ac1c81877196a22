package domain

import (
	"errors"
	"time"
)

// Role is one of the fixed privilege levels. RoleAnonymous is never stored;
// it is the resolved role for requests with no valid, active profile.
type Role string

const (
	RoleAnonymous Role = "anonymous"
	RoleMember    Role = "member"
	RoleAdmin     Role = "admin"
)

// StorableRole reports whether r may be persisted on a profile row.
func StorableRole(r Role) bool {
	return r == RoleMember || r == RoleAdmin
}

// Profile is the application's authoritative record of a user's role and
// active status. Exactly one profile per identity; never hard-deleted in
// normal operation — deactivated via IsActive=false instead.
type Profile struct {
	IdentityID  string
	DisplayName string
	Email       string
	Role        Role
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate validates the profile for persistence. Returns an error describing the first validation failure.
func (p *Profile) Validate() error {
	if p.IdentityID == "" {
		return errors.New("identity_id is required")
	}
	if p.Role == "" {
		p.Role = RoleMember
	}
	if !StorableRole(p.Role) {
		return errors.New("role must be member or admin")
	}
	return nil
}
