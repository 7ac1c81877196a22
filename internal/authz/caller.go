package authz

import (
	"parish-platform/internal/apperr"
	profiledomain "parish-platform/internal/profile/domain"
)

// Caller is the resolved identity and role a request acts as. The zero value
// is the anonymous caller.
type Caller struct {
	Identity string
	Role     profiledomain.Role
}

// Anonymous returns the unauthenticated caller.
func Anonymous() Caller {
	return Caller{Identity: NoIdentity, Role: profiledomain.RoleAnonymous}
}

// Authenticated reports whether the caller has a resolved, active identity.
func (c Caller) Authenticated() bool {
	return c.Identity != NoIdentity && c.Role != profiledomain.RoleAnonymous
}

// IsAdmin reports whether the caller resolved to the admin role.
func (c Caller) IsAdmin() bool {
	return c.Role == profiledomain.RoleAdmin
}

// RequireAdmin ensures the caller is an authenticated admin. Returns an
// Unauthenticated error for anonymous callers and Forbidden otherwise.
func RequireAdmin(c Caller) error {
	if !c.Authenticated() {
		return apperr.New(apperr.KindUnauthenticated, "admin endpoint requires a signed-in admin")
	}
	if !c.IsAdmin() {
		return apperr.New(apperr.KindForbidden, "admin role required")
	}
	return nil
}

// RequireAuthenticated ensures the caller has a valid, active session.
func RequireAuthenticated(c Caller) error {
	if !c.Authenticated() {
		return apperr.New(apperr.KindUnauthenticated, "sign in required")
	}
	return nil
}
