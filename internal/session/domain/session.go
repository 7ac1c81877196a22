package domain

import "time"

// Session authorizes a bearer token to act as an identity until expiry.
// The raw token is never stored; only its SHA-256 hash.
type Session struct {
	ID         string
	TokenHash  string
	IdentityID string
	IssuedAt   time.Time
	ExpiresAt  time.Time
	RevokedAt  *time.Time // nil when not revoked
}

// ValidAt reports whether the session is valid at t: not revoked and t is
// strictly before expiry. Expiry is a hard boundary; clock skew is not
// compensated.
func (s *Session) ValidAt(t time.Time) bool {
	return s.RevokedAt == nil && t.Before(s.ExpiresAt)
}
