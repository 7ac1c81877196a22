// Package authz implements the session-authentication and role-authorization
// core: token-to-identity resolution, role resolution, and row-policy
// decisions. Expected conditions (missing token, expired session, missing
// profile) are normal control-flow outcomes, never errors.
package authz

import (
	"context"
	"log"
	"time"

	"parish-platform/internal/apperr"
	"parish-platform/internal/session"
	sessiondomain "parish-platform/internal/session/domain"
)

// NoIdentity is the sentinel returned when a token denotes no valid session.
const NoIdentity = ""

// SessionStore is the minimal session repository needed by the Authenticator.
type SessionStore interface {
	GetByTokenHash(ctx context.Context, tokenHash string) (*sessiondomain.Session, error)
	Revoke(ctx context.Context, id string) error
}

// Authenticator resolves a bearer token to an identity via the session store.
type Authenticator struct {
	sessions SessionStore
	now      func() time.Time
}

// NewAuthenticator returns an Authenticator backed by the given session store.
func NewAuthenticator(sessions SessionStore) *Authenticator {
	return &Authenticator{sessions: sessions, now: time.Now}
}

// Identify resolves token to an identity. A missing, empty, or malformed
// token resolves to NoIdentity with a nil error; so do unknown, revoked, and
// expired sessions. An expired session is lazily revoked as a best-effort
// side effect. Only a store failure returns an error, tagged Transient, and
// the caller must treat it as a denial.
func (a *Authenticator) Identify(ctx context.Context, token string) (string, error) {
	if token == "" {
		return NoIdentity, nil
	}
	s, err := a.sessions.GetByTokenHash(ctx, session.HashToken(token))
	if err != nil {
		return NoIdentity, apperr.Wrap(apperr.KindTransient, "session lookup failed", err)
	}
	if s == nil {
		return NoIdentity, nil
	}
	// The row must match the presented token itself, not just the lookup key.
	if !session.TokenHashEqual(token, s.TokenHash) {
		return NoIdentity, nil
	}
	if s.RevokedAt != nil {
		return NoIdentity, nil
	}
	if !a.now().Before(s.ExpiresAt) {
		// Lazy expiry: flag the row so later lookups short-circuit. The
		// request outcome does not depend on this write succeeding.
		if err := a.sessions.Revoke(ctx, s.ID); err != nil {
			log.Printf("authz: lazy expiry of session %s failed: %v", s.ID, err)
		}
		return NoIdentity, nil
	}
	return s.IdentityID, nil
}
