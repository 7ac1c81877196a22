package authz

import (
	"context"
	"errors"
	"testing"
	"time"

	"parish-platform/internal/apperr"
	"parish-platform/internal/session"
	sessiondomain "parish-platform/internal/session/domain"
)

// mockSessionStore implements SessionStore for tests.
type mockSessionStore struct {
	byHash     map[string]*sessiondomain.Session
	getErr     error
	revokeErr  error
	revokedIDs []string
}

func (m *mockSessionStore) GetByTokenHash(ctx context.Context, tokenHash string) (*sessiondomain.Session, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.byHash[tokenHash], nil
}

func (m *mockSessionStore) Revoke(ctx context.Context, id string) error {
	m.revokedIDs = append(m.revokedIDs, id)
	return m.revokeErr
}

func fixedAuthenticator(store *mockSessionStore, now time.Time) *Authenticator {
	a := NewAuthenticator(store)
	a.now = func() time.Time { return now }
	return a
}

func TestIdentify_EmptyToken(t *testing.T) {
	a := NewAuthenticator(&mockSessionStore{})
	id, err := a.Identify(context.Background(), "")
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if id != NoIdentity {
		t.Errorf("identity = %q, want NoIdentity", id)
	}
}

func TestIdentify_UnknownToken(t *testing.T) {
	a := NewAuthenticator(&mockSessionStore{byHash: map[string]*sessiondomain.Session{}})
	id, err := a.Identify(context.Background(), "no-such-token")
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if id != NoIdentity {
		t.Errorf("identity = %q, want NoIdentity", id)
	}
}

func TestIdentify_ValidSession(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	token := "valid-token"
	store := &mockSessionStore{byHash: map[string]*sessiondomain.Session{
		session.HashToken(token): {ID: "s1", TokenHash: session.HashToken(token), IdentityID: "id-1", ExpiresAt: now.Add(time.Hour)},
	}}
	a := fixedAuthenticator(store, now)

	id, err := a.Identify(context.Background(), token)
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if id != "id-1" {
		t.Errorf("identity = %q, want %q", id, "id-1")
	}
}

func TestIdentify_RevokedSession(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	revoked := now.Add(-time.Minute)
	token := "revoked-token"
	store := &mockSessionStore{byHash: map[string]*sessiondomain.Session{
		session.HashToken(token): {ID: "s1", TokenHash: session.HashToken(token), IdentityID: "id-1", ExpiresAt: now.Add(time.Hour), RevokedAt: &revoked},
	}}
	a := fixedAuthenticator(store, now)

	id, err := a.Identify(context.Background(), token)
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if id != NoIdentity {
		t.Errorf("identity = %q, want NoIdentity", id)
	}
	if len(store.revokedIDs) != 0 {
		t.Error("already-revoked session should not be revoked again")
	}
}

func TestIdentify_ExpiredSessionLazilyRevoked(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	token := "expired-token"
	store := &mockSessionStore{byHash: map[string]*sessiondomain.Session{
		session.HashToken(token): {ID: "s1", TokenHash: session.HashToken(token), IdentityID: "id-1", ExpiresAt: now.Add(-time.Second)},
	}}
	a := fixedAuthenticator(store, now)

	id, err := a.Identify(context.Background(), token)
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if id != NoIdentity {
		t.Errorf("identity = %q, want NoIdentity", id)
	}
	if len(store.revokedIDs) != 1 || store.revokedIDs[0] != "s1" {
		t.Errorf("revoked = %v, want [s1]", store.revokedIDs)
	}
}

func TestIdentify_ExpiredSessionRevokeFailureStillDenies(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	token := "expired-token"
	store := &mockSessionStore{
		byHash: map[string]*sessiondomain.Session{
			session.HashToken(token): {ID: "s1", TokenHash: session.HashToken(token), IdentityID: "id-1", ExpiresAt: now.Add(-time.Second)},
		},
		revokeErr: errors.New("db down"),
	}
	a := fixedAuthenticator(store, now)

	id, err := a.Identify(context.Background(), token)
	if err != nil {
		t.Fatalf("Identify should not fail when lazy revoke fails: %v", err)
	}
	if id != NoIdentity {
		t.Errorf("identity = %q, want NoIdentity", id)
	}
}

func TestIdentify_ExactExpiryIsExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	token := "boundary-token"
	store := &mockSessionStore{byHash: map[string]*sessiondomain.Session{
		session.HashToken(token): {ID: "s1", TokenHash: session.HashToken(token), IdentityID: "id-1", ExpiresAt: now},
	}}
	a := fixedAuthenticator(store, now)

	id, err := a.Identify(context.Background(), token)
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if id != NoIdentity {
		t.Error("session expiring exactly now should be invalid")
	}
}

func TestIdentify_StoreErrorIsTransient(t *testing.T) {
	store := &mockSessionStore{getErr: errors.New("connection refused")}
	a := NewAuthenticator(store)

	id, err := a.Identify(context.Background(), "any-token")
	if err == nil {
		t.Fatal("store failure should surface as an error")
	}
	if apperr.KindOf(err) != apperr.KindTransient {
		t.Errorf("kind = %v, want KindTransient", apperr.KindOf(err))
	}
	if id != NoIdentity {
		t.Errorf("identity = %q, want NoIdentity", id)
	}
}
