package service

import (
	"context"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"parish-platform/internal/apperr"
	identitydomain "parish-platform/internal/identity/domain"
	"parish-platform/internal/security"
	"parish-platform/internal/session"
	sessiondomain "parish-platform/internal/session/domain"
)

// IdentityRepo is the minimal identity repository needed by the auth service.
type IdentityRepo interface {
	GetByID(ctx context.Context, id string) (*identitydomain.Identity, error)
	GetByEmail(ctx context.Context, email string) (*identitydomain.Identity, error)
	Create(ctx context.Context, i *identitydomain.Identity) error
}

// SessionRepo is the minimal session repository needed by the auth service.
// The login/logout flow is the only writer of session rows.
type SessionRepo interface {
	GetByTokenHash(ctx context.Context, tokenHash string) (*sessiondomain.Session, error)
	Create(ctx context.Context, s *sessiondomain.Session) error
	Revoke(ctx context.Context, id string) error
}

// ProfileSyncer provisions the profile for a newly authenticated identity.
type ProfileSyncer interface {
	SyncIdentity(ctx context.Context, identityID, email, displayName string) error
}

// LoginResult holds the outcome of a successful login.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Identity  *identitydomain.Identity
}

// AuthService implements password-based register, login, and logout against
// the local identity provider.
type AuthService struct {
	identities IdentityRepo
	sessions   SessionRepo
	syncer     ProfileSyncer
	hasher     *security.Hasher
	sessionTTL time.Duration
}

// NewAuthService returns an AuthService with the given dependencies.
func NewAuthService(identities IdentityRepo, sessions SessionRepo, syncer ProfileSyncer, hasher *security.Hasher, sessionTTL time.Duration) *AuthService {
	return &AuthService{
		identities: identities,
		sessions:   sessions,
		syncer:     syncer,
		hasher:     hasher,
		sessionTTL: sessionTTL,
	}
}

// Register creates an identity with the given email and password and fires
// profile synchronization. A sync failure does not abort identity creation:
// it is logged and left to the reconciliation pass to repair.
func (s *AuthService) Register(ctx context.Context, email, password, displayName string) (*identitydomain.Identity, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	existing, err := s.identities.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "identity lookup failed", err)
	}
	if existing != nil {
		return nil, apperr.New(apperr.KindConflict, "email already registered")
	}
	hashed, err := s.hasher.Hash([]byte(password))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "password hashing failed", err)
	}
	ident := &identitydomain.Identity{
		ID:           uuid.New().String(),
		Email:        email,
		DisplayName:  strings.TrimSpace(displayName),
		PasswordHash: hashed,
		CreatedAt:    time.Now().UTC(),
	}
	if err := ident.Validate(); err != nil {
		return nil, apperr.Wrap(apperr.KindInvalid, "invalid identity", err)
	}
	if err := s.identities.Create(ctx, ident); err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "identity create failed", err)
	}
	if err := s.syncer.SyncIdentity(ctx, ident.ID, ident.Email, ident.DisplayName); err != nil {
		log.Printf("auth: profile sync for new identity %s failed: %v", ident.ID, err)
	}
	return ident, nil
}

// Login authenticates with email/password and issues an opaque session
// token. The raw token is returned to the client once; only its hash is
// stored. Re-syncs the profile best-effort on every login so a missed
// first-login sync heals itself.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, apperr.New(apperr.KindUnauthenticated, "invalid credentials")
	}
	ident, err := s.identities.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "identity lookup failed", err)
	}
	if ident == nil {
		return nil, apperr.New(apperr.KindUnauthenticated, "invalid credentials")
	}
	if err := s.hasher.Compare(ident.PasswordHash, []byte(password)); err != nil {
		return nil, apperr.New(apperr.KindUnauthenticated, "invalid credentials")
	}
	token, err := session.NewToken()
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "token generation failed", err)
	}
	now := time.Now().UTC()
	sess := &sessiondomain.Session{
		ID:         uuid.New().String(),
		TokenHash:  session.HashToken(token),
		IdentityID: ident.ID,
		IssuedAt:   now,
		ExpiresAt:  now.Add(s.sessionTTL),
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "session create failed", err)
	}
	if err := s.syncer.SyncIdentity(ctx, ident.ID, ident.Email, ident.DisplayName); err != nil {
		log.Printf("auth: profile sync on login for %s failed: %v", ident.ID, err)
	}
	return &LoginResult{Token: token, ExpiresAt: sess.ExpiresAt, Identity: ident}, nil
}

// Logout revokes the session for the presented token. Unknown or already
// revoked tokens are a no-op: logout is idempotent.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	sess, err := s.sessions.GetByTokenHash(ctx, session.HashToken(token))
	if err != nil {
		return apperr.Wrap(apperr.KindTransient, "session lookup failed", err)
	}
	if sess == nil || sess.RevokedAt != nil {
		return nil
	}
	if err := s.sessions.Revoke(ctx, sess.ID); err != nil {
		return apperr.Wrap(apperr.KindTransient, "session revoke failed", err)
	}
	return nil
}

// GetIdentity returns the identity record for id, or nil if absent.
func (s *AuthService) GetIdentity(ctx context.Context, id string) (*identitydomain.Identity, error) {
	ident, err := s.identities.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "identity lookup failed", err)
	}
	return ident, nil
}

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

func validateEmail(email string) error {
	if email == "" || len(email) > 254 || !emailRe.MatchString(email) {
		return apperr.New(apperr.KindInvalid, "invalid email address")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return apperr.New(apperr.KindInvalid, "password must be at least 8 characters")
	}
	if len(password) > 128 {
		return apperr.New(apperr.KindInvalid, "password too long")
	}
	return nil
}
