package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"parish-platform/internal/apperr"
	identitydomain "parish-platform/internal/identity/domain"
	"parish-platform/internal/identity/service"
	profiledomain "parish-platform/internal/profile/domain"
)

// mockAuthService implements AuthService for tests.
type mockAuthService struct {
	ident       *identitydomain.Identity
	loginRes    *service.LoginResult
	err         error
	logoutToken string
}

func (m *mockAuthService) Register(ctx context.Context, email, password, displayName string) (*identitydomain.Identity, error) {
	return m.ident, m.err
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*service.LoginResult, error) {
	return m.loginRes, m.err
}

func (m *mockAuthService) Logout(ctx context.Context, token string) error {
	m.logoutToken = token
	return m.err
}

func (m *mockAuthService) GetIdentity(ctx context.Context, id string) (*identitydomain.Identity, error) {
	return m.ident, m.err
}

func authTestRouter(auth AuthService, caller passthroughAuth) http.Handler {
	return NewRouter(Deps{
		Auth:       NewAuthHandler(auth, nullAudit{}),
		Content:    NewContentHandler(&mockContentService{}),
		Admin:      NewAdminHandler(nil, nil, nil, nil, nil, nil, nullAudit{}),
		Identities: caller,
		Roles:      caller,
	})
}

func TestAuthHandler_RegisterCreated(t *testing.T) {
	svc := &mockAuthService{ident: &identitydomain.Identity{
		ID:          "id-1",
		Email:       "a@b.com",
		DisplayName: "Alice",
		CreatedAt:   time.Now().UTC(),
	}}
	router := authTestRouter(svc, passthroughAuth{})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/auth/register",
		strings.NewReader(`{"email":"a@b.com","password":"password123","display_name":"Alice"}`)))

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rr.Code, rr.Body.String())
	}
	if strings.Contains(rr.Body.String(), "password") {
		t.Error("response must not echo the password")
	}
}

func TestAuthHandler_RegisterConflict(t *testing.T) {
	svc := &mockAuthService{err: apperr.New(apperr.KindConflict, "email already registered")}
	router := authTestRouter(svc, passthroughAuth{})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/auth/register",
		strings.NewReader(`{"email":"a@b.com","password":"password123"}`)))

	if rr.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rr.Code)
	}
}

func TestAuthHandler_LoginReturnsToken(t *testing.T) {
	expires := time.Now().Add(time.Hour).UTC()
	svc := &mockAuthService{loginRes: &service.LoginResult{
		Token:     "opaque-token-value",
		ExpiresAt: expires,
		Identity:  &identitydomain.Identity{ID: "id-1", Email: "a@b.com"},
	}}
	router := authTestRouter(svc, passthroughAuth{})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email":"a@b.com","password":"password123"}`)))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rr.Code, rr.Body.String())
	}
	var got struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Token != "opaque-token-value" {
		t.Errorf("token = %q, want the issued token", got.Token)
	}
}

func TestAuthHandler_LoginBadCredentials401(t *testing.T) {
	svc := &mockAuthService{err: apperr.New(apperr.KindUnauthenticated, "invalid credentials")}
	router := authTestRouter(svc, passthroughAuth{})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email":"a@b.com","password":"wrong"}`)))

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rr.Code)
	}
}

func TestAuthHandler_LogoutPassesToken(t *testing.T) {
	svc := &mockAuthService{}
	router := authTestRouter(svc, passthroughAuth{})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(http.MethodPost, "/auth/logout", ""))

	if rr.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rr.Code)
	}
	if svc.logoutToken != "test-token" {
		t.Errorf("logout token = %q, want test-token", svc.logoutToken)
	}
}

func TestAuthHandler_MeRequiresSession(t *testing.T) {
	svc := &mockAuthService{}
	router := authTestRouter(svc, passthroughAuth{})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/auth/me", nil))

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rr.Code)
	}
}

func TestAuthHandler_MeReturnsRole(t *testing.T) {
	svc := &mockAuthService{ident: &identitydomain.Identity{ID: "id-1", Email: "a@b.com"}}
	router := authTestRouter(svc, passthroughAuth{identity: "id-1", role: profiledomain.RoleMember})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(http.MethodGet, "/auth/me", ""))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rr.Code, rr.Body.String())
	}
	var got struct {
		ID   string `json:"id"`
		Role string `json:"role"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != "id-1" || got.Role != "member" {
		t.Errorf("me = %+v, want id-1/member", got)
	}
}
