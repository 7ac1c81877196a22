package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"parish-platform/internal/apperr"
	"parish-platform/internal/audit"
	identitydomain "parish-platform/internal/identity/domain"
	"parish-platform/internal/identity/service"
	"parish-platform/internal/server/middleware"
)

// AuthService is the auth surface the handler needs.
type AuthService interface {
	Register(ctx context.Context, email, password, displayName string) (*identitydomain.Identity, error)
	Login(ctx context.Context, email, password string) (*service.LoginResult, error)
	Logout(ctx context.Context, token string) error
	GetIdentity(ctx context.Context, id string) (*identitydomain.Identity, error)
}

// AuthHandler serves register, login, logout, and the current-identity probe.
type AuthHandler struct {
	auth  AuthService
	audit audit.AuditLogger
}

// NewAuthHandler returns an AuthHandler over the given service.
func NewAuthHandler(auth AuthService, auditLogger audit.AuditLogger) *AuthHandler {
	return &AuthHandler{auth: auth, audit: auditLogger}
}

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type identityResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	ident, err := h.auth.Register(r.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		respondError(w, err)
		return
	}
	h.audit.LogEvent(r.Context(), ident.ID, "register", "identity/"+ident.ID, "")
	respondJSON(w, http.StatusCreated, toIdentityResponse(ident))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expires_at"`
	Identity  identityResponse `json:"identity"`
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindUnauthenticated {
			h.audit.LogEvent(r.Context(), "", "login_failed", "identity", strings.TrimSpace(strings.ToLower(req.Email)))
		}
		respondError(w, err)
		return
	}
	h.audit.LogEvent(r.Context(), res.Identity.ID, "login", "identity/"+res.Identity.ID, "")
	respondJSON(w, http.StatusOK, loginResponse{
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt,
		Identity:  toIdentityResponse(res.Identity),
	})
}

// Logout handles POST /auth/logout. Idempotent: always 204 unless the store
// is unreachable.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := middleware.BearerToken(r)
	if err := h.auth.Logout(r.Context(), token); err != nil {
		respondError(w, err)
		return
	}
	caller := middleware.CallerFromContext(r.Context())
	if caller.Authenticated() {
		h.audit.LogEvent(r.Context(), caller.Identity, "logout", "identity/"+caller.Identity, "")
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// Me handles GET /auth/me: the identity and role the presented token acts as.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	caller := middleware.CallerFromContext(r.Context())
	if !caller.Authenticated() {
		respondError(w, apperr.New(apperr.KindUnauthenticated, "sign in required"))
		return
	}
	ident, err := h.auth.GetIdentity(r.Context(), caller.Identity)
	if err != nil {
		respondError(w, err)
		return
	}
	if ident == nil {
		respondError(w, apperr.New(apperr.KindNotFound, "identity not found"))
		return
	}
	respondJSON(w, http.StatusOK, struct {
		identityResponse
		Role string `json:"role"`
	}{toIdentityResponse(ident), string(caller.Role)})
}

func toIdentityResponse(i *identitydomain.Identity) identityResponse {
	return identityResponse{
		ID:          i.ID,
		Email:       i.Email,
		DisplayName: i.DisplayName,
		CreatedAt:   i.CreatedAt,
	}
}
