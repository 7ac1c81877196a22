package middleware

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"parish-platform/internal/authz"
	profiledomain "parish-platform/internal/profile/domain"
)

const bearerPrefix = "bearer "

// MaintenanceIdentity is the synthetic identity for requests authenticated by
// the admin API key instead of a session. It appears in audit logs as-is.
const MaintenanceIdentity = "_maintenance"

// IdentityResolver resolves a bearer token to an identity (see authz.Authenticator).
type IdentityResolver interface {
	Identify(ctx context.Context, token string) (string, error)
}

// RoleResolver maps an identity to its role (see authz.RoleResolver).
type RoleResolver interface {
	Resolve(ctx context.Context, identity string) (profiledomain.Role, error)
}

// ValidationRecorder counts session validation outcomes. May be nil.
type ValidationRecorder interface {
	RecordSessionValidation(outcome string)
}

// Authenticate resolves the Authorization header to a caller and stores it in
// the request context. Every request passes through: a missing or invalid
// token yields the anonymous caller, not a 401; individual operations decide
// what anonymous may do. A store failure during resolution is a denial, not a
// fallback to anonymous, and surfaces as 503.
//
// X-Admin-Key with the configured admin API key short-circuits to an admin
// caller for maintenance tooling. An empty configured key disables this path.
func Authenticate(ident IdentityResolver, roles RoleResolver, adminKey string, metrics ValidationRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if adminKey != "" {
				if key := r.Header.Get("X-Admin-Key"); key != "" {
					if subtle.ConstantTimeCompare([]byte(key), []byte(adminKey)) == 1 {
						caller := authz.Caller{Identity: MaintenanceIdentity, Role: profiledomain.RoleAdmin}
						next.ServeHTTP(w, r.WithContext(WithCaller(ctx, caller)))
						return
					}
					unavailable(w, http.StatusUnauthorized, "invalid admin key")
					return
				}
			}

			token := BearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r.WithContext(WithCaller(ctx, authz.Anonymous())))
				return
			}

			identity, err := ident.Identify(ctx, token)
			if err != nil {
				record(metrics, "error")
				unavailable(w, http.StatusServiceUnavailable, "session validation unavailable")
				return
			}
			if identity == authz.NoIdentity {
				record(metrics, "invalid")
				next.ServeHTTP(w, r.WithContext(WithCaller(ctx, authz.Anonymous())))
				return
			}

			role, err := roles.Resolve(ctx, identity)
			if err != nil {
				record(metrics, "error")
				unavailable(w, http.StatusServiceUnavailable, "role resolution unavailable")
				return
			}
			record(metrics, "valid")

			caller := authz.Caller{Identity: identity, Role: role}
			next.ServeHTTP(w, r.WithContext(WithCaller(ctx, caller)))
		})
	}
}

// BearerToken returns the Bearer token from the Authorization header, or ""
// if missing or malformed.
func BearerToken(r *http.Request) string {
	v := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}

func record(m ValidationRecorder, outcome string) {
	if m != nil {
		m.RecordSessionValidation(outcome)
	}
}

func unavailable(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
