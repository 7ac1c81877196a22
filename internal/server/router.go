package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"parish-platform/internal/server/middleware"
)

// Deps bundles everything the router mounts.
type Deps struct {
	Auth    *AuthHandler
	Content *ContentHandler
	Admin   *AdminHandler
	Health  *HealthHandler

	Identities   middleware.IdentityResolver
	Roles        middleware.RoleResolver
	AdminAPIKey  string
	LoginLimiter *middleware.LoginLimiter

	Metrics        http.Handler
	HTTPRecorder   middleware.HTTPRecorder
	SessionMetrics middleware.ValidationRecorder

	RequestTimeout time.Duration
}

// NewRouter builds the HTTP surface. Authentication runs on every request;
// authorization is decided per operation inside the services.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.ClientIP)
	r.Use(middleware.Observe(d.HTTPRecorder))
	if d.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(d.RequestTimeout))
	}

	r.Get("/healthz", d.Health.Healthz)
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}

	auth := middleware.Authenticate(d.Identities, d.Roles, d.AdminAPIKey, d.SessionMetrics)

	r.Route("/auth", func(r chi.Router) {
		login := http.HandlerFunc(d.Auth.Login)
		if d.LoginLimiter != nil {
			r.Method(http.MethodPost, "/login", d.LoginLimiter.Limit(login))
		} else {
			r.Post("/login", login)
		}
		r.Post("/register", d.Auth.Register)
		r.With(auth).Post("/logout", d.Auth.Logout)
		r.With(auth).Get("/me", d.Auth.Me)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(auth)

		r.Route("/admin", func(r chi.Router) {
			r.Get("/profiles", d.Admin.ListProfiles)
			r.Patch("/profiles/{identityID}", d.Admin.UpdateProfile)
			r.Get("/policies", d.Admin.ListPolicies)
			r.Put("/policies/{table}", d.Admin.UpsertPolicy)
			r.Patch("/policies/{table}", d.Admin.SetPolicyEnabled)
			r.Post("/reconcile", d.Admin.Reconcile)
			r.Get("/audit", d.Admin.ListAuditLogs)
		})

		r.Get("/{table}", d.Content.List)
		r.Post("/{table}", d.Content.Create)
		r.Get("/{table}/{id}", d.Content.Get)
		r.Patch("/{table}/{id}", d.Content.Update)
		r.Delete("/{table}/{id}", d.Content.Delete)
	})

	return r
}
