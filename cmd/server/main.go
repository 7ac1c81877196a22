package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"parish-platform/internal/audit"
	auditrepo "parish-platform/internal/audit/repository"
	"parish-platform/internal/authz"
	"parish-platform/internal/authz/engine"
	"parish-platform/internal/config"
	"parish-platform/internal/content/repository"
	contentsvc "parish-platform/internal/content/service"
	"parish-platform/internal/db"
	identityrepo "parish-platform/internal/identity/repository"
	identitysvc "parish-platform/internal/identity/service"
	"parish-platform/internal/metrics"
	policyrepo "parish-platform/internal/policy/repository"
	profilerepo "parish-platform/internal/profile/repository"
	profilesync "parish-platform/internal/profile/sync"
	"parish-platform/internal/security"
	"parish-platform/internal/server"
	"parish-platform/internal/server/middleware"
	sessionrepo "parish-platform/internal/session/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("server: DATABASE_URL is required")
	}

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer database.Close()

	m := metrics.New()

	identities := identityrepo.NewPostgresRepository(database)
	sessions := sessionrepo.NewPostgresRepository(database)
	profiles := profilerepo.NewPostgresRepository(database)
	policies := policyrepo.NewPostgresRepository(database)
	auditStore := auditrepo.NewPostgresRepository(database)
	contentStore := repository.NewPostgresRepository(database)

	auditLogger := audit.NewLogger(auditStore, middleware.ClientIPFromContext)
	syncer := profilesync.NewSyncer(identities, profiles, m)

	hasher := security.NewHasher(cfg.BcryptCost)
	authSvc := identitysvc.NewAuthService(identities, sessions, syncer, hasher, cfg.SessionTTLDuration())

	evaluator := engine.NewOPAEvaluator(policies)
	authorizer := authz.NewAuthorizer(evaluator, m)
	contentService := contentsvc.NewService(contentStore, authorizer, auditLogger)

	authenticator := authz.NewAuthenticator(sessions)
	roleResolver := authz.NewRoleResolver(profiles)

	handler := server.NewRouter(server.Deps{
		Auth:           server.NewAuthHandler(authSvc, auditLogger),
		Content:        server.NewContentHandler(contentService),
		Admin:          server.NewAdminHandler(profiles, policies, auditStore, sessions, evaluator, syncer, auditLogger),
		Health:         server.NewHealthHandler(database, evaluator),
		Identities:     authenticator,
		Roles:          roleResolver,
		AdminAPIKey:    cfg.AdminAPIKey,
		LoginLimiter:   middleware.NewLoginLimiter(cfg.LoginRatePerMin, cfg.LoginBurst),
		Metrics:        m.Handler(),
		HTTPRecorder:   m,
		SessionMetrics: m,
		RequestTimeout: cfg.RequestTimeoutDuration(),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down HTTP server...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	log.Println("HTTP server stopped")
}
