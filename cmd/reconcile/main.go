// reconcile repairs profiles for identities the first-login sync missed and
// purges long-expired session rows.
// Runs once and exits, or loops on RECONCILE_INTERVAL when set (e.g. "10m").
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"parish-platform/internal/config"
	"parish-platform/internal/db"
	identityrepo "parish-platform/internal/identity/repository"
	profilerepo "parish-platform/internal/profile/repository"
	profilesync "parish-platform/internal/profile/sync"
	sessionrepo "parish-platform/internal/session/repository"
)

// expiredRetention keeps expired sessions around briefly so lazy revocation
// and debugging can still see them.
const expiredRetention = 24 * time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("reconcile: DATABASE_URL is required")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	syncer := profilesync.NewSyncer(
		identityrepo.NewPostgresRepository(conn),
		profilerepo.NewPostgresRepository(conn),
		nil,
	)
	sessions := sessionrepo.NewPostgresRepository(conn)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("reconcile: shutting down...")
		cancel()
	}()

	interval := cfg.ReconcileIntervalDuration()
	if interval == 0 {
		runOnce(ctx, syncer, sessions)
		return
	}

	log.Printf("reconcile: running every %s", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	runOnce(ctx, syncer, sessions)
	for {
		select {
		case <-ctx.Done():
			log.Println("reconcile: stopped")
			return
		case <-ticker.C:
			runOnce(ctx, syncer, sessions)
		}
	}
}

func runOnce(ctx context.Context, syncer *profilesync.Syncer, sessions *sessionrepo.PostgresRepository) {
	repaired, err := syncer.Reconcile(ctx)
	if err != nil {
		log.Printf("reconcile: pass failed after %d repairs: %v", repaired, err)
		return
	}
	log.Printf("reconcile: repaired %d profiles", repaired)

	purged, err := sessions.DeleteExpiredBefore(ctx, time.Now().UTC().Add(-expiredRetention))
	if err != nil {
		log.Printf("reconcile: session purge failed: %v", err)
		return
	}
	if purged > 0 {
		log.Printf("reconcile: purged %d expired sessions", purged)
	}
}
