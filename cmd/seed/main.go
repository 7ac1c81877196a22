// seed inserts development sample data for local testing.
// Idempotent: skips inserts if the dev admin (admin@example.com) already exists.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"parish-platform/internal/authz/engine"
	"parish-platform/internal/config"
	"parish-platform/internal/content"
	contentrepo "parish-platform/internal/content/repository"
	"parish-platform/internal/db"
	identitydomain "parish-platform/internal/identity/domain"
	identityrepo "parish-platform/internal/identity/repository"
	policyrepo "parish-platform/internal/policy/repository"
	profiledomain "parish-platform/internal/profile/domain"
	profilerepo "parish-platform/internal/profile/repository"
	"parish-platform/internal/security"
)

const (
	adminEmail  = "admin@example.com"
	memberEmail = "member@example.com"
	devPassword = "password123"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()
	identities := identityrepo.NewPostgresRepository(conn)
	profiles := profilerepo.NewPostgresRepository(conn)
	policies := policyrepo.NewPostgresRepository(conn)
	rows := contentrepo.NewPostgresRepository(conn)

	existing, err := identities.GetByEmail(ctx, adminEmail)
	if err != nil {
		log.Fatalf("seed check: %v", err)
	}
	if existing != nil {
		log.Println("Seed already applied (admin@example.com exists). Skipping.")
		os.Exit(0)
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	passwordHash, err := hasher.Hash([]byte(devPassword))
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	now := time.Now().UTC()

	adminID := uuid.New().String()
	if err := identities.Create(ctx, &identitydomain.Identity{
		ID:           adminID,
		Email:        adminEmail,
		DisplayName:  "Parish Admin",
		PasswordHash: passwordHash,
		CreatedAt:    now,
	}); err != nil {
		log.Fatalf("create admin identity: %v", err)
	}

	memberID := uuid.New().String()
	if err := identities.Create(ctx, &identitydomain.Identity{
		ID:           memberID,
		Email:        memberEmail,
		DisplayName:  "Parish Member",
		PasswordHash: passwordHash,
		CreatedAt:    now,
	}); err != nil {
		log.Fatalf("create member identity: %v", err)
	}

	for _, p := range []*profiledomain.Profile{
		{IdentityID: adminID, DisplayName: "Parish Admin", Email: adminEmail, Role: profiledomain.RoleMember, IsActive: true},
		{IdentityID: memberID, DisplayName: "Parish Member", Email: memberEmail, Role: profiledomain.RoleMember, IsActive: true},
	} {
		if err := profiles.UpsertSync(ctx, p); err != nil {
			log.Fatalf("create profile for %s: %v", p.Email, err)
		}
	}
	if _, err := profiles.UpdateRoleStatus(ctx, adminID, profiledomain.RoleAdmin, true); err != nil {
		log.Fatalf("promote admin: %v", err)
	}

	for _, t := range content.Tables() {
		if _, err := policies.Upsert(ctx, t.Name, engine.DefaultRegoPolicy); err != nil {
			log.Fatalf("seed policy for %s: %v", t.Name, err)
		}
	}

	sermons, _ := content.Lookup("sermons")
	if _, err := rows.Insert(ctx, sermons, uuid.New().String(), contentrepo.Row{
		"owner_id":     adminID,
		"title":        "The Good Shepherd",
		"speaker":      "Rev. J. Okafor",
		"scripture":    "John 10:1-18",
		"media_url":    "https://media.example.com/sermons/good-shepherd.mp3",
		"delivered_on": now.AddDate(0, 0, -7),
		"is_published": true,
	}); err != nil {
		log.Fatalf("seed sermon: %v", err)
	}

	events, _ := content.Lookup("events")
	if _, err := rows.Insert(ctx, events, uuid.New().String(), contentrepo.Row{
		"owner_id":     adminID,
		"title":        "Harvest Potluck",
		"location":     "Fellowship Hall",
		"description":  "Bring a dish to share.",
		"starts_at":    now.AddDate(0, 0, 14),
		"ends_at":      now.AddDate(0, 0, 14).Add(3 * time.Hour),
		"is_published": true,
	}); err != nil {
		log.Fatalf("seed event: %v", err)
	}

	categories, _ := content.Lookup("categories")
	categoryID := uuid.New().String()
	if _, err := rows.Insert(ctx, categories, categoryID, contentrepo.Row{
		"name":         "Announcements",
		"slug":         "announcements",
		"is_published": true,
	}); err != nil {
		log.Fatalf("seed category: %v", err)
	}

	posts, _ := content.Lookup("posts")
	if _, err := rows.Insert(ctx, posts, uuid.New().String(), contentrepo.Row{
		"owner_id":     memberID,
		"title":        "Choir practice moved to Thursday",
		"body":         "This week only, choir practice moves to Thursday at 7pm.",
		"category_id":  categoryID,
		"is_published": false,
	}); err != nil {
		log.Fatalf("seed post: %v", err)
	}

	log.Println("Seed completed successfully.")
	fmt.Printf("Admin login: %s / %s\n", adminEmail, devPassword)
	fmt.Printf("Member login: %s / %s\n", memberEmail, devPassword)
}
