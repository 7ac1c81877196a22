package sync

import (
	"context"
	"errors"
	"testing"

	identitydomain "parish-platform/internal/identity/domain"
	"parish-platform/internal/profile/domain"
)

// mockIdentityRepo implements identityrepo.Repository for tests.
type mockIdentityRepo struct {
	withoutProfile []*identitydomain.Identity
	listErr        error
}

func (m *mockIdentityRepo) GetByID(ctx context.Context, id string) (*identitydomain.Identity, error) {
	return nil, nil
}

func (m *mockIdentityRepo) GetByEmail(ctx context.Context, email string) (*identitydomain.Identity, error) {
	return nil, nil
}

func (m *mockIdentityRepo) Create(ctx context.Context, i *identitydomain.Identity) error {
	return nil
}

func (m *mockIdentityRepo) ListWithoutProfile(ctx context.Context, limit int) ([]*identitydomain.Identity, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	if limit > len(m.withoutProfile) {
		limit = len(m.withoutProfile)
	}
	batch := m.withoutProfile[:limit]
	m.withoutProfile = m.withoutProfile[limit:]
	return batch, nil
}

// mockProfileRepo implements profilerepo.Repository for tests.
type mockProfileRepo struct {
	byIdentity map[string]*domain.Profile
	upsertErrs map[string]error
	upserts    int
}

func (m *mockProfileRepo) GetByIdentity(ctx context.Context, identityID string) (*domain.Profile, error) {
	return m.byIdentity[identityID], nil
}

func (m *mockProfileRepo) List(ctx context.Context, limit, offset int) ([]*domain.Profile, error) {
	return nil, nil
}

func (m *mockProfileRepo) UpsertSync(ctx context.Context, p *domain.Profile) error {
	if err := m.upsertErrs[p.IdentityID]; err != nil {
		return err
	}
	m.upserts++
	if existing, ok := m.byIdentity[p.IdentityID]; ok {
		// Existing rows keep their role and active status.
		existing.DisplayName = p.DisplayName
		existing.Email = p.Email
		return nil
	}
	if m.byIdentity == nil {
		m.byIdentity = map[string]*domain.Profile{}
	}
	m.byIdentity[p.IdentityID] = &domain.Profile{
		IdentityID:  p.IdentityID,
		DisplayName: p.DisplayName,
		Email:       p.Email,
		Role:        domain.RoleMember,
		IsActive:    true,
	}
	return nil
}

func (m *mockProfileRepo) UpdateRoleStatus(ctx context.Context, identityID string, role domain.Role, isActive bool) (*domain.Profile, error) {
	p := m.byIdentity[identityID]
	if p == nil {
		return nil, nil
	}
	p.Role = role
	p.IsActive = isActive
	return p, nil
}

func TestSyncIdentity_CreatesWithDefaults(t *testing.T) {
	profiles := &mockProfileRepo{}
	s := NewSyncer(&mockIdentityRepo{}, profiles, nil)

	if err := s.SyncIdentity(context.Background(), "id-1", "a@b.com", "Alice"); err != nil {
		t.Fatalf("SyncIdentity: %v", err)
	}
	p := profiles.byIdentity["id-1"]
	if p == nil {
		t.Fatal("profile should exist after sync")
	}
	if p.Role != domain.RoleMember || !p.IsActive {
		t.Errorf("profile = %+v, want role=member is_active=true", p)
	}
}

func TestSyncIdentity_NeverOverwritesRoleOrStatus(t *testing.T) {
	profiles := &mockProfileRepo{byIdentity: map[string]*domain.Profile{
		"id-1": {IdentityID: "id-1", Role: domain.RoleAdmin, IsActive: false, DisplayName: "Old"},
	}}
	s := NewSyncer(&mockIdentityRepo{}, profiles, nil)

	if err := s.SyncIdentity(context.Background(), "id-1", "new@b.com", "New Name"); err != nil {
		t.Fatalf("SyncIdentity: %v", err)
	}
	p := profiles.byIdentity["id-1"]
	if p.Role != domain.RoleAdmin {
		t.Errorf("role = %q, sync must not overwrite it", p.Role)
	}
	if p.IsActive {
		t.Error("is_active = true, sync must not reactivate")
	}
	if p.DisplayName != "New Name" || p.Email != "new@b.com" {
		t.Errorf("display/email not refreshed: %+v", p)
	}
}

func TestSyncIdentity_Idempotent(t *testing.T) {
	profiles := &mockProfileRepo{}
	s := NewSyncer(&mockIdentityRepo{}, profiles, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := s.SyncIdentity(ctx, "id-1", "a@b.com", "Alice"); err != nil {
			t.Fatalf("SyncIdentity run %d: %v", i, err)
		}
	}
	if len(profiles.byIdentity) != 1 {
		t.Errorf("profiles = %d, want exactly 1", len(profiles.byIdentity))
	}
}

// mockRepairRecorder implements RepairRecorder for tests.
type mockRepairRecorder struct {
	total int
}

func (m *mockRepairRecorder) RecordReconcileRepairs(n int) { m.total += n }

func TestReconcile_RepairsMissingProfiles(t *testing.T) {
	identities := &mockIdentityRepo{withoutProfile: []*identitydomain.Identity{
		{ID: "id-1", Email: "a@b.com", DisplayName: "A"},
		{ID: "id-2", Email: "c@d.com", DisplayName: "C"},
	}}
	profiles := &mockProfileRepo{}
	rec := &mockRepairRecorder{}
	s := NewSyncer(identities, profiles, rec)

	repaired, err := s.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if repaired != 2 {
		t.Errorf("repaired = %d, want 2", repaired)
	}
	if len(profiles.byIdentity) != 2 {
		t.Errorf("profiles = %d, want 2", len(profiles.byIdentity))
	}
	if rec.total != 2 {
		t.Errorf("recorded repairs = %d, want 2", rec.total)
	}
}

func TestReconcile_NothingToRepair(t *testing.T) {
	s := NewSyncer(&mockIdentityRepo{}, &mockProfileRepo{}, nil)
	repaired, err := s.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if repaired != 0 {
		t.Errorf("repaired = %d, want 0", repaired)
	}
}

func TestReconcile_SkipsFailingIdentity(t *testing.T) {
	identities := &mockIdentityRepo{withoutProfile: []*identitydomain.Identity{
		{ID: "id-bad", Email: "bad@b.com"},
		{ID: "id-ok", Email: "ok@b.com"},
	}}
	profiles := &mockProfileRepo{upsertErrs: map[string]error{
		"id-bad": errors.New("constraint violation"),
	}}
	s := NewSyncer(identities, profiles, nil)

	repaired, err := s.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if repaired != 1 {
		t.Errorf("repaired = %d, want 1 (bad row skipped)", repaired)
	}
}

func TestReconcile_ListErrorReturned(t *testing.T) {
	identities := &mockIdentityRepo{listErr: errors.New("db down")}
	s := NewSyncer(identities, &mockProfileRepo{}, nil)

	if _, err := s.Reconcile(context.Background()); err == nil {
		t.Fatal("list failure should surface")
	}
}
