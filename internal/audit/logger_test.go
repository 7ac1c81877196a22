package audit

import (
	"context"
	"errors"
	"testing"

	"parish-platform/internal/audit/domain"
)

// mockRepo implements repository.Repository for tests.
type mockRepo struct {
	entries   []*domain.AuditLog
	createErr error
}

func (m *mockRepo) Create(ctx context.Context, l *domain.AuditLog) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.entries = append(m.entries, l)
	return nil
}

func (m *mockRepo) ListRecent(ctx context.Context, limit int) ([]*domain.AuditLog, error) {
	return m.entries, nil
}

func TestLogEvent_PersistsEntry(t *testing.T) {
	repo := &mockRepo{}
	l := NewLogger(repo, func(ctx context.Context) string { return "10.1.2.3" })

	l.LogEvent(context.Background(), "id-1", "update", "posts/p1", "")

	if len(repo.entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(repo.entries))
	}
	e := repo.entries[0]
	if e.IdentityID != "id-1" || e.Action != "update" || e.Resource != "posts/p1" {
		t.Errorf("entry = %+v", e)
	}
	if e.IP != "10.1.2.3" {
		t.Errorf("ip = %q, want 10.1.2.3", e.IP)
	}
	if e.ID == "" || e.CreatedAt.IsZero() {
		t.Error("entry should carry an id and timestamp")
	}
}

func TestLogEvent_AnonymousSentinel(t *testing.T) {
	repo := &mockRepo{}
	l := NewLogger(repo, nil)

	l.LogEvent(context.Background(), "", "login_failed", "identity", "")

	if repo.entries[0].IdentityID != SentinelIdentity {
		t.Errorf("identity = %q, want %q", repo.entries[0].IdentityID, SentinelIdentity)
	}
	if repo.entries[0].IP != "unknown" {
		t.Errorf("ip = %q, want unknown when no extractor", repo.entries[0].IP)
	}
}

func TestLogEvent_StoreFailureDoesNotPanic(t *testing.T) {
	l := NewLogger(&mockRepo{createErr: errors.New("db down")}, nil)
	// Best-effort: the call must swallow the failure.
	l.LogEvent(context.Background(), "id-1", "insert", "posts", "")
}
