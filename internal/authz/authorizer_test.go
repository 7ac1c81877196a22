package authz

import (
	"context"
	"errors"
	"testing"

	"parish-platform/internal/apperr"
	"parish-platform/internal/authz/engine"
	profiledomain "parish-platform/internal/profile/domain"
)

// mockEvaluator implements engine.Evaluator for tests.
type mockEvaluator struct {
	allowed bool
	err     error
	last    engine.Input
}

func (m *mockEvaluator) Allow(ctx context.Context, in engine.Input) (bool, error) {
	m.last = in
	return m.allowed, m.err
}

// mockRecorder implements DecisionRecorder for tests.
type mockRecorder struct {
	outcomes []string
}

func (m *mockRecorder) RecordDecision(table, op, outcome string) {
	m.outcomes = append(m.outcomes, outcome)
}

func member() Caller {
	return Caller{Identity: "member-1", Role: profiledomain.RoleMember}
}

func TestAuthorize_Allowed(t *testing.T) {
	rec := &mockRecorder{}
	a := NewAuthorizer(&mockEvaluator{allowed: true}, rec)

	err := a.Authorize(context.Background(), member(), engine.OpUpdate, "posts", true, &engine.Row{OwnerID: "member-1"}, "")
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if len(rec.outcomes) != 1 || rec.outcomes[0] != "allow" {
		t.Errorf("outcomes = %v, want [allow]", rec.outcomes)
	}
}

func TestAuthorize_DeniedSelectIsNotFound(t *testing.T) {
	a := NewAuthorizer(&mockEvaluator{allowed: false}, nil)

	err := a.Authorize(context.Background(), member(), engine.OpSelect, "posts", true, &engine.Row{OwnerID: "other"}, "")
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("denied select kind = %v, want KindNotFound", apperr.KindOf(err))
	}
}

func TestAuthorize_DeniedWriteIsForbidden(t *testing.T) {
	a := NewAuthorizer(&mockEvaluator{allowed: false}, nil)

	err := a.Authorize(context.Background(), member(), engine.OpDelete, "posts", true, &engine.Row{OwnerID: "member-1"}, "")
	if apperr.KindOf(err) != apperr.KindForbidden {
		t.Errorf("denied write kind = %v, want KindForbidden", apperr.KindOf(err))
	}
}

func TestAuthorize_DeniedAnonymousWriteIsUnauthenticated(t *testing.T) {
	a := NewAuthorizer(&mockEvaluator{allowed: false}, nil)

	err := a.Authorize(context.Background(), Anonymous(), engine.OpInsert, "posts", true, nil, "")
	if apperr.KindOf(err) != apperr.KindUnauthenticated {
		t.Errorf("anonymous denied write kind = %v, want KindUnauthenticated", apperr.KindOf(err))
	}
}

func TestAuthorize_EvaluatorErrorDeniesTransient(t *testing.T) {
	rec := &mockRecorder{}
	a := NewAuthorizer(&mockEvaluator{err: errors.New("compile failed")}, rec)

	err := a.Authorize(context.Background(), member(), engine.OpSelect, "posts", true, nil, "")
	if err == nil {
		t.Fatal("evaluator failure must deny")
	}
	if apperr.KindOf(err) != apperr.KindTransient {
		t.Errorf("kind = %v, want KindTransient", apperr.KindOf(err))
	}
	if len(rec.outcomes) != 1 || rec.outcomes[0] != "error" {
		t.Errorf("outcomes = %v, want [error]", rec.outcomes)
	}
}

func TestAuthorize_PassesInputThrough(t *testing.T) {
	eval := &mockEvaluator{allowed: true}
	a := NewAuthorizer(eval, nil)

	_ = a.Authorize(context.Background(), member(), engine.OpUpdate, "events", true, &engine.Row{OwnerID: "member-1", IsPublished: true}, "member-2")
	if eval.last.Role != "member" || eval.last.Identity != "member-1" {
		t.Errorf("caller not passed through: %+v", eval.last)
	}
	if eval.last.Table != "events" || !eval.last.TableOwned {
		t.Errorf("table not passed through: %+v", eval.last)
	}
	if eval.last.NewOwner != "member-2" {
		t.Errorf("new owner = %q, want member-2", eval.last.NewOwner)
	}
}

func TestRequireAdmin(t *testing.T) {
	if err := RequireAdmin(Caller{Identity: "a", Role: profiledomain.RoleAdmin}); err != nil {
		t.Errorf("admin caller: %v", err)
	}
	if kind := apperr.KindOf(RequireAdmin(member())); kind != apperr.KindForbidden {
		t.Errorf("member caller kind = %v, want KindForbidden", kind)
	}
	if kind := apperr.KindOf(RequireAdmin(Anonymous())); kind != apperr.KindUnauthenticated {
		t.Errorf("anonymous caller kind = %v, want KindUnauthenticated", kind)
	}
}

func TestRequireAuthenticated(t *testing.T) {
	if err := RequireAuthenticated(member()); err != nil {
		t.Errorf("member caller: %v", err)
	}
	if kind := apperr.KindOf(RequireAuthenticated(Anonymous())); kind != apperr.KindUnauthenticated {
		t.Errorf("anonymous caller kind = %v, want KindUnauthenticated", kind)
	}
}
