package authz

import (
	"context"

	"parish-platform/internal/apperr"
	"parish-platform/internal/authz/engine"
)

// DecisionRecorder counts authorization decisions for metrics. May be nil.
type DecisionRecorder interface {
	RecordDecision(table string, op string, outcome string)
}

// Authorizer answers row-operation questions for the content tables by
// consulting the policy evaluator and mapping denials to the error taxonomy:
// denied reads of unpublished rows conceal existence (NotFound); denied
// writes are Forbidden, or Unauthenticated for anonymous callers.
type Authorizer struct {
	eval    engine.Evaluator
	metrics DecisionRecorder
}

// NewAuthorizer returns an Authorizer using the given evaluator. metrics may be nil.
func NewAuthorizer(eval engine.Evaluator, metrics DecisionRecorder) *Authorizer {
	return &Authorizer{eval: eval, metrics: metrics}
}

// Authorize decides op for caller against a row of table. row is nil for
// insert. newOwner is the owner field the caller is trying to set, or "" when
// untouched; a non-admin setting it to another identity is rejected, never
// silently rewritten. Returns nil when allowed, otherwise a tagged error.
// Evaluator failures deny with a Transient error (fail-closed).
func (a *Authorizer) Authorize(ctx context.Context, caller Caller, op engine.Operation, table string, tableOwned bool, row *engine.Row, newOwner string) error {
	allowed, err := a.eval.Allow(ctx, engine.Input{
		Role:       string(caller.Role),
		Identity:   caller.Identity,
		Operation:  op,
		Table:      table,
		TableOwned: tableOwned,
		Row:        row,
		NewOwner:   newOwner,
	})
	if err != nil {
		a.record(table, op, "error")
		return apperr.Wrap(apperr.KindTransient, "policy evaluation failed", err)
	}
	if allowed {
		a.record(table, op, "allow")
		return nil
	}
	a.record(table, op, "deny")
	return a.denial(caller, op)
}

func (a *Authorizer) denial(caller Caller, op engine.Operation) error {
	if op == engine.OpSelect {
		// Existence of an unpublished row must not leak; a denied read is
		// indistinguishable from a missing row.
		return apperr.New(apperr.KindNotFound, "row not found or not visible")
	}
	if !caller.Authenticated() {
		return apperr.New(apperr.KindUnauthenticated, "sign in required")
	}
	return apperr.New(apperr.KindForbidden, "insufficient role or ownership")
}

func (a *Authorizer) record(table string, op engine.Operation, outcome string) {
	if a.metrics != nil {
		a.metrics.RecordDecision(table, string(op), outcome)
	}
}
