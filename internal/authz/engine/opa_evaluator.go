package engine

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"

	policydomain "parish-platform/internal/policy/domain"
)

const policyQuery = "data.parish.rowpolicy.allow"

// DefaultRegoPolicy is the canonical row-authorization decision table.
// Per-table policies stored in the policies table specialize it; when a
// table has no enabled policy this module decides.
const DefaultRegoPolicy = `package parish.rowpolicy

default allow = false

allow if {
	input.role == "admin"
}

allow if {
	input.operation == "select"
	input.row.is_published
}

allow if {
	input.operation == "select"
	input.role == "member"
	input.table_owned
	input.row.owner_id == input.identity
}

allow if {
	input.operation == "insert"
	input.role == "member"
	input.table_owned
	not owner_mismatch
}

allow if {
	input.operation == "update"
	input.role == "member"
	input.table_owned
	input.row.owner_id == input.identity
	not owner_mismatch
}

owner_mismatch if {
	input.new_owner != ""
	input.new_owner != input.identity
}
`

// PolicySource loads the stored policy for a table. Nil result means no
// stored policy; the default module applies.
type PolicySource interface {
	GetByTable(ctx context.Context, tableName string) (*policydomain.Policy, error)
}

// OPAEvaluator evaluates row-authorization policies using OPA Rego.
type OPAEvaluator struct {
	policies PolicySource
}

// NewOPAEvaluator returns an OPA-based policy evaluator. policies may be nil;
// then only the default decision table is used.
func NewOPAEvaluator(policies PolicySource) *OPAEvaluator {
	return &OPAEvaluator{policies: policies}
}

// Allow evaluates the stored policy for the table, falling back to the
// default decision table when none is enabled. Any load, compile, or eval
// failure returns an error; callers deny on error.
func (e *OPAEvaluator) Allow(ctx context.Context, in Input) (bool, error) {
	rules := DefaultRegoPolicy
	if e.policies != nil {
		p, err := e.policies.GetByTable(ctx, in.Table)
		if err != nil {
			return false, fmt.Errorf("load policy for %s: %w", in.Table, err)
		}
		if p != nil && p.Enabled && p.Rules != "" {
			rules = p.Rules
		}
	}
	return e.evaluate(ctx, rules, buildInput(in))
}

// CompileCheck compiles rules and evaluates them against a minimal input.
// Used to validate a policy before it is stored. Returns nil when the rules
// are usable.
func (e *OPAEvaluator) CompileCheck(ctx context.Context, rules string) error {
	_, err := e.evaluate(ctx, rules, buildInput(Input{
		Role:      "anonymous",
		Operation: OpSelect,
		Table:     "posts",
	}))
	return err
}

// HealthCheck verifies that the in-process Rego engine can compile and
// evaluate the default decision table. Does not touch the policy store.
func (e *OPAEvaluator) HealthCheck(ctx context.Context) error {
	return e.CompileCheck(ctx, DefaultRegoPolicy)
}

func (e *OPAEvaluator) evaluate(ctx context.Context, rules string, input map[string]interface{}) (bool, error) {
	compiler, err := ast.CompileModules(map[string]string{"policy_0.rego": rules})
	if err != nil {
		return false, fmt.Errorf("compile policy: %w", err)
	}
	q := rego.New(
		rego.Query(policyQuery),
		rego.Compiler(compiler),
		rego.Input(input),
	)
	rs, err := q.Eval(ctx)
	if err != nil {
		return false, fmt.Errorf("eval policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return false, fmt.Errorf("policy query returned no result")
	}
	allowed, ok := rs[0].Expressions[0].Value.(bool)
	if !ok {
		return false, fmt.Errorf("policy allow is not a boolean")
	}
	return allowed, nil
}

func buildInput(in Input) map[string]interface{} {
	row := map[string]interface{}{
		"owner_id":     "",
		"is_published": false,
	}
	if in.Row != nil {
		row["owner_id"] = in.Row.OwnerID
		row["is_published"] = in.Row.IsPublished
	}
	return map[string]interface{}{
		"role":        in.Role,
		"identity":    in.Identity,
		"operation":   string(in.Operation),
		"table":       in.Table,
		"table_owned": in.TableOwned,
		"row":         row,
		"new_owner":   in.NewOwner,
	}
}

var _ Evaluator = (*OPAEvaluator)(nil)
