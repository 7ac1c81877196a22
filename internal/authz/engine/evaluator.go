package engine

import "context"

// Operation is one of the four row operations a policy decides on.
type Operation string

const (
	OpSelect Operation = "select"
	OpInsert Operation = "insert"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Row carries the policy-relevant fields of the row being accessed or written.
type Row struct {
	OwnerID     string
	IsPublished bool
}

// Input describes one row-operation authorization question.
type Input struct {
	// Role is the caller's resolved role (anonymous, member, admin).
	Role string
	// Identity is the caller's identity, or "" for anonymous.
	Identity string
	// Operation is the row operation being attempted.
	Operation Operation
	// Table is the content table name.
	Table string
	// TableOwned is false for tables with no owner concept; "allow if owner"
	// collapses to deny for non-admins on such tables.
	TableOwned bool
	// Row is the existing row; nil for insert.
	Row *Row
	// NewOwner is the owner the caller is trying to set on insert/update,
	// or "" when the owner field is untouched.
	NewOwner string
}

// Evaluator decides row-authorization questions using Rego or other engines.
type Evaluator interface {
	// Allow returns whether the operation is permitted. An error means the
	// question could not be decided (bad policy, store failure); callers must
	// treat it as a denial.
	Allow(ctx context.Context, in Input) (bool, error)
}
