package repository

import (
	"context"

	"parish-platform/internal/policy/domain"
)

// Repository defines persistence for row-authorization policies.
type Repository interface {
	GetByTable(ctx context.Context, tableName string) (*domain.Policy, error)
	List(ctx context.Context) ([]*domain.Policy, error)
	// Upsert stores rules for the table, incrementing version on change and
	// re-enabling the policy. Returns the stored policy.
	Upsert(ctx context.Context, tableName, rules string) (*domain.Policy, error)
	SetEnabled(ctx context.Context, tableName string, enabled bool) error
}
