package repository

import (
	"context"

	"parish-platform/internal/identity/domain"
)

// Repository defines persistence for identities.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Identity, error)
	GetByEmail(ctx context.Context, email string) (*domain.Identity, error)
	Create(ctx context.Context, i *domain.Identity) error
	// ListWithoutProfile returns identities that have no matching profile row,
	// up to limit. Used by the reconciliation pass.
	ListWithoutProfile(ctx context.Context, limit int) ([]*domain.Identity, error)
}
