package repository

import (
	"context"

	"parish-platform/internal/content"
)

// Row is one content row as a JSON object with named columns.
type Row map[string]interface{}

// Filter narrows a List to the rows the caller may see plus any explicit
// query filters. Visibility is decided by the service from the caller's
// role; the store only applies it.
type Filter struct {
	// AllRows disables the visibility clause (admin callers).
	AllRows bool
	// VisibleTo widens visibility from published-only to published-or-owned
	// for the given identity. Ignored for tables with no owner.
	VisibleTo string
	// Owner filters to rows owned by the given identity.
	Owner string
	// Published filters on is_published when non-nil.
	Published *bool
	Limit     int
	Offset    int
}

// Repository defines persistence for content rows.
type Repository interface {
	Get(ctx context.Context, t content.Table, id string) (Row, error)
	List(ctx context.Context, t content.Table, f Filter) ([]Row, error)
	Insert(ctx context.Context, t content.Table, id string, values Row) (Row, error)
	Update(ctx context.Context, t content.Table, id string, values Row) (Row, error)
	Delete(ctx context.Context, t content.Table, id string) (bool, error)
}
