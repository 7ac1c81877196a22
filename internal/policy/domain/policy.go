package domain

import "time"

// Policy is a versioned row-authorization policy for one content table,
// expressed as a Rego module. When enabled, it replaces the built-in
// decision table for that table; when disabled or absent, the default
// applies. Versions increment on every change so the active policy shape is
// always explicit data, never a hand-applied patch.
type Policy struct {
	ID        string
	TableName string
	Version   int
	Rules     string
	Enabled   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
