package domain

import "time"

// AuditLog represents an audit event: an authorization decision or an
// administrative mutation. Detail is server-side only and never returned in
// a response body.
type AuditLog struct {
	ID         string
	IdentityID string
	Action     string
	Resource   string
	IP         string
	Detail     string
	CreatedAt  time.Time
}
