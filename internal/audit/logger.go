package audit

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"parish-platform/internal/audit/domain"
	auditrepo "parish-platform/internal/audit/repository"
)

// SentinelIdentity is the identity_id used for audit events with no caller
// identity (e.g. anonymous denials, failed logins).
const SentinelIdentity = "_anonymous"

// IPExtractor returns the client IP from the request context.
type IPExtractor func(context.Context) string

// AuditLogger writes a single audit event with explicit action/resource.
// LogEvent is best-effort: failures are logged and do not affect the caller.
type AuditLogger interface {
	LogEvent(ctx context.Context, identityID, action, resource, detail string)
}

// Logger implements AuditLogger using the audit repository and an optional IP extractor.
type Logger struct {
	repo        auditrepo.Repository
	ipExtractor IPExtractor
}

// NewLogger returns an AuditLogger that persists to repo and uses ipExtractor for client IP.
// ipExtractor may be nil; then IP is recorded as "unknown".
func NewLogger(repo auditrepo.Repository, ipExtractor IPExtractor) *Logger {
	return &Logger{repo: repo, ipExtractor: ipExtractor}
}

// LogEvent writes one audit log entry. Best-effort: errors are logged and not returned.
func (l *Logger) LogEvent(ctx context.Context, identityID, action, resource, detail string) {
	if l.repo == nil {
		return
	}
	ip := "unknown"
	if l.ipExtractor != nil {
		ip = l.ipExtractor(ctx)
	}
	if identityID == "" {
		identityID = SentinelIdentity
	}
	entry := &domain.AuditLog{
		ID:         uuid.New().String(),
		IdentityID: identityID,
		Action:     action,
		Resource:   resource,
		IP:         ip,
		Detail:     detail,
		CreatedAt:  time.Now().UTC(),
	}
	if err := l.repo.Create(ctx, entry); err != nil {
		log.Printf("audit: failed to log event %s/%s: %v", action, resource, err)
	}
}
