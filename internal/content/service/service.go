package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"parish-platform/internal/apperr"
	"parish-platform/internal/audit"
	"parish-platform/internal/authz"
	"parish-platform/internal/authz/engine"
	"parish-platform/internal/content"
	contentrepo "parish-platform/internal/content/repository"
	profiledomain "parish-platform/internal/profile/domain"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100
)

// ListQuery holds the optional filters of a list request.
type ListQuery struct {
	Published *bool
	Owner     string
	Limit     int
	Offset    int
}

// Service is the guarded content surface: every operation passes through the
// row authorization policies; denials are audited.
type Service struct {
	repo       contentrepo.Repository
	authorizer *authz.Authorizer
	audit      audit.AuditLogger
}

// NewService returns a content service over the given row store and authorizer.
func NewService(repo contentrepo.Repository, authorizer *authz.Authorizer, auditLogger audit.AuditLogger) *Service {
	return &Service{repo: repo, authorizer: authorizer, audit: auditLogger}
}

// Get returns the row if the caller may see it. Unknown tables, missing
// rows, and rows the caller may not see all surface as NotFound.
func (s *Service) Get(ctx context.Context, caller authz.Caller, tableName, id string) (contentrepo.Row, error) {
	t, ok := content.Lookup(tableName)
	if !ok {
		return nil, apperr.New(apperr.KindNotFound, "unknown table")
	}
	row, err := s.repo.Get(ctx, t, id)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "row lookup failed", err)
	}
	if row == nil {
		return nil, apperr.New(apperr.KindNotFound, "row not found")
	}
	if err := s.authorizer.Authorize(ctx, caller, engine.OpSelect, t.Name, t.Owned, rowMeta(t, row), ""); err != nil {
		s.logDenial(ctx, caller, "select", t.Name, id, err)
		return nil, err
	}
	return row, nil
}

// List returns the rows the caller may see: published rows for everyone,
// plus the caller's own unpublished rows for members, plus everything for
// admins. The visibility clause is the bulk form of the select policy.
func (s *Service) List(ctx context.Context, caller authz.Caller, tableName string, q ListQuery) ([]contentrepo.Row, error) {
	t, ok := content.Lookup(tableName)
	if !ok {
		return nil, apperr.New(apperr.KindNotFound, "unknown table")
	}
	f := contentrepo.Filter{
		Owner:     q.Owner,
		Published: q.Published,
		Limit:     pageSize(q.Limit),
		Offset:    max0(q.Offset),
	}
	switch caller.Role {
	case profiledomain.RoleAdmin:
		f.AllRows = true
	case profiledomain.RoleMember:
		f.VisibleTo = caller.Identity
	}
	rows, err := s.repo.List(ctx, t, f)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "row list failed", err)
	}
	return rows, nil
}

// Create inserts a row. For owned tables the owner defaults to the caller;
// a non-admin naming any other identity as owner is rejected, not rewritten.
func (s *Service) Create(ctx context.Context, caller authz.Caller, tableName string, payload contentrepo.Row) (contentrepo.Row, error) {
	t, ok := content.Lookup(tableName)
	if !ok {
		return nil, apperr.New(apperr.KindNotFound, "unknown table")
	}
	values, newOwner, err := sanitize(t, payload)
	if err != nil {
		return nil, err
	}
	if t.Owned && newOwner == "" {
		newOwner = caller.Identity
	}
	if err := s.authorizer.Authorize(ctx, caller, engine.OpInsert, t.Name, t.Owned, nil, newOwner); err != nil {
		s.logDenial(ctx, caller, "insert", t.Name, "", err)
		return nil, err
	}
	if t.Owned && newOwner != "" {
		values["owner_id"] = newOwner
	}
	row, err := s.repo.Insert(ctx, t, uuid.New().String(), values)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "row insert failed", err)
	}
	s.audit.LogEvent(ctx, caller.Identity, "insert", resource(t.Name, rowID(row)), "")
	return row, nil
}

// Update applies payload to the row with id. Missing rows surface as
// NotFound; denied updates as Forbidden (Unauthenticated for anonymous).
func (s *Service) Update(ctx context.Context, caller authz.Caller, tableName, id string, payload contentrepo.Row) (contentrepo.Row, error) {
	t, ok := content.Lookup(tableName)
	if !ok {
		return nil, apperr.New(apperr.KindNotFound, "unknown table")
	}
	values, newOwner, err := sanitize(t, payload)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 && newOwner == "" {
		return nil, apperr.New(apperr.KindInvalid, "no writable columns in payload")
	}
	existing, err := s.repo.Get(ctx, t, id)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "row lookup failed", err)
	}
	if existing == nil {
		return nil, apperr.New(apperr.KindNotFound, "row not found")
	}
	if err := s.authorizer.Authorize(ctx, caller, engine.OpUpdate, t.Name, t.Owned, rowMeta(t, existing), newOwner); err != nil {
		s.logDenial(ctx, caller, "update", t.Name, id, err)
		return nil, err
	}
	if newOwner != "" {
		values["owner_id"] = newOwner
	}
	row, err := s.repo.Update(ctx, t, id, values)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "row update failed", err)
	}
	if row == nil {
		return nil, apperr.New(apperr.KindNotFound, "row not found")
	}
	s.audit.LogEvent(ctx, caller.Identity, "update", resource(t.Name, id), "")
	return row, nil
}

// Delete removes the row with id. Admin-only under the default policy.
func (s *Service) Delete(ctx context.Context, caller authz.Caller, tableName, id string) error {
	t, ok := content.Lookup(tableName)
	if !ok {
		return apperr.New(apperr.KindNotFound, "unknown table")
	}
	existing, err := s.repo.Get(ctx, t, id)
	if err != nil {
		return apperr.Wrap(apperr.KindTransient, "row lookup failed", err)
	}
	if existing == nil {
		return apperr.New(apperr.KindNotFound, "row not found")
	}
	if err := s.authorizer.Authorize(ctx, caller, engine.OpDelete, t.Name, t.Owned, rowMeta(t, existing), ""); err != nil {
		s.logDenial(ctx, caller, "delete", t.Name, id, err)
		return err
	}
	deleted, err := s.repo.Delete(ctx, t, id)
	if err != nil {
		return apperr.Wrap(apperr.KindTransient, "row delete failed", err)
	}
	if !deleted {
		return apperr.New(apperr.KindNotFound, "row not found")
	}
	s.audit.LogEvent(ctx, caller.Identity, "delete", resource(t.Name, id), "")
	return nil
}

// sanitize restricts payload to writable columns and extracts the requested
// owner. Unknown columns are rejected so callers never see silent drops.
func sanitize(t content.Table, payload contentrepo.Row) (contentrepo.Row, string, error) {
	values := contentrepo.Row{}
	newOwner := ""
	for name, v := range payload {
		if name == "owner_id" {
			if !t.Owned {
				return nil, "", apperr.New(apperr.KindInvalid, "table has no owner column")
			}
			s, ok := v.(string)
			if !ok || s == "" {
				return nil, "", apperr.New(apperr.KindInvalid, "owner_id must be a non-empty string")
			}
			newOwner = s
			continue
		}
		if !t.WritableColumn(name) {
			return nil, "", apperr.New(apperr.KindInvalid, fmt.Sprintf("unknown column %q", name))
		}
		if name == "is_published" {
			if _, ok := v.(bool); !ok {
				return nil, "", apperr.New(apperr.KindInvalid, "is_published must be a boolean")
			}
		}
		values[name] = v
	}
	return values, newOwner, nil
}

// rowMeta extracts the policy-relevant fields of a stored row.
func rowMeta(t content.Table, row contentrepo.Row) *engine.Row {
	m := &engine.Row{}
	if t.Owned {
		if s, ok := row["owner_id"].(string); ok {
			m.OwnerID = s
		}
	}
	if b, ok := row["is_published"].(bool); ok {
		m.IsPublished = b
	}
	return m
}

func (s *Service) logDenial(ctx context.Context, caller authz.Caller, op, table, id string, err error) {
	s.audit.LogEvent(ctx, caller.Identity, "deny", resource(table, id), fmt.Sprintf("%s: %s", op, apperr.KindOf(err)))
}

func resource(table, id string) string {
	if id == "" {
		return table
	}
	return table + "/" + id
}

func rowID(row contentrepo.Row) string {
	if s, ok := row["id"].(string); ok {
		return s
	}
	return ""
}

func pageSize(n int) int {
	if n <= 0 {
		return defaultPageSize
	}
	if n > maxPageSize {
		return maxPageSize
	}
	return n
}

func max0(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
