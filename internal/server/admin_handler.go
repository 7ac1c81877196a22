package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"parish-platform/internal/apperr"
	"parish-platform/internal/audit"
	auditdomain "parish-platform/internal/audit/domain"
	auditrepo "parish-platform/internal/audit/repository"
	"parish-platform/internal/authz"
	policydomain "parish-platform/internal/policy/domain"
	policyrepo "parish-platform/internal/policy/repository"
	profiledomain "parish-platform/internal/profile/domain"
	profilerepo "parish-platform/internal/profile/repository"
	"parish-platform/internal/server/middleware"
)

// PolicyChecker validates candidate policy rules before they are stored.
type PolicyChecker interface {
	CompileCheck(ctx context.Context, rules string) error
}

// SessionRevoker revokes every live session of an identity. Used when a
// profile is deactivated so the lockout takes effect immediately instead of
// at next role resolution.
type SessionRevoker interface {
	RevokeAllByIdentity(ctx context.Context, identityID string) error
}

// Reconciler repairs missing profiles on demand.
type Reconciler interface {
	Reconcile(ctx context.Context) (int, error)
}

// AdminHandler serves the admin-only surface: profile role management,
// policy management, reconciliation, and audit log reads. Every method
// requires an admin caller; role checks happen here, not in middleware, so
// denials flow through the shared error mapping.
type AdminHandler struct {
	profiles   profilerepo.Repository
	policies   policyrepo.Repository
	auditRepo  auditrepo.Repository
	sessions   SessionRevoker
	checker    PolicyChecker
	reconciler Reconciler
	audit      audit.AuditLogger
}

// NewAdminHandler returns an AdminHandler over the given stores.
func NewAdminHandler(
	profiles profilerepo.Repository,
	policies policyrepo.Repository,
	auditRepo auditrepo.Repository,
	sessions SessionRevoker,
	checker PolicyChecker,
	reconciler Reconciler,
	auditLogger audit.AuditLogger,
) *AdminHandler {
	return &AdminHandler{
		profiles:   profiles,
		policies:   policies,
		auditRepo:  auditRepo,
		sessions:   sessions,
		checker:    checker,
		reconciler: reconciler,
		audit:      auditLogger,
	}
}

func (h *AdminHandler) requireAdmin(w http.ResponseWriter, r *http.Request) (authz.Caller, bool) {
	caller := middleware.CallerFromContext(r.Context())
	if err := authz.RequireAdmin(caller); err != nil {
		respondError(w, err)
		return caller, false
	}
	return caller, true
}

type profileResponse struct {
	IdentityID  string    `json:"identity_id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ListProfiles handles GET /api/admin/profiles.
func (h *AdminHandler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}
	limit := intParam(r, "limit")
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	profiles, err := h.profiles.List(r.Context(), limit, intParam(r, "offset"))
	if err != nil {
		respondError(w, apperr.Wrap(apperr.KindTransient, "profile list failed", err))
		return
	}
	out := make([]profileResponse, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, toProfileResponse(p))
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"data": out})
}

type updateProfileRequest struct {
	Role     string `json:"role"`
	IsActive *bool  `json:"is_active"`
}

// UpdateProfile handles PATCH /api/admin/profiles/{identityID}: sets role
// and active status. This is the only write path for either field.
func (h *AdminHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}
	identityID := chi.URLParam(r, "identityID")

	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	existing, err := h.profiles.GetByIdentity(r.Context(), identityID)
	if err != nil {
		respondError(w, apperr.Wrap(apperr.KindTransient, "profile lookup failed", err))
		return
	}
	if existing == nil {
		respondError(w, apperr.New(apperr.KindNotFound, "profile not found"))
		return
	}

	role := existing.Role
	if req.Role != "" {
		role = profiledomain.Role(req.Role)
		if !profiledomain.StorableRole(role) {
			respondError(w, apperr.New(apperr.KindInvalid, "role must be member or admin"))
			return
		}
	}
	wasActive := existing.IsActive
	isActive := wasActive
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	updated, err := h.profiles.UpdateRoleStatus(r.Context(), identityID, role, isActive)
	if err != nil {
		respondError(w, apperr.Wrap(apperr.KindTransient, "profile update failed", err))
		return
	}
	if updated == nil {
		respondError(w, apperr.New(apperr.KindNotFound, "profile not found"))
		return
	}
	if wasActive && !updated.IsActive && h.sessions != nil {
		// Deactivation kills live sessions immediately; role resolution would
		// deny anyway, this just stops valid tokens from lingering.
		if err := h.sessions.RevokeAllByIdentity(r.Context(), identityID); err != nil {
			log.Printf("admin: session revocation for deactivated %s failed: %v", identityID, err)
		}
	}
	h.audit.LogEvent(r.Context(), caller.Identity, "profile_update", "profile/"+identityID,
		"role="+string(updated.Role))
	respondJSON(w, http.StatusOK, toProfileResponse(updated))
}

type policyResponse struct {
	TableName string    `json:"table_name"`
	Version   int       `json:"version"`
	Rules     string    `json:"rules"`
	Enabled   bool      `json:"enabled"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListPolicies handles GET /api/admin/policies.
func (h *AdminHandler) ListPolicies(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}
	policies, err := h.policies.List(r.Context())
	if err != nil {
		respondError(w, apperr.Wrap(apperr.KindTransient, "policy list failed", err))
		return
	}
	out := make([]policyResponse, 0, len(policies))
	for _, p := range policies {
		out = append(out, toPolicyResponse(p))
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"data": out})
}

type upsertPolicyRequest struct {
	Rules string `json:"rules"`
}

// UpsertPolicy handles PUT /api/admin/policies/{table}: validates the rules
// compile and evaluate, then stores them as the table's enabled policy.
func (h *AdminHandler) UpsertPolicy(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}
	table := chi.URLParam(r, "table")

	var req upsertPolicyRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if req.Rules == "" {
		respondError(w, apperr.New(apperr.KindInvalid, "rules must not be empty"))
		return
	}
	if err := h.checker.CompileCheck(r.Context(), req.Rules); err != nil {
		respondError(w, apperr.Wrap(apperr.KindInvalid, "policy rules do not compile", err))
		return
	}
	p, err := h.policies.Upsert(r.Context(), table, req.Rules)
	if err != nil {
		respondError(w, apperr.Wrap(apperr.KindTransient, "policy upsert failed", err))
		return
	}
	h.audit.LogEvent(r.Context(), caller.Identity, "policy_upsert", "policy/"+table, "")
	respondJSON(w, http.StatusOK, toPolicyResponse(p))
}

type setPolicyEnabledRequest struct {
	Enabled bool `json:"enabled"`
}

// SetPolicyEnabled handles PATCH /api/admin/policies/{table}: toggles the
// stored policy. A disabled policy falls back to the default decision table.
func (h *AdminHandler) SetPolicyEnabled(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}
	table := chi.URLParam(r, "table")

	var req setPolicyEnabledRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := h.policies.SetEnabled(r.Context(), table, req.Enabled); err != nil {
		respondError(w, apperr.Wrap(apperr.KindTransient, "policy toggle failed", err))
		return
	}
	action := "policy_disable"
	if req.Enabled {
		action = "policy_enable"
	}
	h.audit.LogEvent(r.Context(), caller.Identity, action, "policy/"+table, "")
	respondJSON(w, http.StatusNoContent, nil)
}

// Reconcile handles POST /api/admin/reconcile: runs one profile repair pass
// and reports how many profiles were created.
func (h *AdminHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}
	repaired, err := h.reconciler.Reconcile(r.Context())
	if err != nil {
		respondError(w, apperr.Wrap(apperr.KindTransient, "reconciliation failed", err))
		return
	}
	h.audit.LogEvent(r.Context(), caller.Identity, "reconcile", "profiles", "")
	respondJSON(w, http.StatusOK, map[string]int{"repaired": repaired})
}

type auditLogResponse struct {
	ID         string    `json:"id"`
	IdentityID string    `json:"identity_id"`
	Action     string    `json:"action"`
	Resource   string    `json:"resource"`
	IP         string    `json:"ip"`
	Detail     string    `json:"detail,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// ListAuditLogs handles GET /api/admin/audit.
func (h *AdminHandler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}
	limit := intParam(r, "limit")
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	logs, err := h.auditRepo.ListRecent(r.Context(), limit)
	if err != nil {
		respondError(w, apperr.Wrap(apperr.KindTransient, "audit list failed", err))
		return
	}
	out := make([]auditLogResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, toAuditLogResponse(l))
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"data": out})
}

func toProfileResponse(p *profiledomain.Profile) profileResponse {
	return profileResponse{
		IdentityID:  p.IdentityID,
		DisplayName: p.DisplayName,
		Email:       p.Email,
		Role:        string(p.Role),
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toPolicyResponse(p *policydomain.Policy) policyResponse {
	return policyResponse{
		TableName: p.TableName,
		Version:   p.Version,
		Rules:     p.Rules,
		Enabled:   p.Enabled,
		UpdatedAt: p.UpdatedAt,
	}
}

func toAuditLogResponse(l *auditdomain.AuditLog) auditLogResponse {
	return auditLogResponse{
		ID:         l.ID,
		IdentityID: l.IdentityID,
		Action:     l.Action,
		Resource:   l.Resource,
		IP:         l.IP,
		Detail:     l.Detail,
		CreatedAt:  l.CreatedAt,
	}
}
