package server

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"parish-platform/internal/authz"
	contentrepo "parish-platform/internal/content/repository"
	contentsvc "parish-platform/internal/content/service"
	"parish-platform/internal/server/middleware"
)

// ContentService is the guarded row surface the handler needs.
type ContentService interface {
	Get(ctx context.Context, caller authz.Caller, table, id string) (contentrepo.Row, error)
	List(ctx context.Context, caller authz.Caller, table string, q contentsvc.ListQuery) ([]contentrepo.Row, error)
	Create(ctx context.Context, caller authz.Caller, table string, payload contentrepo.Row) (contentrepo.Row, error)
	Update(ctx context.Context, caller authz.Caller, table, id string, payload contentrepo.Row) (contentrepo.Row, error)
	Delete(ctx context.Context, caller authz.Caller, table, id string) error
}

// ContentHandler serves the generic row API under /api/{table}.
type ContentHandler struct {
	content ContentService
}

// NewContentHandler returns a ContentHandler over the given service.
func NewContentHandler(content ContentService) *ContentHandler {
	return &ContentHandler{content: content}
}

// List handles GET /api/{table}.
func (h *ContentHandler) List(w http.ResponseWriter, r *http.Request) {
	caller := middleware.CallerFromContext(r.Context())
	q := contentsvc.ListQuery{
		Owner:  r.URL.Query().Get("owner"),
		Limit:  intParam(r, "limit"),
		Offset: intParam(r, "offset"),
	}
	if v := r.URL.Query().Get("published"); v != "" {
		b := v == "true"
		q.Published = &b
	}
	rows, err := h.content.List(r.Context(), caller, chi.URLParam(r, "table"), q)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"data": rows})
}

// Get handles GET /api/{table}/{id}.
func (h *ContentHandler) Get(w http.ResponseWriter, r *http.Request) {
	caller := middleware.CallerFromContext(r.Context())
	row, err := h.content.Get(r.Context(), caller, chi.URLParam(r, "table"), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, row)
}

// Create handles POST /api/{table}.
func (h *ContentHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller := middleware.CallerFromContext(r.Context())
	var payload contentrepo.Row
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, err)
		return
	}
	row, err := h.content.Create(r.Context(), caller, chi.URLParam(r, "table"), payload)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, row)
}

// Update handles PATCH /api/{table}/{id}.
func (h *ContentHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller := middleware.CallerFromContext(r.Context())
	var payload contentrepo.Row
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, err)
		return
	}
	row, err := h.content.Update(r.Context(), caller, chi.URLParam(r, "table"), chi.URLParam(r, "id"), payload)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, row)
}

// Delete handles DELETE /api/{table}/{id}.
func (h *ContentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller := middleware.CallerFromContext(r.Context())
	if err := h.content.Delete(r.Context(), caller, chi.URLParam(r, "table"), chi.URLParam(r, "id")); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func intParam(r *http.Request, name string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(name))
	return n
}
