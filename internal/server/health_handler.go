package server

import (
	"context"
	"database/sql"
	"net/http"
	"time"
)

// EvaluatorHealth checks the in-process policy engine.
type EvaluatorHealth interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler answers liveness probes: database reachability and policy
// engine sanity.
type HealthHandler struct {
	db   *sql.DB
	eval EvaluatorHealth
}

// NewHealthHandler returns a HealthHandler over the given dependencies.
func NewHealthHandler(db *sql.DB, eval EvaluatorHealth) *HealthHandler {
	return &HealthHandler{db: db, eval: eval}
}

// Healthz handles GET /healthz.
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{"database": "ok", "policy_engine": "ok"}
	healthy := true

	if err := h.db.PingContext(ctx); err != nil {
		checks["database"] = "unreachable"
		healthy = false
	}
	if err := h.eval.HealthCheck(ctx); err != nil {
		checks["policy_engine"] = "failed"
		healthy = false
	}

	status := http.StatusOK
	overall := "ok"
	if !healthy {
		status = http.StatusServiceUnavailable
		overall = "degraded"
	}
	respondJSON(w, status, map[string]interface{}{"status": overall, "checks": checks})
}
