// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors for authorization decisions, session
// validation, profile reconciliation, and HTTP request handling.
type Metrics struct {
	registry *prometheus.Registry

	authzDecisions     *prometheus.CounterVec
	sessionValidations *prometheus.CounterVec
	reconcileRepairs   prometheus.Counter
	httpDuration       *prometheus.HistogramVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		authzDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "parish_authz_decisions_total",
			Help: "Row authorization decisions by table, operation, and outcome.",
		}, []string{"table", "op", "outcome"}),
		sessionValidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "parish_session_validations_total",
			Help: "Session token validations by outcome.",
		}, []string{"outcome"}),
		reconcileRepairs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "parish_profile_reconcile_repairs_total",
			Help: "Profiles created by the reconciliation pass.",
		}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "parish_http_request_duration_seconds",
			Help:    "HTTP request latency by method, route, and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	m.registry.MustRegister(
		m.authzDecisions,
		m.sessionValidations,
		m.reconcileRepairs,
		m.httpDuration,
	)
	return m
}

// RecordDecision counts one authorization decision.
func (m *Metrics) RecordDecision(table, op, outcome string) {
	m.authzDecisions.WithLabelValues(table, op, outcome).Inc()
}

// RecordSessionValidation counts one token validation outcome
// (valid, expired, revoked, unknown, error).
func (m *Metrics) RecordSessionValidation(outcome string) {
	m.sessionValidations.WithLabelValues(outcome).Inc()
}

// RecordReconcileRepairs counts profiles repaired by a reconciliation pass.
func (m *Metrics) RecordReconcileRepairs(n int) {
	if n > 0 {
		m.reconcileRepairs.Add(float64(n))
	}
}

// ObserveHTTPRequest records one handled request.
func (m *Metrics) ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	m.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// Handler serves the registered collectors in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
