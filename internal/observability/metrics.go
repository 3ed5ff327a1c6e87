package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels shared by the session and access metrics.
const (
	OutcomeSuccess            = "success"
	OutcomeInvalidCredentials = "invalid_credentials"
	OutcomeProfileNotFound    = "profile_not_found"
	OutcomeStorageUnavailable = "storage_unavailable"
	OutcomeRejected           = "rejected"
	OutcomeSuperseded         = "superseded"
	OutcomeError              = "error"

	DecisionAllow    = "allow"
	DecisionRedirect = "redirect"

	SyncAuthenticated   = "authenticated"
	SyncUnauthenticated = "unauthenticated"
	SyncDegraded        = "degraded"
)

// Metrics owns the service's Prometheus collectors. Every method is safe on
// a nil receiver so components can run without metrics in tests.
type Metrics struct {
	registry        *prometheus.Registry
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	errors          *prometheus.CounterVec
	logins          *prometheus.CounterVec
	logouts         prometheus.Counter
	decisions       *prometheus.CounterVec
	syncs           *prometheus.CounterVec
	observers       prometheus.Gauge
}

// NewMetrics registers collectors on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "portal_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_http_errors_total",
			Help: "HTTP error responses by route, method and error code.",
		}, []string{"route", "method", "code"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_login_attempts_total",
			Help: "Login attempts by outcome.",
		}, []string{"outcome"}),
		logouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "portal_logouts_total",
			Help: "Logouts performed.",
		}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_access_decisions_total",
			Help: "Access controller decisions by outcome.",
		}, []string{"outcome"}),
		syncs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_session_syncs_total",
			Help: "Observer re-reads of the session store by resulting state.",
		}, []string{"result"}),
		observers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "portal_session_observers",
			Help: "Live session observers.",
		}),
	}
	m.registry.MustRegister(
		m.requests, m.requestDuration, m.errors,
		m.logins, m.logouts, m.decisions, m.syncs, m.observers,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(route, method, code).Inc()
}

// RecordLogin counts a sign-in attempt by outcome.
func (m *Metrics) RecordLogin(outcome string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(outcome).Inc()
}

// RecordLogout counts a sign-out.
func (m *Metrics) RecordLogout() {
	if m == nil {
		return
	}
	m.logouts.Inc()
}

// RecordDecision counts an access decision by outcome.
func (m *Metrics) RecordDecision(outcome string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(outcome).Inc()
}

// RecordSync counts an observer re-read by resulting state.
func (m *Metrics) RecordSync(result string) {
	if m == nil {
		return
	}
	m.syncs.WithLabelValues(result).Inc()
}

// SetObservers sets the number of live session observers.
func (m *Metrics) SetObservers(n int) {
	if m == nil {
		return
	}
	m.observers.Set(float64(n))
}
