package metric

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "fintrackr"
	subsystem = "session"
)

// Revocation reasons.
const (
	ReasonUser    = "user"
	ReasonBulk    = "revoke_all"
	ReasonEvicted = "evicted"
	ReasonExpired = "expired"
	ReasonCleanup = "cleanup"
)

// Validation results.
const (
	ResultValid    = "valid"
	ResultInactive = "inactive"
	ResultExpired  = "expired"
	ResultNotFound = "not_found"
	ResultError    = "error"
)

// NewRegistry returns a registry preloaded with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler returns the /metrics handler for reg.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// SessionMetrics tracks session lifecycle and cleanup activity.
type SessionMetrics struct {
	Created         prometheus.Counter
	Revoked         *prometheus.CounterVec
	Validations     *prometheus.CounterVec
	Alerts          *prometheus.CounterVec
	CleanupRuns     prometheus.Counter
	CleanupFailures prometheus.Counter
	CleanupRevoked  prometheus.Counter
	CleanupDuration prometheus.Histogram
}

// NewSessionMetrics creates the session metrics and registers them with reg.
func NewSessionMetrics(reg prometheus.Registerer) *SessionMetrics {
	f := promauto.With(reg)
	return &SessionMetrics{
		Created: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "created_total",
			Help:      "Total number of sessions created",
		}),
		Revoked: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "revoked_total",
			Help:      "Total number of sessions revoked, by reason",
		}, []string{"reason"}),
		Validations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "validations_total",
			Help:      "Total number of session validity checks, by result",
		}, []string{"result"}),
		Alerts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "alerts_total",
			Help:      "Total number of suspicious-activity alerts raised, by type",
		}, []string{"type"}),
		CleanupRuns: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "cleanup_runs_total",
			Help:      "Total number of cleanup passes",
		}),
		CleanupFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "cleanup_failures_total",
			Help:      "Total number of cleanup passes that returned an error",
		}),
		CleanupRevoked: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "cleanup_revoked_total",
			Help:      "Total number of expired sessions revoked by cleanup passes",
		}),
		CleanupDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "cleanup_duration_seconds",
			Help:      "Duration of cleanup passes",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		}),
	}
}

// IncCreated records a created session.
func (m *SessionMetrics) IncCreated() {
	if m == nil {
		return
	}
	m.Created.Inc()
}

// AddRevoked records n revocations for reason.
func (m *SessionMetrics) AddRevoked(reason string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.Revoked.WithLabelValues(reason).Add(float64(n))
}

// IncValidation records the outcome of a validity check.
func (m *SessionMetrics) IncValidation(result string) {
	if m == nil {
		return
	}
	m.Validations.WithLabelValues(result).Inc()
}

// IncAlert records a raised alert.
func (m *SessionMetrics) IncAlert(alertType string) {
	if m == nil {
		return
	}
	m.Alerts.WithLabelValues(alertType).Inc()
}

// ObserveCleanup records a finished cleanup pass.
func (m *SessionMetrics) ObserveCleanup(revoked int, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.CleanupRuns.Inc()
	if err != nil {
		m.CleanupFailures.Inc()
	}
	if revoked > 0 {
		m.CleanupRevoked.Add(float64(revoked))
	}
	m.CleanupDuration.Observe(elapsed.Seconds())
}
