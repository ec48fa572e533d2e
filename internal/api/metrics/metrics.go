// Package metrics defines the custom Prometheus metrics of the driver
// directory API. It is the single source of truth for metric names, labels,
// and help strings.
//
// Build one Metrics per registry with New at startup and hand it to the
// services and middleware that record into it.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/fretemais/driver-directory/internal/core/domain"
)

const namespace = "directory"

// Token rejection reasons.
const (
	ReasonMissing = "missing"
	ReasonInvalid = "invalid"
)

type Metrics struct {
	// ── Driver metrics ──────────────────────────────────────────────────────

	driversCreated prometheus.Counter
	driversUpdated prometheus.Counter
	driversDeleted prometheus.Counter

	// duplicateRejections counts writes refused for a unique collision.
	// Label:
	//   - field: "email", "taxId" or "licenseNumber"
	duplicateRejections *prometheus.CounterVec

	listDuration prometheus.Histogram

	// ── Auth metrics ────────────────────────────────────────────────────────

	// loginAttempts label:
	//   - result: "success" or "failure"
	loginAttempts *prometheus.CounterVec

	// tokenRejections label:
	//   - reason: "missing" (no bearer header) or "invalid" (bad, forged or expired)
	tokenRejections *prometheus.CounterVec
}

// New creates every metric and registers it with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		driversCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "drivers_created_total",
			Help:      "Total number of drivers registered.",
		}),
		driversUpdated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "drivers_updated_total",
			Help:      "Total number of driver updates applied.",
		}),
		driversDeleted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "drivers_deleted_total",
			Help:      "Total number of drivers removed.",
		}),
		duplicateRejections: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicate_rejections_total",
			Help:      "Total number of writes rejected because a unique field was already registered.",
		}, []string{"field"}),
		listDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "driver_list_duration_seconds",
			Help:      "Duration of driver list queries, filter compilation included.",
			Buckets:   prometheus.DefBuckets,
		}),
		loginAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "Total number of login attempts, by result.",
		}, []string{"result"}),
		tokenRejections: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_rejections_total",
			Help:      "Total number of requests refused by the bearer token gate, by reason.",
		}, []string{"reason"}),
	}
}

func (m *Metrics) DriverCreated() { m.driversCreated.Inc() }
func (m *Metrics) DriverUpdated() { m.driversUpdated.Inc() }
func (m *Metrics) DriverDeleted() { m.driversDeleted.Inc() }

func (m *Metrics) DuplicateRejected(field domain.UniqueField) {
	m.duplicateRejections.WithLabelValues(string(field)).Inc()
}

func (m *Metrics) ListServed(elapsed time.Duration) {
	m.listDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) LoginAttempt(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	m.loginAttempts.WithLabelValues(result).Inc()
}

// TokenRejected records a request refused by the auth gate.
func (m *Metrics) TokenRejected(reason string) {
	m.tokenRejections.WithLabelValues(reason).Inc()
}

// DuplicateCounter exposes the per-field duplicate counter, mainly for tests.
func (m *Metrics) DuplicateCounter(field string) prometheus.Counter {
	return m.duplicateRejections.WithLabelValues(field)
}

// TokenRejectionCounter exposes the per-reason rejection counter, mainly for tests.
func (m *Metrics) TokenRejectionCounter(reason string) prometheus.Counter {
	return m.tokenRejections.WithLabelValues(reason)
}
