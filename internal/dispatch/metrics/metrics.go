package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the dispatch module.
type Metrics struct {
	// Reference data lookup latencies by source
	EvidenceLatency *prometheus.HistogramVec

	// Verdicts by outcome ("approved", "warning", "blocked") and path
	VerificationOutcome *prometheus.CounterVec

	// Check statuses by check name
	CheckStatus *prometheus.CounterVec

	// Overall verification latency
	VerifyLatency prometheus.Histogram

	// Dispatch tokens issued
	TokensIssued prometheus.Counter
}

// New creates a new Metrics instance registered with the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the dispatch metrics on reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		EvidenceLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gatezero_dispatch_evidence_duration_seconds",
			Help:    "Duration of reference data lookups by source",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"source"}), // source: "vehicle", "driver", "tax_status"

		VerificationOutcome: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gatezero_dispatch_verifications_total",
			Help: "Total verifications by outcome and path",
		}, []string{"outcome", "path"}), // path: "battery", "blacklist", "not_found", "unavailable", "cancelled"

		CheckStatus: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gatezero_dispatch_checks_total",
			Help: "Total check results by check name and status",
		}, []string{"check", "status"}),

		VerifyLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "gatezero_dispatch_verify_duration_seconds",
			Help:    "Duration of full verification including reference data lookups",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),

		TokensIssued: f.NewCounter(prometheus.CounterOpts{
			Name: "gatezero_dispatch_tokens_issued_total",
			Help: "Total dispatch tokens issued for approved vehicles",
		}),
	}
}

// ObserveEvidenceLatency records the duration of a reference data lookup.
func (m *Metrics) ObserveEvidenceLatency(source string, d time.Duration) {
	if m != nil {
		m.EvidenceLatency.WithLabelValues(source).Observe(d.Seconds())
	}
}

// IncrementOutcome records a verification outcome.
func (m *Metrics) IncrementOutcome(outcome, path string) {
	if m != nil {
		m.VerificationOutcome.WithLabelValues(outcome, path).Inc()
	}
}

// IncrementCheck records one check result.
func (m *Metrics) IncrementCheck(check, status string) {
	if m != nil {
		m.CheckStatus.WithLabelValues(check, status).Inc()
	}
}

// ObserveVerifyLatency records the total verification duration.
func (m *Metrics) ObserveVerifyLatency(d time.Duration) {
	if m != nil {
		m.VerifyLatency.Observe(d.Seconds())
	}
}

// IncrementTokensIssued records an issued dispatch token.
func (m *Metrics) IncrementTokensIssued() {
	if m != nil {
		m.TokensIssued.Inc()
	}
}
