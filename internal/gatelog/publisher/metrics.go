package publisher

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Record results.
const (
	resultWritten        = "written"
	resultFailed         = "failed"
	resultDroppedFull    = "dropped_queue_full"
	resultDroppedCircuit = "dropped_circuit_open"
	resultDroppedClosed  = "dropped_closed"
)

// Metrics provides observability for the gate log publisher.
type Metrics struct {
	Records       *prometheus.CounterVec
	QueueDepth    prometheus.Gauge
	WriteDuration prometheus.Histogram
	CircuitOpen   prometheus.Gauge
}

// NewMetrics registers the publisher metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Records: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gatezero_gatelog_records_total",
			Help: "Gate log records by publish result",
		}, []string{"result"}),
		QueueDepth: f.NewGauge(prometheus.GaugeOpts{
			Name: "gatezero_gatelog_queue_depth",
			Help: "Gate log records waiting to be written",
		}),
		WriteDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "gatezero_gatelog_write_duration_seconds",
			Help:    "Duration of gate log sink writes",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 5},
		}),
		CircuitOpen: f.NewGauge(prometheus.GaugeOpts{
			Name: "gatezero_gatelog_circuit_open",
			Help: "1 while the gate log circuit breaker is open",
		}),
	}
}

func (m *Metrics) incRecord(result string) {
	if m != nil {
		m.Records.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) setQueueDepth(n int) {
	if m != nil {
		m.QueueDepth.Set(float64(n))
	}
}

func (m *Metrics) observeWrite(d time.Duration) {
	if m != nil {
		m.WriteDuration.Observe(d.Seconds())
	}
}

func (m *Metrics) setCircuitOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.CircuitOpen.Set(1)
		return
	}
	m.CircuitOpen.Set(0)
}
