package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the punch clock.
type Metrics struct {
	// Registry owns these metrics; /metrics serves it.
	Registry *prometheus.Registry

	punches         *prometheus.CounterVec
	persistErrors   prometheus.Counter
	bankBalance     prometheus.Gauge
	ledgerRecords   prometheus.Gauge
	requestDuration *prometheus.HistogramVec
}

// NewMetrics registers all collectors in a private registry, so it can be
// called more than once (tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		punches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "punch_punches_total",
				Help: "Total punches recorded, by kind.",
			},
			[]string{"kind"},
		),
		persistErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "punch_persist_errors_total",
				Help: "Total failed snapshot writes.",
			},
		),
		bankBalance: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "punch_bank_balance_minutes",
				Help: "Current banked-hours balance in minutes.",
			},
		),
		ledgerRecords: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "punch_ledger_records",
				Help: "Number of dated records in the ledger.",
			},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "punch_http_request_duration_seconds",
				Help:    "Duration of HTTP requests by route.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}
}

// IncrPunch counts a recorded punch.
func (m *Metrics) IncrPunch(kind string) {
	m.punches.WithLabelValues(kind).Inc()
}

// IncrPersistError counts a failed snapshot write.
func (m *Metrics) IncrPersistError() {
	m.persistErrors.Inc()
}

// SetLedger publishes the current balance and record count.
func (m *Metrics) SetLedger(balanceMinutes, records int) {
	m.bankBalance.Set(float64(balanceMinutes))
	m.ledgerRecords.Set(float64(records))
}

// RecordRequestDuration records the duration of an HTTP route.
func (m *Metrics) RecordRequestDuration(route string, d time.Duration) {
	m.requestDuration.WithLabelValues(route).Observe(d.Seconds())
}
