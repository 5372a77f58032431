package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the engine's Prometheus collectors. A private registry
// avoids duplicate-collector panics when NewMetrics runs more than once,
// which happens in tests.
type Metrics struct {
	Registry *prometheus.Registry

	transfersInitiated *prometheus.CounterVec
	intakeRejections   *prometheus.CounterVec
	settlements        *prometheus.CounterVec
	settlementDuration *prometheus.HistogramVec
	notifications      *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		transfersInitiated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bank_transfers_initiated_total",
				Help: "Transfers accepted into PENDING, by transfer type.",
			},
			[]string{"type"},
		),
		intakeRejections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bank_transfer_intake_rejections_total",
				Help: "Transfer requests rejected at intake, by reason.",
			},
			[]string{"reason"},
		),
		settlements: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bank_settlements_total",
				Help: "Settlement dispositions, by disposition and outcome.",
			},
			[]string{"disposition", "outcome"},
		),
		settlementDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bank_settlement_duration_seconds",
				Help:    "Duration of settlement units of work.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"disposition"},
		),
		notifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bank_notifications_total",
				Help: "Notification delivery attempts, by result.",
			},
			[]string{"result"},
		),
	}
}

func (m *Metrics) RecordIntake(transferType string) {
	if m == nil {
		return
	}
	m.transfersInitiated.WithLabelValues(transferType).Inc()
}

func (m *Metrics) RecordIntakeRejection(reason string) {
	if m == nil {
		return
	}
	m.intakeRejections.WithLabelValues(reason).Inc()
}

func (m *Metrics) RecordSettlement(disposition, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.settlements.WithLabelValues(disposition, outcome).Inc()
	m.settlementDuration.WithLabelValues(disposition).Observe(d.Seconds())
}

func (m *Metrics) RecordNotification(result string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(result).Inc()
}
