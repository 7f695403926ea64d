package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the service-level Prometheus collectors. Registered once via
// promauto on construction; inject a single instance everywhere.
type Metrics struct {
	OrderTransitionsTotal *prometheus.CounterVec
	TransitionConflicts   *prometheus.CounterVec

	PaymentsRecordedTotal  *prometheus.CounterVec
	CommissionKoboTotal    prometheus.Counter
	PayoutKoboTotal        prometheus.Counter
	GatewayRequestDuration *prometheus.HistogramVec

	PollerOutcomesTotal *prometheus.CounterVec
	PollerAttempts      prometheus.Histogram

	WithdrawalsTotal *prometheus.CounterVec
}

func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers the collectors on the given registerer. Tests pass a fresh
// registry so repeated construction does not collide.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		OrderTransitionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "order_transitions_total",
				Help: "Order status transitions applied, labelled by from/to status",
			},
			[]string{"from", "to"},
		),
		TransitionConflicts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "order_transition_conflicts_total",
				Help: "Conditional status updates that lost to a concurrent writer",
			},
			[]string{"from", "to"},
		),
		PaymentsRecordedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payments_recorded_total",
				Help: "Payment rows written, labelled by terminal status",
			},
			[]string{"status"},
		),
		CommissionKoboTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "commission_kobo_total",
				Help: "Accumulated platform commission in kobo",
			},
		),
		PayoutKoboTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "payout_kobo_total",
				Help: "Accumulated freelancer payout in kobo",
			},
		),
		GatewayRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gateway_request_duration_seconds",
				Help:    "Latency of payment gateway calls",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 8),
			},
			[]string{"operation"},
		),
		PollerOutcomesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payment_poller_outcomes_total",
				Help: "Terminal outcomes of redirect-callback confirmation polling",
			},
			[]string{"outcome"},
		),
		PollerAttempts: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "payment_poller_attempts",
				Help:    "Store queries needed before the poller reached a terminal outcome",
				Buckets: prometheus.LinearBuckets(1, 2, 15),
			},
		),
		WithdrawalsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "withdrawals_total",
				Help: "Withdrawal requests by result",
			},
			[]string{"result"},
		),
	}
}

func (m *Metrics) RecordTransition(from, to string) {
	m.OrderTransitionsTotal.WithLabelValues(from, to).Inc()
}

func (m *Metrics) RecordTransitionConflict(from, to string) {
	m.TransitionConflicts.WithLabelValues(from, to).Inc()
}

func (m *Metrics) RecordPayment(status string, commissionKobo, payoutKobo int64) {
	m.PaymentsRecordedTotal.WithLabelValues(status).Inc()
	if commissionKobo > 0 {
		m.CommissionKoboTotal.Add(float64(commissionKobo))
	}
	if payoutKobo > 0 {
		m.PayoutKoboTotal.Add(float64(payoutKobo))
	}
}

func (m *Metrics) RecordPollerOutcome(outcome string, attempts int) {
	m.PollerOutcomesTotal.WithLabelValues(outcome).Inc()
	m.PollerAttempts.Observe(float64(attempts))
}

func (m *Metrics) RecordWithdrawal(result string) {
	m.WithdrawalsTotal.WithLabelValues(result).Inc()
}
