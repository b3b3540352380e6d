// Package metrics exposes Prometheus instruments for group and payment events.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	joinRequests      *prometheus.CounterVec
	paymentsInitiated prometheus.Counter
	paymentsVerified  *prometheus.CounterVec
	roundsCompleted   prometheus.Counter
	groupsCompleted   prometheus.Counter
	gatewayDuration   *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		joinRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "susu",
			Name:      "join_requests_total",
			Help:      "Join request transitions by outcome.",
		}, []string{"outcome"}),
		paymentsInitiated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "susu",
			Name:      "payments_initialized_total",
			Help:      "Payments recorded after the gateway accepted them.",
		}),
		paymentsVerified: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "susu",
			Name:      "payments_verified_total",
			Help:      "Payment verifications by result.",
		}, []string{"result"}),
		roundsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "susu",
			Name:      "rounds_completed_total",
			Help:      "Full passes through a collection order.",
		}),
		groupsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "susu",
			Name:      "groups_completed_total",
			Help:      "Groups whose rotation cycle finished.",
		}),
		gatewayDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "susu",
			Name:      "gateway_request_duration_seconds",
			Help:      "Latency of payment gateway calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "result"}),
	}
	reg.MustRegister(
		m.joinRequests,
		m.paymentsInitiated,
		m.paymentsVerified,
		m.roundsCompleted,
		m.groupsCompleted,
		m.gatewayDuration,
	)
	return m
}

// JoinRequest counts a join request transition ("requested", "approved",
// "rejected", "expired", "capacity_exceeded").
func (m *Metrics) JoinRequest(outcome string) {
	if m == nil {
		return
	}
	m.joinRequests.WithLabelValues(outcome).Inc()
}

// PaymentInitialized counts a recorded payment.
func (m *Metrics) PaymentInitialized() {
	if m == nil {
		return
	}
	m.paymentsInitiated.Inc()
}

// PaymentVerified counts a verification result ("complete", "failed",
// "pending", "noop").
func (m *Metrics) PaymentVerified(result string) {
	if m == nil {
		return
	}
	m.paymentsVerified.WithLabelValues(result).Inc()
}

// Rotation records the round and cycle transitions of one verification.
func (m *Metrics) Rotation(roundCompleted, cycleCompleted bool) {
	if m == nil {
		return
	}
	if roundCompleted {
		m.roundsCompleted.Inc()
	}
	if cycleCompleted {
		m.groupsCompleted.Inc()
	}
}

// ObserveGateway records the latency of a gateway call started at start.
func (m *Metrics) ObserveGateway(operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.gatewayDuration.WithLabelValues(operation, result).Observe(time.Since(start).Seconds())
}
