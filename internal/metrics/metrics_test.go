package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.JoinRequest("approved")
	m.JoinRequest("approved")
	m.PaymentInitialized()
	m.PaymentVerified("complete")
	m.Rotation(true, false)
	m.Rotation(true, true)
	m.ObserveGateway("verify", time.Now(), errors.New("boom"))

	if got := testutil.ToFloat64(m.joinRequests.WithLabelValues("approved")); got != 2 {
		t.Errorf("approved join requests = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.roundsCompleted); got != 2 {
		t.Errorf("rounds completed = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.groupsCompleted); got != 1 {
		t.Errorf("groups completed = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(m.gatewayDuration); got != 1 {
		t.Errorf("gateway series = %d, want 1", got)
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	// must not panic
	m.JoinRequest("requested")
	m.PaymentInitialized()
	m.PaymentVerified("noop")
	m.Rotation(true, true)
	m.ObserveGateway("initialize", time.Now(), nil)
}
