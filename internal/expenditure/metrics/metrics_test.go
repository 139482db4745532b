package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveOperation("finalize", "ok", 10*time.Millisecond)
	m.ObserveOperation("finalize", "insufficient_funding", time.Millisecond)
	m.IncrementTransition("finalized")
	m.RecordClaim("token", 250)
	m.IncrementDenied("cancel")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.OperationOutcome.WithLabelValues("finalize", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Transitions.WithLabelValues("finalized")))
	assert.Equal(t, 250.0, testutil.ToFloat64(m.FeesCollected.WithLabelValues("token")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthorizationDenied.WithLabelValues("cancel")))
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveOperation("create", "ok", time.Millisecond)
		m.IncrementTransition("cancelled")
		m.RecordClaim("token", 1)
		m.IncrementDenied("create")
	})
}
