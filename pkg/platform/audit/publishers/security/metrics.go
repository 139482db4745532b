package security

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for security audit buffering.
type Metrics struct {
	Emitted         prometheus.Counter
	Dropped         prometheus.Counter
	PersistFailures prometheus.Counter
	Buffered        prometheus.Gauge
}

// NewMetrics creates the security audit metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Emitted: f.NewCounter(prometheus.CounterOpts{
			Name: "treasury_audit_security_emitted_total",
			Help: "Total number of security audit events accepted into the buffer",
		}),
		Dropped: f.NewCounter(prometheus.CounterOpts{
			Name: "treasury_audit_security_dropped_total",
			Help: "Total number of security audit events dropped because the buffer was full or closed",
		}),
		PersistFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "treasury_audit_security_persist_failures_total",
			Help: "Total number of buffered security audit events the store refused",
		}),
		Buffered: f.NewGauge(prometheus.GaugeOpts{
			Name: "treasury_audit_security_buffered",
			Help: "Security audit events waiting to be persisted",
		}),
	}
}

func (m *Metrics) IncEmitted()         { m.Emitted.Inc() }
func (m *Metrics) IncDropped()         { m.Dropped.Inc() }
func (m *Metrics) IncPersistFailures() { m.PersistFailures.Inc() }
func (m *Metrics) SetBuffered(n int)   { m.Buffered.Set(float64(n)) }
