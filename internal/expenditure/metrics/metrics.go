package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the expenditure module.
type Metrics struct {
	// Operation latency and outcome by operation name
	OperationLatency *prometheus.HistogramVec
	OperationOutcome *prometheus.CounterVec

	// Lifecycle transitions by target status
	Transitions *prometheus.CounterVec

	// Settled claims and the fee collected, by asset
	ClaimsSettled *prometheus.CounterVec
	FeesCollected *prometheus.CounterVec

	AuthorizationDenied *prometheus.CounterVec
}

// New creates the expenditure metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		OperationLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "treasury_expenditure_operation_duration_seconds",
			Help:    "Duration of expenditure operations including the store transaction",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"operation"}),

		OperationOutcome: f.NewCounterVec(prometheus.CounterOpts{
			Name: "treasury_expenditure_operations_total",
			Help: "Expenditure operations by name and result code",
		}, []string{"operation", "code"}), // code: "ok" or a domain error code

		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "treasury_expenditure_transitions_total",
			Help: "Expenditure lifecycle transitions by target status",
		}, []string{"status"}),

		ClaimsSettled: f.NewCounterVec(prometheus.CounterOpts{
			Name: "treasury_expenditure_claims_settled_total",
			Help: "Claims that moved a non-zero payout",
		}, []string{"asset"}),

		FeesCollected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "treasury_expenditure_fees_collected",
			Help: "Network fee collected by asset, in smallest units (float approximation)",
		}, []string{"asset"}),

		AuthorizationDenied: f.NewCounterVec(prometheus.CounterOpts{
			Name: "treasury_expenditure_authorization_denied_total",
			Help: "Mutations rejected by the ownership or administration checks",
		}, []string{"operation"}),
	}
}

func (m *Metrics) ObserveOperation(operation, code string, d time.Duration) {
	if m != nil {
		m.OperationLatency.WithLabelValues(operation).Observe(d.Seconds())
		m.OperationOutcome.WithLabelValues(operation, code).Inc()
	}
}

func (m *Metrics) IncrementTransition(status string) {
	if m != nil {
		m.Transitions.WithLabelValues(status).Inc()
	}
}

// RecordClaim counts a settled claim. fee is a float approximation, exact
// amounts live in the ledger.
func (m *Metrics) RecordClaim(asset string, fee float64) {
	if m != nil {
		m.ClaimsSettled.WithLabelValues(asset).Inc()
		m.FeesCollected.WithLabelValues(asset).Add(fee)
	}
}

func (m *Metrics) IncrementDenied(operation string) {
	if m != nil {
		m.AuthorizationDenied.WithLabelValues(operation).Inc()
	}
}
