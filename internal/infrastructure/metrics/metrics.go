package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	gateDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "x402_gate_decisions_total",
			Help: "Access gate decisions by state and reason",
		},
		[]string{"state", "reason"},
	)

	settlementsProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "x402_settlements_processed_total",
			Help: "Settlements finalized, by status and source",
		},
		[]string{"status", "source"},
	)

	settlementsRequeuedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "x402_settlements_requeued_total",
			Help: "Stuck processing settlements moved back to queued",
		},
	)

	facilitatorCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "x402_facilitator_call_duration_seconds",
			Help:    "Facilitator call latency by operation and outcome",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(gateDecisionsTotal)
	prometheus.MustRegister(settlementsProcessedTotal)
	prometheus.MustRegister(settlementsRequeuedTotal)
	prometheus.MustRegister(facilitatorCallDuration)
}

func RecordGateDecision(state, reason string) {
	gateDecisionsTotal.WithLabelValues(state, reason).Inc()
}

// RecordSettlementProcessed counts a finalize; source is "worker" or "webhook".
func RecordSettlementProcessed(status, source string) {
	settlementsProcessedTotal.WithLabelValues(status, source).Inc()
}

func RecordSettlementsRequeued(n int) {
	settlementsRequeuedTotal.Add(float64(n))
}

func ObserveFacilitatorCall(operation, outcome string, seconds float64) {
	facilitatorCallDuration.WithLabelValues(operation, outcome).Observe(seconds)
}
