package metrics

import "github.com/prometheus/client_golang/prometheus"

// Circuit breaker Prometheus metrics.
var (
	BreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "parklens",
			Name:      "breaker_state",
			Help:      "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		},
		[]string{"name"},
	)

	BreakerCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "parklens",
			Name:      "breaker_calls_total",
			Help:      "Circuit breaker call outcomes",
		},
		[]string{"name", "outcome"}, // success / failure / rejected
	)
)

var breakerMetricsRegistered bool

// RegisterBreakerMetrics registers circuit breaker metrics. Must be called once from main.
func RegisterBreakerMetrics() {
	if breakerMetricsRegistered {
		return
	}
	prometheus.MustRegister(BreakerState)
	prometheus.MustRegister(BreakerCallsTotal)
	breakerMetricsRegistered = true
}