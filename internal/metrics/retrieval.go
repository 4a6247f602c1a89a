package metrics

import "github.com/prometheus/client_golang/prometheus"

// Retrieval Prometheus metrics.
var (
	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "parklens",
			Name:      "searches_total",
			Help:      "Total number of review searches",
		},
		[]string{"type", "filtered"}, // type: keyword / hybrid
	)

	HybridStrategyTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "parklens",
			Name:      "hybrid_strategy_total",
			Help:      "Semantic retrieval strategy selections",
		},
		[]string{"strategy"}, // id_filtered / full_search
	)

	ReviewsReturned = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "parklens",
			Name:      "reviews_returned",
			Help:      "Number of reviews returned per search",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
		},
		[]string{"type"},
	)
)

var retrievalMetricsRegistered bool

// RegisterRetrievalMetrics registers retrieval metrics. Must be called once from main.
func RegisterRetrievalMetrics() {
	if retrievalMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchesTotal)
	prometheus.MustRegister(HybridStrategyTotal)
	prometheus.MustRegister(ReviewsReturned)
	retrievalMetricsRegistered = true
}
