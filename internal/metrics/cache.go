package metrics

import "github.com/prometheus/client_golang/prometheus"

// Semantic result cache Prometheus metrics.
var (
	CacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "parklens",
			Name:      "semantic_cache_lookups_total",
			Help:      "Semantic cache lookups by result",
		},
		[]string{"result"}, // "hit" / "miss" / "error"
	)

	CacheHitSimilarity = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "parklens",
			Name:      "semantic_cache_hit_similarity",
			Help:      "Cosine similarity of semantic cache hits",
			Buckets:   []float64{0.95, 0.96, 0.97, 0.98, 0.99, 0.995, 1},
		},
	)

	CacheEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "parklens",
			Name:      "semantic_cache_entries",
			Help:      "Number of live semantic cache entries",
		},
	)
)

var cacheMetricsRegistered bool

// RegisterCacheMetrics registers semantic cache metrics. Must be called once from main.
func RegisterCacheMetrics() {
	if cacheMetricsRegistered {
		return
	}
	prometheus.MustRegister(CacheLookupsTotal)
	prometheus.MustRegister(CacheHitSimilarity)
	prometheus.MustRegister(CacheEntries)
	cacheMetricsRegistered = true
}
