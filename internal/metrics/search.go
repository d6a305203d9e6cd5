package metrics

import "github.com/prometheus/client_golang/prometheus"

// Cache lookup outcomes.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// Search pipeline Prometheus metrics.
var (
	ResultCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "result_cache_total",
			Help:      "Result cache lookups and writes by kind and outcome",
		},
		[]string{"kind", "op", "result"}, // op: get/set/delete
	)

	SimilarityDegenerateTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "similarity_degenerate_total",
			Help:      "Cosine similarity computations with a zero-norm vector, scored as 0",
		},
	)

	PipelineDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "pipeline_duration_seconds",
			Help:      "End-to-end search and recommendation duration",
			Buckets:   []float64{0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"operation", "source"}, // source: cache/computed/empty/error
	)

	CandidatesRanked = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "candidates_ranked",
			Help:      "Number of catalog candidates ranked per request",
			Buckets:   []float64{0, 1, 10, 25, 50, 100, 200, 500},
		},
		[]string{"operation"},
	)

	CacheInvalidationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "cache_invalidated_keys_total",
			Help:      "Result cache keys removed by invalidation events",
		},
		[]string{"reason"},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers pipeline and result cache metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(
		ResultCacheTotal,
		SimilarityDegenerateTotal,
		PipelineDuration,
		CandidatesRanked,
		CacheInvalidationsTotal,
	)
	searchMetricsRegistered = true
}
