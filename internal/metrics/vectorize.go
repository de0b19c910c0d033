package metrics

import "github.com/prometheus/client_golang/prometheus"

// Vectorizer Prometheus metrics.
var (
	VectorizeRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "simdex",
			Name:      "vectorize_requests_total",
			Help:      "Total number of vectorize requests",
		},
		[]string{"provider", "model", "status"},
	)

	VectorizeRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "simdex",
			Name:      "vectorize_request_duration_seconds",
			Help:      "Vectorize request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "model"},
	)

	VectorizeTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "simdex",
			Name:      "vectorize_tokens_total",
			Help:      "Total vectorize tokens consumed",
		},
		[]string{"provider", "model", "type"},
	)

	VectorizeErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "simdex",
			Name:      "vectorize_errors_total",
			Help:      "Total vectorize errors",
		},
		[]string{"provider", "model", "error_type"},
	)

	VectorizeCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "simdex",
			Name:      "vectorize_cache_total",
			Help:      "Vector cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var vecMetricsRegistered bool

// RegisterVectorizeMetrics registers Prometheus vectorizer metrics. Must be called once from main.
func RegisterVectorizeMetrics() {
	if vecMetricsRegistered {
		return
	}
	prometheus.MustRegister(VectorizeRequestsTotal)
	prometheus.MustRegister(VectorizeRequestDuration)
	prometheus.MustRegister(VectorizeTokensTotal)
	prometheus.MustRegister(VectorizeErrorsTotal)
	prometheus.MustRegister(VectorizeCacheTotal)
	vecMetricsRegistered = true
}
