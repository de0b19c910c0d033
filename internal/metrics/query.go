package metrics

import "github.com/prometheus/client_golang/prometheus"

// Query and index Prometheus metrics.
var (
	QueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "simdex",
			Name:      "query_duration_seconds",
			Help:      "Similarity query duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"index", "mode"}, // mode: "top_k" / "full"
	)

	QueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "simdex",
			Name:      "queries_total",
			Help:      "Total number of similarity queries",
		},
		[]string{"index", "mode", "status"},
	)

	IndexDocuments = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "simdex",
			Name:      "index_documents",
			Help:      "Number of documents per index",
		},
		[]string{"index"},
	)

	IndexShards = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "simdex",
			Name:      "index_shards",
			Help:      "Number of sealed shards per index",
		},
		[]string{"index"},
	)
)

var queryMetricsRegistered bool

// RegisterQueryMetrics registers Prometheus query metrics. Must be called once from main.
func RegisterQueryMetrics() {
	if queryMetricsRegistered {
		return
	}
	prometheus.MustRegister(QueryDuration)
	prometheus.MustRegister(QueriesTotal)
	prometheus.MustRegister(IndexDocuments)
	prometheus.MustRegister(IndexShards)
	queryMetricsRegistered = true
}
