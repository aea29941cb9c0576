package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search provider Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "prospector",
			Name:      "search_requests_total",
			Help:      "Total number of provider search requests",
		},
		[]string{"provider", "model", "status"},
	)

	SearchRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "prospector",
			Name:      "search_request_duration_seconds",
			Help:      "Provider search request duration in seconds",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
		},
		[]string{"provider", "model"},
	)

	SearchTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "prospector",
			Name:      "search_tokens_total",
			Help:      "Total provider tokens consumed",
		},
		[]string{"provider", "model", "type"},
	)

	SearchErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "prospector",
			Name:      "search_errors_total",
			Help:      "Total provider search errors",
		},
		[]string{"provider", "model", "error_type"},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers Prometheus search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchRequestDuration)
	prometheus.MustRegister(SearchTokensTotal)
	prometheus.MustRegister(SearchErrorsTotal)
	searchMetricsRegistered = true
}
