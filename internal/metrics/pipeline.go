package metrics

import "github.com/prometheus/client_golang/prometheus"

// Keyword pipeline Prometheus metrics.
var (
	SuggestRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "suggest_requests_total",
			Help:      "Autosuggest requests by engine and status",
		},
		[]string{"engine", "status"},
	)

	VolumeRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "volume_requests_total",
			Help:      "Search volume lookups by status",
		},
		[]string{"status"},
	)

	VolumeKeywordsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "volume_keywords_total",
			Help:      "Keywords sent to the search volume provider",
		},
	)

	VolumeRequestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "volume_request_duration_seconds",
			Help:      "Search volume lookup duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	ResearchCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "research_cache_total",
			Help:      "Research read cache hits, misses, discarded stale fills and tag invalidations",
		},
		[]string{"result"}, // "hit" / "miss" / "stale" / "invalidate"
	)

	ClusteringRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clustering_runs_total",
			Help:      "Clustering requests by outcome",
		},
		[]string{"outcome"}, // completed / failed / rejected / insufficient
	)

	ClusteringInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "clustering_in_flight",
			Help:      "Background clustering tasks currently running",
		},
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers keyword pipeline metrics. Must be called once from main.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(SuggestRequestsTotal)
	prometheus.MustRegister(VolumeRequestsTotal)
	prometheus.MustRegister(VolumeKeywordsTotal)
	prometheus.MustRegister(VolumeRequestDuration)
	prometheus.MustRegister(ResearchCacheTotal)
	prometheus.MustRegister(ClusteringRunsTotal)
	prometheus.MustRegister(ClusteringInFlight)
	pipelineMetricsRegistered = true
}
