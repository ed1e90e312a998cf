package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RankRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "litreview_rank_requests_total",
		Help: "The total number of ranking requests by path",
	}, []string{"path"})

	RankBackendDegraded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "litreview_rank_backend_degraded_total",
		Help: "Backend calls dropped from fusion due to failure or timeout",
	}, []string{"signal"})

	RankFallbackScans = promauto.NewCounter(prometheus.CounterOpts{
		Name: "litreview_rank_fallback_scans_total",
		Help: "Ranking requests served by the metadata scan fallback",
	})

	RankDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "litreview_rank_duration_seconds",
		Help:    "Duration of ranking requests",
		Buckets: prometheus.DefBuckets,
	})

	ClusteringRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "litreview_clustering_runs_total",
		Help: "The total number of clustering runs by status",
	}, []string{"status"})

	PapersDiscovered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "litreview_papers_discovered_total",
		Help: "The total number of papers discovered from feeds",
	}, []string{"feed"})

	EmbeddingRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "litreview_embedding_requests_total",
		Help: "The total number of embedding requests",
	}, []string{"provider", "model", "status"})

	EmbeddingLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "litreview_embedding_latency_seconds",
		Help:    "Latency of embedding requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider", "model"})

	EmbeddingTokens = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "litreview_embedding_tokens_total",
		Help: "Estimated embedding token usage",
	}, []string{"provider", "model"})

	EmbeddingFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "litreview_embedding_fallbacks_total",
		Help: "Embedding requests served by a fallback provider",
	}, []string{"from_provider", "to_provider"})

	EmbeddingProviderAvailable = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "litreview_embedding_provider_available",
		Help: "Whether an embedding provider is currently available (1/0)",
	}, []string{"provider"})
)
