package metrics

import "github.com/prometheus/client_golang/prometheus"

// Pipeline and provider Prometheus metrics.
var (
	PipelineRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "roomrank",
			Name:      "pipeline_requests_total",
			Help:      "Total recommendation requests",
		},
		[]string{"pipeline", "status"}, // pipeline: apartment/roommate; status: ok/degraded/failed
	)

	PipelineStageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "roomrank",
			Name:      "pipeline_stage_duration_seconds",
			Help:      "Duration of each pipeline stage",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"pipeline", "stage"},
	)

	PipelineDegradedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "roomrank",
			Name:      "pipeline_degraded_total",
			Help:      "Sub-step fallbacks taken instead of failing the request",
		},
		[]string{"pipeline", "step"}, // step: extract/rerank/compat
	)

	PipelineCandidates = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "roomrank",
			Name:      "pipeline_candidates",
			Help:      "Candidate counts at each pipeline stage",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100, 200},
		},
		[]string{"pipeline", "stage"}, // stage: retrieved/filtered/returned
	)

	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "roomrank",
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding requests",
		},
		[]string{"provider", "model", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "roomrank",
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "model"},
	)

	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "roomrank",
			Name:      "embedding_cache_total",
			Help:      "Embedding cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	LLMRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "roomrank",
			Name:      "llm_requests_total",
			Help:      "Total number of LLM completion requests",
		},
		[]string{"provider", "model", "status"},
	)

	LLMRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "roomrank",
			Name:      "llm_request_duration_seconds",
			Help:      "LLM completion duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"provider", "model"},
	)

	LLMTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "roomrank",
			Name:      "llm_tokens_total",
			Help:      "Total LLM tokens consumed",
		},
		[]string{"provider", "model", "type"}, // type: prompt/total
	)

	RerankRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "roomrank",
			Name:      "rerank_requests_total",
			Help:      "Total number of rerank API requests",
		},
		[]string{"model", "status"},
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers Prometheus pipeline metrics. Must be
// called once from main.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(PipelineRequestsTotal)
	prometheus.MustRegister(PipelineStageDuration)
	prometheus.MustRegister(PipelineDegradedTotal)
	prometheus.MustRegister(PipelineCandidates)
	prometheus.MustRegister(EmbeddingRequestsTotal)
	prometheus.MustRegister(EmbeddingRequestDuration)
	prometheus.MustRegister(EmbeddingCacheTotal)
	prometheus.MustRegister(LLMRequestsTotal)
	prometheus.MustRegister(LLMRequestDuration)
	prometheus.MustRegister(LLMTokensTotal)
	prometheus.MustRegister(RerankRequestsTotal)
	pipelineMetricsRegistered = true
}
