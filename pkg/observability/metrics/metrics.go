// Package metrics exposes the gateway routing core's Prometheus collectors.
// Registration happens at import time via promauto; the surrounding process
// decides how the default registry is served.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PreintelLatency tracks pre-intelligence processing latency in milliseconds.
	PreintelLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_preintel_latency_ms",
			Help:    "Pre-intelligence processing latency in milliseconds",
			Buckets: []float64{10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"operation"},
	)

	// RetrievalLatency tracks retrieval latency for the rag+llm path in milliseconds.
	RetrievalLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_retrieval_latency_ms",
			Help:    "RAG retrieval latency in milliseconds",
			Buckets: []float64{50, 100, 250, 500, 1000, 2000},
		},
		[]string{"chunks_count"},
	)

	// DecisionTotal counts router decisions by decision label and bypass flag.
	DecisionTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_router_decision_total",
			Help: "Total router decisions by type",
		},
		[]string{"decision", "bypass"},
	)

	// GuardrailsTriggerTotal counts guardrail triggers by category and action.
	GuardrailsTriggerTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_guardrails_trigger_total",
			Help: "Total guardrails triggers by category",
		},
		[]string{"category", "action"},
	)

	// TokensEfficiencyRatio reports tokens saved relative to tokens processed.
	TokensEfficiencyRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ai_llm_efficiency_ratio",
			Help: "Ratio of tokens saved vs total tokens processed",
		},
	)

	// CacheHitRatio reports the hit ratio per cache type.
	CacheHitRatio = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ai_cache_hit_ratio",
			Help: "Cache hit ratio for gateway caches",
		},
		[]string{"cache_type"},
	)

	// TokensSaved counts tokens saved through pre-intelligence optimizations.
	TokensSaved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_tokens_saved_total",
			Help: "Total tokens saved through pre-intelligence optimizations",
		},
		[]string{"optimization_type"},
	)

	// BypassTotal counts decisions that skipped the general model path.
	BypassTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ai_router_bypass_total",
			Help: "Total router bypass decisions",
		},
	)

	// ConfidenceBucket tracks the distribution of decision confidences.
	ConfidenceBucket = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ai_router_confidence_bucket",
			Help:    "Router decision confidence distribution",
			Buckets: []float64{0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
	)
)

// RecordDecision counts a routing decision and its confidence.
func RecordDecision(decision string, bypass bool, confidence float64) {
	DecisionTotal.WithLabelValues(decision, strconv.FormatBool(bypass)).Inc()
	ConfidenceBucket.Observe(confidence)
	if bypass {
		BypassTotal.Inc()
	}
}

// RecordPreintelLatency records pipeline latency for the given operation
// ("full" or "dry").
func RecordPreintelLatency(operation string, latencyMs float64) {
	PreintelLatency.WithLabelValues(operation).Observe(latencyMs)
}

// RecordTokensSaved counts tokens saved by a specific optimization
// ("dedup" or "pruning").
func RecordTokensSaved(optimizationType string, tokens int) {
	if tokens <= 0 {
		return
	}
	TokensSaved.WithLabelValues(optimizationType).Add(float64(tokens))
}

// SetCacheHitRatio publishes the current hit ratio for a cache.
func SetCacheHitRatio(cacheType string, ratio float64) {
	CacheHitRatio.WithLabelValues(cacheType).Set(ratio)
}

// RecordGuardrailTrigger counts a guardrail trigger.
func RecordGuardrailTrigger(category, action string) {
	GuardrailsTriggerTotal.WithLabelValues(category, action).Inc()
}
