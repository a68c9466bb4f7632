// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pantrychef_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pantrychef_api_request_duration_seconds",
			Help:    "API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Recommendation pipeline
	RecommendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pantrychef_recommend_duration_seconds",
			Help:    "Time to build a recipe shortlist",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	RecommendCorpusSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pantrychef_recommend_corpus_size",
			Help:    "Number of recipes scored per recommendation",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
	)

	RecommendErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pantrychef_recommend_errors_total",
			Help: "Failed recommendations by error kind",
		},
		[]string{"kind"},
	)

	// Providers
	ProviderCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pantrychef_provider_calls_total",
			Help: "Calls to external embedding and text-generation providers",
		},
		[]string{"provider", "outcome"},
	)

	ProviderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pantrychef_provider_call_duration_seconds",
			Help:    "Latency of external provider calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pantrychef_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// Embedding cache
	EmbeddingCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pantrychef_embedding_cache_hits_total",
			Help: "Embedding cache hits",
		},
		[]string{"backend"},
	)

	EmbeddingCacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pantrychef_embedding_cache_misses_total",
			Help: "Embedding cache misses",
		},
		[]string{"backend"},
	)
)

// RecordAPIRequest records one completed HTTP request.
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordProviderCall records one external provider call.
func RecordProviderCall(provider string, duration time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	ProviderCalls.WithLabelValues(provider, outcome).Inc()
	ProviderDuration.WithLabelValues(provider).Observe(duration.Seconds())
}
