package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "miles"
	subsystem = "brain"
)

// Metrics holds the Prometheus instruments for the assignment service.
// Each instance owns its registry so tests never collide on metric names.
type Metrics struct {
	registry *prometheus.Registry

	// Selection pipeline
	selections        *prometheus.CounterVec
	candidatesScored  prometheus.Counter
	selectionLatency  prometheus.Histogram
	modelFits         prometheus.Counter
	modelFitFailures  prometheus.Counter
	rewardsObserved   prometheus.Counter
	rewardValues      prometheus.Histogram
	productivityValue *prometheus.GaugeVec

	// Embedding cache
	embeddingCacheHits   prometheus.Counter
	embeddingCacheMisses prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Rate limiting
	rateLimitIPBlocks    prometheus.Counter
	rateLimitRedisErrors prometheus.Counter
	rateLimitFallbacks   prometheus.Counter
}

// NewMetrics creates a metrics instance backed by its own registry
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	auto := promauto.With(registry)

	m := &Metrics{registry: registry}

	m.selections = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "selections_total",
		Help:      "Total candidate selections by mode",
	}, []string{"mode"})

	m.candidatesScored = auto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "candidates_scored_total",
		Help:      "Total candidates passed through deterministic scoring",
	})

	m.selectionLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "selection_latency_milliseconds",
		Help:      "End-to-end suggestion pipeline latency in milliseconds",
		Buckets:   prometheus.DefBuckets,
	})

	m.modelFits = auto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "model_fits_total",
		Help:      "Total successful per-candidate classifier refits",
	})

	m.modelFitFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "model_fit_failures_total",
		Help:      "Total failed classifier refits",
	})

	m.rewardsObserved = auto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "rewards_observed_total",
		Help:      "Total assignment outcomes converted to rewards",
	})

	m.rewardValues = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "reward_value",
		Help:      "Distribution of clipped reward values",
		Buckets:   []float64{-2, -1.5, -1, -0.5, 0, 0.5, 1, 1.5, 2},
	})

	m.productivityValue = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "candidate_productivity",
		Help:      "Latest productivity score per candidate",
	}, []string{"candidate_id"})

	m.embeddingCacheHits = auto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "embedding_cache_hits_total",
		Help:      "Total embedding cache hits",
	})

	m.embeddingCacheMisses = auto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "embedding_cache_misses_total",
		Help:      "Total embedding cache misses",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by endpoint, method and status",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.rateLimitIPBlocks = auto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "ratelimit_ip_blocks_total",
		Help:      "Total requests blocked by the IP rate limiter",
	})

	m.rateLimitRedisErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "ratelimit_redis_errors_total",
		Help:      "Total Redis errors during rate limit checks",
	})

	m.rateLimitFallbacks = auto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "ratelimit_fallbacks_total",
		Help:      "Total rate limit checks served by the in-memory fallback",
	})

	return m
}

// RecordSelection counts one selection. mode is greedy, exploratory or
// cold_start.
func (m *Metrics) RecordSelection(mode string) {
	m.selections.WithLabelValues(mode).Inc()
}

// RecordCandidatesScored counts candidates passed through scoring
func (m *Metrics) RecordCandidatesScored(n int) {
	m.candidatesScored.Add(float64(n))
}

// RecordSelectionLatency records suggestion pipeline latency
func (m *Metrics) RecordSelectionLatency(d time.Duration) {
	m.selectionLatency.Observe(float64(d.Milliseconds()))
}

// RecordModelFit counts one refit attempt
func (m *Metrics) RecordModelFit(success bool) {
	if success {
		m.modelFits.Inc()
		return
	}
	m.modelFitFailures.Inc()
}

// RecordReward counts one processed outcome and its clipped value
func (m *Metrics) RecordReward(clipped float64) {
	m.rewardsObserved.Inc()
	m.rewardValues.Observe(clipped)
}

// SetProductivity publishes the latest productivity score for a candidate
func (m *Metrics) SetProductivity(candidateID string, value float64) {
	m.productivityValue.WithLabelValues(candidateID).Set(value)
}

// IncrementEmbeddingCacheHit increments embedding cache hit count
func (m *Metrics) IncrementEmbeddingCacheHit() {
	m.embeddingCacheHits.Inc()
}

// IncrementEmbeddingCacheMiss increments embedding cache miss count
func (m *Metrics) IncrementEmbeddingCacheMiss() {
	m.embeddingCacheMisses.Inc()
}

// IncrementRateLimitIPBlock increments IP-based rate limit blocks
func (m *Metrics) IncrementRateLimitIPBlock() {
	m.rateLimitIPBlocks.Inc()
}

// IncrementRateLimitRedisError increments Redis error count for rate limiting
func (m *Metrics) IncrementRateLimitRedisError() {
	m.rateLimitRedisErrors.Inc()
}

// IncrementRateLimitFallback increments fallback rate limiter usage count
func (m *Metrics) IncrementRateLimitFallback() {
	m.rateLimitFallbacks.Inc()
}

// Handler exposes the registry in Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// GinMiddleware records request counts and latency per route
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		m.httpRequests.WithLabelValues(endpoint, c.Request.Method, status).Inc()
		m.httpRequestDuration.WithLabelValues(endpoint, c.Request.Method, status).
			Observe(float64(time.Since(start).Milliseconds()))
	}
}
