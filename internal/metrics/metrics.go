// Melodex - AI-Powered Music Discovery for Media Library Managers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

package metrics

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus Metrics Integration for Production Observability
// This package provides comprehensive instrumentation for:
// - AI provider request latency, errors, and throttling
// - Circuit breaker state per (provider, model)
// - Recommendation pipeline stage drops and delivery counts
// - Cache efficiency (recommendation and library-profile caches)
// - Review queue depth and transitions
// - API endpoint latency and throughput

var (
	// Provider Metrics
	ProviderRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "provider_request_duration_seconds",
			Help:    "Duration of AI provider requests in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120}, // Local model generation can take minutes
		},
		[]string{"provider", "model"},
	)

	ProviderErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_errors_total",
			Help: "Total number of failed AI provider requests",
		},
		[]string{"provider", "model", "error_type"}, // "timeout", "throttle", "network", "other"
	)

	ProviderThrottles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_throttles_total",
			Help: "Total number of provider rate-limit (429) responses",
		},
		[]string{"provider", "model"},
	)

	ProviderRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_retries_total",
			Help: "Total number of provider request retry attempts",
		},
		[]string{"provider", "model"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"provider", "model"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"provider", "model", "from_state", "to_state"},
	)

	CircuitBreakerRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_rejections_total",
			Help: "Total number of requests short-circuited by an open breaker",
		},
		[]string{"provider", "model"},
	)

	// Fetch Cycle Metrics
	FetchCycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fetch_cycles_total",
			Help: "Total number of recommendation fetch cycles",
		},
		[]string{"cache_result"}, // "hit", "miss", "error"
	)

	PipelineStageDrops = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_stage_drops_total",
			Help: "Total number of recommendations dropped per pipeline stage",
		},
		[]string{"stage"}, // "validate", "filter_existing", "gate", "dedup_history", "dedup_library", "dedup_session"
	)

	PipelineItemsDelivered = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pipeline_items_delivered",
			Help:    "Number of import items delivered per fetch cycle",
			Buckets: []float64{1, 5, 10, 20, 50, 100},
		},
	)

	PipelineShortfalls = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pipeline_shortfalls_total",
			Help: "Total number of fetch cycles that delivered fewer items than requested",
		},
	)

	TopUpPasses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "topup_passes_total",
			Help: "Total number of top-up passes issued to close a delivery deficit",
		},
	)

	EscapeValvePromotions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gate_escape_valve_promotions_total",
			Help: "Total number of items promoted from the review queue when strict ID policy filtered out everything",
		},
	)

	// Sanitizer Metrics
	SanitizerRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sanitizer_rejections_total",
			Help: "Total number of recommendations rejected by the sanitizer",
		},
		[]string{"reason"}, // "missing_artist", "malicious", "invalid"
	)

	SchemaViolations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schema_violations_total",
			Help: "Total number of schema violations observed in provider output",
		},
		[]string{"field"},
	)

	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"}, // "recommendation", "profile"
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_evictions_total",
			Help: "Total number of cache evictions (TTL expiry or size pressure)",
		},
		[]string{"cache_type"},
	)

	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_entries",
			Help: "Current number of cached entries",
		},
		[]string{"cache_type"},
	)

	// Review Queue Metrics
	ReviewQueueSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "review_queue_size",
			Help: "Current number of review queue items by status",
		},
		[]string{"status"}, // "pending", "accepted", "rejected", "never"
	)

	ReviewTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "review_transitions_total",
			Help: "Total number of review queue status transitions",
		},
		[]string{"to_status"},
	)

	// History Metrics
	HistoryKeysRecorded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "history_keys_recorded_total",
			Help: "Total number of recommendation keys written to history",
		},
	)

	HistoryBucketsPruned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "history_buckets_pruned_total",
			Help: "Total number of expired day-buckets pruned from history",
		},
	)

	// Fetch Guard Metrics
	FetchGuardTimeouts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fetch_guard_timeouts_total",
			Help: "Total number of fetches that timed out waiting on the per-key semaphore",
		},
	)

	FetchGuardThrottles = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fetch_guard_throttles_total",
			Help: "Total number of fetches delayed by the minimum-interval throttle",
		},
	)

	// Batch Planner Metrics
	PlannerBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "planner_batch_size",
			Help:    "Number of recommendations requested per planned batch",
			Buckets: []float64{1, 2, 5, 10, 20, 50, 100},
		},
	)

	PlannerShrinks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "planner_batch_shrinks_total",
			Help: "Total number of batch-size reductions forced by token budgets",
		},
		[]string{"provider", "model"},
	)

	PlannerDowngrades = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "planner_sampling_downgrades_total",
			Help: "Total number of sampling-depth downgrades forced by token budgets",
		},
		[]string{"provider", "model"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}, // Optimized for API latency
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordProviderRequest records the outcome of one AI provider request.
func RecordProviderRequest(provider, model string, duration time.Duration, err error) {
	ProviderRequestDuration.WithLabelValues(provider, model).Observe(duration.Seconds())
	if err != nil {
		ProviderErrors.WithLabelValues(provider, model, classifyProviderError(err)).Inc()
	}
}

// classifyProviderError buckets a provider error into a low-cardinality label.
func classifyProviderError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429"), strings.Contains(msg, "rate limit"):
		return "throttle"
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline"):
		return "timeout"
	case strings.Contains(msg, "connection"), strings.Contains(msg, "dial"), strings.Contains(msg, "refused"):
		return "network"
	default:
		return "other"
	}
}

// RecordProviderThrottle records a rate-limit response from a provider.
func RecordProviderThrottle(provider, model string) {
	ProviderThrottles.WithLabelValues(provider, model).Inc()
}

// RecordProviderRetry records one retry attempt against a provider.
func RecordProviderRetry(provider, model string) {
	ProviderRetries.WithLabelValues(provider, model).Inc()
}

// breakerStateValues maps gobreaker state names to gauge values.
var breakerStateValues = map[string]float64{
	"closed":    0,
	"half-open": 1,
	"open":      2,
}

// RecordBreakerTransition records a circuit breaker state change and updates
// the state gauge.
func RecordBreakerTransition(provider, model, fromState, toState string) {
	CircuitBreakerTransitions.WithLabelValues(provider, model, fromState, toState).Inc()
	if v, ok := breakerStateValues[toState]; ok {
		CircuitBreakerState.WithLabelValues(provider, model).Set(v)
	}
}

// RecordBreakerRejection records a request refused by an open breaker.
func RecordBreakerRejection(provider, model string) {
	CircuitBreakerRejections.WithLabelValues(provider, model).Inc()
}

// RecordFetchCycle records one fetch cycle and how the cache resolved it.
func RecordFetchCycle(cacheResult string) {
	FetchCycles.WithLabelValues(cacheResult).Inc()
}

// RecordStageDrop records recommendations dropped at a pipeline stage.
// Zero-count calls are skipped to keep the series sparse.
func RecordStageDrop(stage string, count int) {
	if count > 0 {
		PipelineStageDrops.WithLabelValues(stage).Add(float64(count))
	}
}

// RecordDelivery records the final item count of a fetch cycle and whether it
// fell short of the requested target.
func RecordDelivery(delivered, target int) {
	PipelineItemsDelivered.Observe(float64(delivered))
	if delivered < target {
		PipelineShortfalls.Inc()
	}
}

// RecordTopUpPass records one top-up pass.
func RecordTopUpPass() {
	TopUpPasses.Inc()
}

// RecordEscapeValvePromotions records items promoted from the review queue by
// the gate's escape valve.
func RecordEscapeValvePromotions(count int) {
	EscapeValvePromotions.Add(float64(count))
}

// RecordSanitizerRejection records a recommendation rejected during
// sanitization.
func RecordSanitizerRejection(reason string) {
	SanitizerRejections.WithLabelValues(reason).Inc()
}

// RecordSchemaViolation records a schema violation seen in provider output.
func RecordSchemaViolation(field string) {
	SchemaViolations.WithLabelValues(field).Inc()
}

// RecordCacheHit records a cache hit.
func RecordCacheHit(cacheType string) {
	CacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss records a cache miss.
func RecordCacheMiss(cacheType string) {
	CacheMisses.WithLabelValues(cacheType).Inc()
}

// RecordCacheEvictions records entries removed from a cache.
func RecordCacheEvictions(cacheType string, count int) {
	if count > 0 {
		CacheEvictions.WithLabelValues(cacheType).Add(float64(count))
	}
}

// SetCacheSize updates the entry-count gauge for a cache.
func SetCacheSize(cacheType string, size int) {
	CacheSize.WithLabelValues(cacheType).Set(float64(size))
}

// SetReviewQueueCounts updates the review queue depth gauges.
func SetReviewQueueCounts(pending, accepted, rejected, never int) {
	ReviewQueueSize.WithLabelValues("pending").Set(float64(pending))
	ReviewQueueSize.WithLabelValues("accepted").Set(float64(accepted))
	ReviewQueueSize.WithLabelValues("rejected").Set(float64(rejected))
	ReviewQueueSize.WithLabelValues("never").Set(float64(never))
}

// RecordReviewTransition records a review item moving to a new status.
func RecordReviewTransition(toStatus string) {
	ReviewTransitions.WithLabelValues(toStatus).Inc()
}

// RecordHistoryKeys records recommendation keys written to history.
func RecordHistoryKeys(count int) {
	if count > 0 {
		HistoryKeysRecorded.Add(float64(count))
	}
}

// RecordHistoryPrune records expired day-buckets removed from history.
func RecordHistoryPrune(buckets int) {
	if buckets > 0 {
		HistoryBucketsPruned.Add(float64(buckets))
	}
}

// RecordGuardTimeout records a fetch that gave up waiting on the semaphore.
func RecordGuardTimeout() {
	FetchGuardTimeouts.Inc()
}

// RecordGuardThrottle records a fetch delayed by the minimum-interval rule.
func RecordGuardThrottle() {
	FetchGuardThrottles.Inc()
}

// RecordPlannerBatch records the size of one planned batch.
func RecordPlannerBatch(size int) {
	PlannerBatchSize.Observe(float64(size))
}

// RecordPlannerShrink records a token-budget-forced batch reduction.
func RecordPlannerShrink(provider, model string) {
	PlannerShrinks.WithLabelValues(provider, model).Inc()
}

// RecordSamplingDowngrade records a token-budget-forced sampling downgrade.
func RecordSamplingDowngrade(provider, model string) {
	PlannerDowngrades.WithLabelValues(provider, model).Inc()
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordRateLimitHit records a rate limit rejection for an endpoint
func RecordRateLimitHit(endpoint string) {
	APIRateLimitHits.WithLabelValues(endpoint).Inc()
}
