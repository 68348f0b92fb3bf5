// Melodex - AI-Powered Music Discovery for Media Library Managers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

package metrics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestRecordProviderRequest tests provider request metric recording
func TestRecordProviderRequest(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		model    string
		duration time.Duration
		err      error
	}{
		{
			name:     "successful local request",
			provider: "ollama",
			model:    "qwen3:8b",
			duration: 12 * time.Second,
			err:      nil,
		},
		{
			name:     "successful cloud request",
			provider: "openai",
			model:    "gpt-4o-mini",
			duration: 800 * time.Millisecond,
			err:      nil,
		},
		{
			name:     "failed request with network error",
			provider: "anthropic",
			model:    "claude-sonnet-4-5",
			duration: 50 * time.Millisecond,
			err:      errors.New("dial tcp: connection refused"),
		},
		{
			name:     "failed request with throttle error",
			provider: "groq",
			model:    "llama-3.3-70b-versatile",
			duration: 20 * time.Millisecond,
			err:      errors.New("unexpected status 429: rate limit exceeded"),
		},
		{
			name:     "slow local generation over a minute",
			provider: "lmstudio",
			model:    "local-model",
			duration: 95 * time.Second,
			err:      nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Recording must never panic regardless of outcome.
			RecordProviderRequest(tt.provider, tt.model, tt.duration, tt.err)
		})
	}
}

func TestClassifyProviderError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"context deadline", context.DeadlineExceeded, "timeout"},
		{"wrapped deadline", errors.New("request timeout after 120s"), "timeout"},
		{"throttle by status", errors.New("status 429 from upstream"), "throttle"},
		{"throttle by message", errors.New("rate limit exceeded, retry later"), "throttle"},
		{"network refused", errors.New("dial tcp 127.0.0.1:11434: connection refused"), "network"},
		{"anything else", errors.New("model not found"), "other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyProviderError(tt.err); got != tt.want {
				t.Errorf("classifyProviderError(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}

func TestRecordBreakerTransition(t *testing.T) {
	RecordBreakerTransition("openai", "gpt-4o-mini", "closed", "open")

	state := testutil.ToFloat64(CircuitBreakerState.WithLabelValues("openai", "gpt-4o-mini"))
	if state != 2 {
		t.Errorf("breaker state gauge = %v, want 2 (open)", state)
	}

	RecordBreakerTransition("openai", "gpt-4o-mini", "open", "half-open")
	state = testutil.ToFloat64(CircuitBreakerState.WithLabelValues("openai", "gpt-4o-mini"))
	if state != 1 {
		t.Errorf("breaker state gauge = %v, want 1 (half-open)", state)
	}

	RecordBreakerTransition("openai", "gpt-4o-mini", "half-open", "closed")
	state = testutil.ToFloat64(CircuitBreakerState.WithLabelValues("openai", "gpt-4o-mini"))
	if state != 0 {
		t.Errorf("breaker state gauge = %v, want 0 (closed)", state)
	}

	// Unknown state names must not move the gauge.
	RecordBreakerTransition("openai", "gpt-4o-mini", "closed", "exploded")
	state = testutil.ToFloat64(CircuitBreakerState.WithLabelValues("openai", "gpt-4o-mini"))
	if state != 0 {
		t.Errorf("breaker state gauge = %v after unknown state, want unchanged 0", state)
	}
}

func TestRecordStageDrop(t *testing.T) {
	before := testutil.ToFloat64(PipelineStageDrops.WithLabelValues("validate"))

	RecordStageDrop("validate", 3)
	RecordStageDrop("validate", 0) // zero-count must not create noise

	after := testutil.ToFloat64(PipelineStageDrops.WithLabelValues("validate"))
	if after-before != 3 {
		t.Errorf("stage drop delta = %v, want 3", after-before)
	}
}

func TestRecordDelivery(t *testing.T) {
	before := testutil.ToFloat64(PipelineShortfalls)

	RecordDelivery(10, 10) // on target, no shortfall
	RecordDelivery(9, 10)  // short by one

	after := testutil.ToFloat64(PipelineShortfalls)
	if after-before != 1 {
		t.Errorf("shortfall delta = %v, want 1", after-before)
	}
}

func TestCacheMetrics(t *testing.T) {
	RecordCacheHit("recommendation")
	RecordCacheMiss("recommendation")
	RecordCacheHit("profile")
	RecordCacheEvictions("recommendation", 2)
	RecordCacheEvictions("recommendation", 0)
	SetCacheSize("recommendation", 42)

	size := testutil.ToFloat64(CacheSize.WithLabelValues("recommendation"))
	if size != 42 {
		t.Errorf("cache size gauge = %v, want 42", size)
	}
}

func TestSetReviewQueueCounts(t *testing.T) {
	SetReviewQueueCounts(5, 2, 1, 3)

	checks := map[string]float64{
		"pending":  5,
		"accepted": 2,
		"rejected": 1,
		"never":    3,
	}
	for status, want := range checks {
		got := testutil.ToFloat64(ReviewQueueSize.WithLabelValues(status))
		if got != want {
			t.Errorf("review_queue_size{status=%q} = %v, want %v", status, got, want)
		}
	}
}

func TestGuardAndPlannerMetrics(t *testing.T) {
	// Smoke coverage for simple counters and histograms.
	RecordGuardTimeout()
	RecordGuardThrottle()
	RecordPlannerBatch(10)
	RecordPlannerShrink("gemini", "gemini-2.5-flash")
	RecordSamplingDowngrade("gemini", "gemini-2.5-flash")
	RecordTopUpPass()
	RecordEscapeValvePromotions(4)
	RecordSanitizerRejection("malicious")
	RecordSchemaViolation("confidence")
	RecordHistoryKeys(12)
	RecordHistoryKeys(0)
	RecordHistoryPrune(2)
	RecordFetchCycle("hit")
	RecordFetchCycle("miss")
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)

	TrackActiveRequest(true)
	TrackActiveRequest(true)
	TrackActiveRequest(false)

	after := testutil.ToFloat64(APIActiveRequests)
	if after-before != 1 {
		t.Errorf("active request delta = %v, want 1", after-before)
	}

	TrackActiveRequest(false)
}

func TestRecordAPIRequest(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		endpoint   string
		statusCode string
		duration   time.Duration
	}{
		{
			name:       "successful fetch",
			method:     "POST",
			endpoint:   "/api/v1/recommendations/fetch",
			statusCode: "200",
			duration:   2 * time.Second,
		},
		{
			name:       "review listing",
			method:     "GET",
			endpoint:   "/api/v1/review",
			statusCode: "200",
			duration:   5 * time.Millisecond,
		},
		{
			name:       "bad request",
			method:     "POST",
			endpoint:   "/api/v1/review/status",
			statusCode: "400",
			duration:   time.Millisecond,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			RecordAPIRequest(tt.method, tt.endpoint, tt.statusCode, tt.duration)
		})
	}
}

// TestConcurrentMetricRecording verifies metrics are safe under concurrent use
func TestConcurrentMetricRecording(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				RecordProviderRequest("ollama", "qwen3:8b", time.Second, nil)
				RecordCacheHit("recommendation")
				RecordStageDrop("dedup_session", 1)
				TrackActiveRequest(true)
				TrackActiveRequest(false)
			}
		}()
	}
	wg.Wait()
}

// TestMetricsRegistration verifies all metrics can be described without panic
func TestMetricsRegistration(t *testing.T) {
	collectors := []prometheus.Collector{
		ProviderRequestDuration,
		ProviderErrors,
		ProviderThrottles,
		ProviderRetries,
		CircuitBreakerState,
		CircuitBreakerTransitions,
		CircuitBreakerRejections,
		FetchCycles,
		PipelineStageDrops,
		PipelineItemsDelivered,
		PipelineShortfalls,
		TopUpPasses,
		EscapeValvePromotions,
		SanitizerRejections,
		SchemaViolations,
		CacheHits,
		CacheMisses,
		CacheEvictions,
		CacheSize,
		ReviewQueueSize,
		ReviewTransitions,
		HistoryKeysRecorded,
		HistoryBucketsPruned,
		FetchGuardTimeouts,
		FetchGuardThrottles,
		PlannerBatchSize,
		PlannerShrinks,
		PlannerDowngrades,
		APIRequestsTotal,
		APIRequestDuration,
		APIActiveRequests,
		APIRateLimitHits,
		AppInfo,
		AppUptime,
	}

	for _, c := range collectors {
		ch := make(chan *prometheus.Desc, 10)
		c.Describe(ch)
		close(ch)

		count := 0
		for range ch {
			count++
		}
		if count == 0 {
			t.Errorf("Metric has no descriptors")
		}
	}
}

// TestMetricGathering tests that metrics can be gathered using testutil
func TestMetricGathering(t *testing.T) {
	RecordProviderRequest("ollama", "qwen3:8b", time.Second, nil)
	RecordAPIRequest("GET", "/test", "200", time.Millisecond)

	problems, err := testutil.GatherAndLint(prometheus.DefaultGatherer)
	if err != nil {
		t.Logf("Lint errors (may be expected): %v", err)
	}
	for _, p := range problems {
		t.Logf("Metric lint problem: %s", p.Text)
	}
}

func BenchmarkRecordProviderRequest(b *testing.B) {
	for i := 0; i < b.N; i++ {
		RecordProviderRequest("ollama", "qwen3:8b", time.Second, nil)
	}
}

func BenchmarkRecordProviderRequestWithError(b *testing.B) {
	err := errors.New("dial tcp: connection refused")
	for i := 0; i < b.N; i++ {
		RecordProviderRequest("ollama", "qwen3:8b", time.Second, err)
	}
}

func BenchmarkRecordStageDrop(b *testing.B) {
	for i := 0; i < b.N; i++ {
		RecordStageDrop("dedup_session", 1)
	}
}
