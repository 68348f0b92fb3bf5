// Melodex - AI-Powered Music Discovery for Media Library Managers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

/*
Package metrics provides Prometheus metrics collection and export for observability.

This package implements application instrumentation using the Prometheus client
library, exposing metrics for monitoring provider health, pipeline behaviour,
and system performance.

# Overview

The package provides metrics for:
  - AI provider request latency, errors, retries, and throttling
  - Circuit breaker state per (provider, model)
  - Recommendation pipeline stage drops and delivered counts
  - Sanitizer rejections and schema violations
  - Cache hit/miss/eviction rates (recommendation and profile caches)
  - Review queue depth and status transitions
  - Recommendation history writes and pruning
  - Batch planner token-budget interventions
  - HTTP API latency and throughput

# Metrics Endpoint

Metrics are exposed at the /metrics endpoint in Prometheus text format:

	curl http://localhost:8687/metrics

# Available Metrics

Provider Metrics:
  - provider_request_duration_seconds: Request latency (histogram)
    Labels: provider, model
    Buckets: 0.1 .. 120 (local generation can take minutes)
  - provider_errors_total: Failed requests (counter)
    Labels: provider, model, error_type (timeout, throttle, network, other)
  - provider_throttles_total: 429 responses (counter)
    Labels: provider, model
  - provider_retries_total: Retry attempts (counter)
    Labels: provider, model

Circuit Breaker Metrics:
  - circuit_breaker_state: Current state (gauge)
    Labels: provider, model
    Values: 0=closed, 1=half-open, 2=open
  - circuit_breaker_state_transitions_total: Transitions (counter)
    Labels: provider, model, from_state, to_state
  - circuit_breaker_rejections_total: Short-circuited requests (counter)
    Labels: provider, model

Pipeline Metrics:
  - fetch_cycles_total: Fetch cycles (counter)
    Labels: cache_result (hit, miss, error)
  - pipeline_stage_drops_total: Items dropped per stage (counter)
    Labels: stage
  - pipeline_items_delivered: Final item count per cycle (histogram)
  - pipeline_shortfalls_total: Cycles short of target (counter)
  - topup_passes_total: Deficit top-up passes (counter)
  - gate_escape_valve_promotions_total: Review items promoted under strict
    ID policy (counter)

Cache Metrics:
  - cache_hits_total / cache_misses_total / cache_evictions_total (counters)
    Labels: cache_type (recommendation, profile)
  - cache_entries: Current entry counts (gauge)
    Labels: cache_type

Review Queue Metrics:
  - review_queue_size: Queue depth (gauge)
    Labels: status (pending, accepted, rejected, never)
  - review_transitions_total: Status transitions (counter)
    Labels: to_status

# Usage

Metrics are registered automatically via promauto at package init. Recording
helpers keep call sites terse:

	start := time.Now()
	resp, err := client.Recommend(ctx, prompt)
	metrics.RecordProviderRequest("openai", "gpt-4o-mini", time.Since(start), err)

# Cardinality

Label values are drawn from closed sets (provider names, model identifiers from
static catalogs, pipeline stage names) so series counts stay bounded. Error
messages are never used as label values; errors are classified into a fixed
error_type set first.
*/
package metrics
