// Melodex - AI-Powered Music Discovery for Media Library Managers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

package provider

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/melodex/internal/metrics"
	"github.com/tomtom215/melodex/internal/models"
)

// Breaker is the circuit breaker type guarding provider calls.
type Breaker = gobreaker.CircuitBreaker[[]models.Recommendation]

// BreakerRegistry holds one circuit breaker per (provider, model) pair,
// created lazily on first use and never evicted. The key space is bounded
// by the provider enum times the models actually in use, so unbounded
// growth is not a concern.
//
// The breakers use real time for their interval and timeout calculations.
// Trip decisions are count-based (ratio over a minimum request volume), so
// tests can open a breaker deterministically by hammering failures without
// touching the clock.
type BreakerRegistry struct {
	mu       sync.Mutex
	breakers map[string]*Breaker
	logger   zerolog.Logger
}

// NewBreakerRegistry creates an empty breaker registry.
//
//nolint:gocritic // hugeParam: logger passed by value for zerolog chaining
func NewBreakerRegistry(logger zerolog.Logger) *BreakerRegistry {
	return &BreakerRegistry{
		breakers: make(map[string]*Breaker),
		logger:   logger.With().Str("component", "breaker").Logger(),
	}
}

// Get returns the breaker for the given provider and model, creating it on
// first use.
func (r *BreakerRegistry) Get(provider models.Provider, model string) *Breaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := provider.String() + "/" + model
	if cb, ok := r.breakers[key]; ok {
		return cb
	}
	cb := r.newBreaker(provider, model)
	r.breakers[key] = cb
	return cb
}

// newBreaker builds a breaker with the standard provider policy:
// 3 probe requests in half-open state, a 1 minute count window while
// closed, a 2 minute cool-down once open, and a trip at >= 60% failures
// over at least 10 requests.
func (r *BreakerRegistry) newBreaker(provider models.Provider, model string) *Breaker {
	providerName := provider.String()
	name := providerName + "/" + model

	return gobreaker.NewCircuitBreaker[[]models.Recommendation](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				// Too few requests for the ratio to mean anything.
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			if failureRatio < 0.6 {
				return false
			}
			r.logger.Warn().
				Str("breaker", name).
				Uint32("requests", counts.Requests).
				Uint32("failures", counts.TotalFailures).
				Float64("failure_rate", failureRatio*100).
				Msg("Opening circuit")
			return true
		},

		OnStateChange: func(_ string, from, to gobreaker.State) {
			r.logger.Info().
				Str("breaker", name).
				Str("from", stateName(from)).
				Str("to", stateName(to)).
				Msg("Circuit breaker state transition")
			metrics.RecordBreakerTransition(providerName, model, stateName(from), stateName(to))
		},
	})
}

// stateName converts a gobreaker state to its log and metrics label.
func stateName(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
