// Melodex - AI-Powered Music Discovery for Media Library Managers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

package provider

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/melodex/internal/metrics"
	"github.com/tomtom215/melodex/internal/models"
)

const (
	// defaultRetryBaseDelay seeds the backoff when the settings carry none.
	defaultRetryBaseDelay = time.Second

	// maxRetryDelay caps the exponential backoff growth.
	maxRetryDelay = 30 * time.Second

	// jitterFraction spreads retry waits by up to +-10% so concurrent
	// cycles do not retry in lockstep.
	jitterFraction = 0.1
)

// Invoker is the single call path from the engine to a provider adapter.
// Every request passes through the provider's pacing limiter, its
// (provider, model) circuit breaker, and a bounded exponential-backoff
// retry loop, with latency and error metrics recorded per attempt.
type Invoker struct {
	registry *Registry
	breakers *BreakerRegistry
	limiters *LimiterRegistry
	logger   zerolog.Logger

	randMu sync.Mutex
	rng    *rand.Rand
}

// NewInvoker creates an invoker over the given registries.
//
//nolint:gocritic // hugeParam: logger passed by value for zerolog chaining
func NewInvoker(registry *Registry, breakers *BreakerRegistry, limiters *LimiterRegistry, logger zerolog.Logger) (*Invoker, error) {
	if registry == nil {
		return nil, errors.New("provider: registry is nil")
	}
	if breakers == nil {
		return nil, errors.New("provider: breaker registry is nil")
	}
	if limiters == nil {
		return nil, errors.New("provider: limiter registry is nil")
	}
	return &Invoker{
		registry: registry,
		breakers: breakers,
		limiters: limiters,
		logger:   logger.With().Str("component", "invoker").Logger(),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // math/rand is fine for retry jitter
	}, nil
}

// Invoke runs one provider call under the full resilience stack. Retry
// policy comes from the settings (MaxRetries attempts on top of the first,
// RetryBaseDelay doubling each time); Timeout, when set, bounds the whole
// invocation including waits.
//
// An open circuit breaker fails immediately without consuming retries.
// Context cancellation is never retried.
func (inv *Invoker) Invoke(ctx context.Context, settings models.Settings, req Request) ([]models.Recommendation, error) {
	p, err := inv.registry.Get(settings.Provider)
	if err != nil {
		return nil, err
	}

	if settings.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, settings.Timeout)
		defer cancel()
	}

	providerName := settings.Provider.String()
	breaker := inv.breakers.Get(settings.Provider, req.Model)
	limiter := inv.limiters.Get(settings.Provider)

	maxAttempts := settings.MaxRetries + 1
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	baseDelay := settings.RetryBaseDelay
	if baseDelay <= 0 {
		baseDelay = defaultRetryBaseDelay
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}

		start := time.Now()
		recs, err := breaker.Execute(func() ([]models.Recommendation, error) {
			return callProvider(ctx, p, req)
		})
		metrics.RecordProviderRequest(providerName, req.Model, time.Since(start), err)

		if err == nil {
			inv.logger.Debug().
				Str("provider", providerName).
				Str("model", req.Model).
				Int("items", len(recs)).
				Int("attempt", attempt+1).
				Msg("Provider request succeeded")
			return recs, nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			// The breaker is shedding load; spinning retries against it
			// would only delay the caller.
			metrics.RecordBreakerRejection(providerName, req.Model)
			inv.logger.Warn().
				Err(err).
				Str("provider", providerName).
				Str("model", req.Model).
				Msg("Circuit breaker rejected provider request")
			return nil, err
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		if IsThrottle(err) {
			metrics.RecordProviderThrottle(providerName, req.Model)
		}

		lastErr = err
		if attempt == maxAttempts-1 {
			break
		}

		metrics.RecordProviderRetry(providerName, req.Model)
		delay := inv.backoffDelay(baseDelay, attempt)
		inv.logger.Warn().
			Err(err).
			Str("provider", providerName).
			Str("model", req.Model).
			Int("attempt", attempt+1).
			Int("max_attempts", maxAttempts).
			Dur("delay", delay).
			Msg("Retrying provider request")
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("max retry attempts reached: %w", lastErr)
}

// callProvider prefers the cancellation-aware surface when the adapter has
// one. Plain adapters run on the side; if the context ends first the call
// is abandoned and its eventual result discarded.
func callProvider(ctx context.Context, p Provider, req Request) ([]models.Recommendation, error) {
	if cp, ok := p.(ContextProvider); ok {
		return cp.RecommendContext(ctx, req)
	}

	type outcome struct {
		recs []models.Recommendation
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		recs, err := p.Recommend(req)
		done <- outcome{recs: recs, err: err}
	}()

	select {
	case out := <-done:
		return out.recs, out.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// backoffDelay computes the wait before the next retry: base doubled per
// attempt with +-10% jitter, capped at maxRetryDelay.
func (inv *Invoker) backoffDelay(base time.Duration, attempt int) time.Duration {
	delay := float64(base) * math.Pow(2, float64(attempt))
	if delay > float64(maxRetryDelay) {
		delay = float64(maxRetryDelay)
	}

	inv.randMu.Lock()
	jitter := delay * jitterFraction * (inv.rng.Float64()*2 - 1)
	inv.randMu.Unlock()

	return time.Duration(delay + jitter)
}

// IsThrottle reports whether err is a provider rate-limit response.
// Adapters wrap 429s in ErrThrottled; the string checks cover adapters
// that surface raw vendor errors instead.
func IsThrottle(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrThrottled) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") || strings.Contains(msg, "rate limit")
}
