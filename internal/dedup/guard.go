// Melodex - AI-Powered Music Discovery for Media Library Managers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

package dedup

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/melodex/internal/metrics"
)

// ErrFetchTimeout is returned when another fetch for the same key holds the
// slot past the acquire timeout.
var ErrFetchTimeout = errors.New("dedup: timed out waiting for in-flight fetch")

const (
	// defaultAcquireTimeout bounds how long a caller waits for the per-key
	// slot before giving up.
	defaultAcquireTimeout = 30 * time.Second

	// defaultMinSpacing is the minimum interval between fetches on the same
	// key.
	defaultMinSpacing = 5 * time.Second
)

// Guard ensures at most one in-flight fetch per key and spaces repeated
// fetches on the same key apart. Keyed state is never evicted; cardinality
// is bounded by the distinct settings keys in use.
type Guard struct {
	logger         zerolog.Logger
	acquireTimeout time.Duration
	minSpacing     time.Duration

	mu      sync.Mutex
	entries map[string]*guardEntry
}

type guardEntry struct {
	sem     chan struct{}
	limiter *rate.Limiter
}

// NewGuard builds a fetch guard. Non-positive acquireTimeout or minSpacing
// selects the default.
//
//nolint:gocritic // hugeParam: logger passed by value for zerolog chaining
func NewGuard(acquireTimeout, minSpacing time.Duration, logger zerolog.Logger) *Guard {
	if acquireTimeout <= 0 {
		acquireTimeout = defaultAcquireTimeout
	}
	if minSpacing <= 0 {
		minSpacing = defaultMinSpacing
	}
	return &Guard{
		logger:         logger.With().Str("component", "fetch_guard").Logger(),
		acquireTimeout: acquireTimeout,
		minSpacing:     minSpacing,
		entries:        make(map[string]*guardEntry),
	}
}

func (g *Guard) entry(key string) *guardEntry {
	g.mu.Lock()
	defer g.mu.Unlock()

	e, ok := g.entries[key]
	if !ok {
		e = &guardEntry{
			sem:     make(chan struct{}, 1),
			limiter: rate.NewLimiter(rate.Every(g.minSpacing), 1),
		}
		g.entries[key] = e
	}
	return e
}

// Do runs fn under the key's slot. It waits up to the acquire timeout for an
// in-flight fetch on the same key to finish, then delays as needed to keep
// fetches on the key at least the minimum spacing apart.
func Do[T any](ctx context.Context, g *Guard, key string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	e := g.entry(key)

	acquire := time.NewTimer(g.acquireTimeout)
	defer acquire.Stop()
	select {
	case e.sem <- struct{}{}:
	case <-acquire.C:
		metrics.RecordGuardTimeout()
		g.logger.Warn().
			Str("key", key).
			Dur("timeout", g.acquireTimeout).
			Msg("Fetch slot acquire timed out")
		return zero, ErrFetchTimeout
	case <-ctx.Done():
		return zero, ctx.Err()
	}
	defer func() { <-e.sem }()

	res := e.limiter.Reserve()
	if delay := res.Delay(); delay > 0 {
		metrics.RecordGuardThrottle()
		g.logger.Debug().
			Str("key", key).
			Dur("delay", delay).
			Msg("Fetch throttled")

		wait := time.NewTimer(delay)
		defer wait.Stop()
		select {
		case <-wait.C:
		case <-ctx.Done():
			res.Cancel()
			return zero, ctx.Err()
		}
	}

	return fn(ctx)
}
