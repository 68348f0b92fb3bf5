// Melodex - AI-Powered Music Discovery for Media Library Managers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

package provider

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/melodex/internal/models"
)

// LimiterRegistry holds one pacing limiter per provider, created lazily on
// first use. Cloud vendors enforce their real limits server-side; these
// limiters spread the pipeline's own bursts (multi-chunk plans, top-up
// passes, retries) so a single fetch cycle does not trip them.
type LimiterRegistry struct {
	mu       sync.Mutex
	limiters map[models.Provider]*rate.Limiter
}

// NewLimiterRegistry creates an empty limiter registry.
func NewLimiterRegistry() *LimiterRegistry {
	return &LimiterRegistry{
		limiters: make(map[models.Provider]*rate.Limiter),
	}
}

// Get returns the pacing limiter for the given provider.
func (r *LimiterRegistry) Get(p models.Provider) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if l, ok := r.limiters[p]; ok {
		return l
	}
	limit, burst := providerRate(p)
	l := rate.NewLimiter(limit, burst)
	r.limiters[p] = l
	return l
}

// providerRate returns the pacing rate and burst for a provider. Local
// providers are unthrottled; the user owns the hardware and latency is the
// natural backpressure. Groq and Perplexity get the slowest pacing since
// their free tiers throttle aggressively.
func providerRate(p models.Provider) (rate.Limit, int) {
	switch {
	case p.IsLocal():
		return rate.Inf, 1
	case p == models.ProviderGroq, p == models.ProviderPerplexity:
		return rate.Every(2 * time.Second), 1
	default:
		return rate.Every(time.Second), 2
	}
}
