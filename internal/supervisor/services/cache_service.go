// Melodex - AI-Powered Music Discovery for Media Library Managers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// CacheSweeper purges expired entries. Satisfied by cache.Cache.
type CacheSweeper interface {
	Sweep() int
}

// CacheSweepService evicts expired recommendation lists in the background
// so reads rarely pay the expiry check on a stale entry.
type CacheSweepService struct {
	cache    CacheSweeper
	interval time.Duration
	logger   zerolog.Logger
	name     string
}

// NewCacheSweepService creates the sweep loop. A non-positive interval
// falls back to five minutes.
//
//nolint:gocritic // hugeParam: logger passed by value for zerolog chaining
func NewCacheSweepService(cache CacheSweeper, interval time.Duration, logger zerolog.Logger) *CacheSweepService {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &CacheSweepService{
		cache:    cache,
		interval: interval,
		logger:   logger.With().Str("service", "cache-sweep").Logger(),
		name:     "cache-sweep",
	}
}

// Serve implements suture.Service.
func (s *CacheSweepService) Serve(ctx context.Context) error {
	s.logger.Info().Dur("interval", s.interval).Msg("Cache sweep service running")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Cache sweep service shutting down")
			return ctx.Err()

		case <-ticker.C:
			if swept := s.cache.Sweep(); swept > 0 {
				s.logger.Debug().Int("entries", swept).Msg("Expired cache entries swept")
			}
		}
	}
}

// String returns the service name for supervisor logging.
func (s *CacheSweepService) String() string {
	return s.name
}
