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

// refreshTimeout bounds one profile rebuild, which walks the full library
// snapshot.
const refreshTimeout = 5 * time.Minute

// ProfileRefresher rebuilds the library profile. Satisfied by
// library.Analyzer.
type ProfileRefresher interface {
	Refresh(ctx context.Context) error
}

// ProfileRefreshService keeps the library profile warm so fetch cycles
// rarely pay the rebuild cost inline. It refreshes once on startup and
// then on a fixed schedule.
type ProfileRefreshService struct {
	analyzer ProfileRefresher
	interval time.Duration
	logger   zerolog.Logger
	name     string
}

// NewProfileRefreshService creates the refresh loop. A non-positive
// interval falls back to ten minutes.
//
//nolint:gocritic // hugeParam: logger passed by value for zerolog chaining
func NewProfileRefreshService(analyzer ProfileRefresher, interval time.Duration, logger zerolog.Logger) *ProfileRefreshService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &ProfileRefreshService{
		analyzer: analyzer,
		interval: interval,
		logger:   logger.With().Str("service", "profile-refresh").Logger(),
		name:     "profile-refresh",
	}
}

// Serve implements suture.Service.
func (s *ProfileRefreshService) Serve(ctx context.Context) error {
	s.logger.Info().Dur("interval", s.interval).Msg("Profile refresh service running")

	// Warm the profile immediately; the first fetch cycle should not have
	// to wait for a library scan.
	s.refresh(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Profile refresh service shutting down")
			return ctx.Err()

		case <-ticker.C:
			s.refresh(ctx)
		}
	}
}

func (s *ProfileRefreshService) refresh(ctx context.Context) {
	refreshCtx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()

	start := time.Now()
	if err := s.analyzer.Refresh(refreshCtx); err != nil {
		s.logger.Warn().Err(err).Msg("Profile refresh failed")
		return
	}
	s.logger.Debug().Dur("duration", time.Since(start)).Msg("Library profile refreshed")
}

// String returns the service name for supervisor logging.
func (s *ProfileRefreshService) String() string {
	return s.name
}
