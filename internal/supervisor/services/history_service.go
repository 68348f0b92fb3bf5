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

// pruneTimeout bounds one prune pass. Pruning scans day buckets only, so
// this is generous.
const pruneTimeout = time.Minute

// HistoryPruner ages out expired recommendation-history buckets.
// Satisfied by history.Store.
type HistoryPruner interface {
	Prune(ctx context.Context) (int, error)
}

// HistoryPruneService runs the history pruner on a fixed schedule so the
// per-day suggestion buckets do not grow without bound.
type HistoryPruneService struct {
	store    HistoryPruner
	interval time.Duration
	logger   zerolog.Logger
	name     string
}

// NewHistoryPruneService creates the prune loop. A non-positive interval
// falls back to hourly.
//
//nolint:gocritic // hugeParam: logger passed by value for zerolog chaining
func NewHistoryPruneService(store HistoryPruner, interval time.Duration, logger zerolog.Logger) *HistoryPruneService {
	if interval <= 0 {
		interval = time.Hour
	}
	return &HistoryPruneService{
		store:    store,
		interval: interval,
		logger:   logger.With().Str("service", "history-prune").Logger(),
		name:     "history-prune",
	}
}

// Serve implements suture.Service.
func (s *HistoryPruneService) Serve(ctx context.Context) error {
	s.logger.Info().Dur("interval", s.interval).Msg("History prune service running")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("History prune service shutting down")
			return ctx.Err()

		case <-ticker.C:
			s.prune(ctx)
		}
	}
}

func (s *HistoryPruneService) prune(ctx context.Context) {
	pruneCtx, cancel := context.WithTimeout(ctx, pruneTimeout)
	defer cancel()

	pruned, err := s.store.Prune(pruneCtx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("History prune failed")
		return
	}
	if pruned > 0 {
		s.logger.Info().Int("buckets", pruned).Msg("History buckets pruned")
	}
}

// String returns the service name for supervisor logging.
func (s *HistoryPruneService) String() string {
	return s.name
}
