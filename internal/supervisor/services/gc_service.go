// Melodex - AI-Powered Music Discovery for Media Library Managers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

package services

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"github.com/tomtom215/melodex/internal/storage"
)

// defaultDiscardRatio reclaims a value-log file once half of it is stale,
// badger's recommended starting point.
const defaultDiscardRatio = 0.5

// StoreGCService runs badger value-log garbage collection on a schedule.
// Badger never reclaims value-log space on its own; without this loop the
// store grows monotonically.
type StoreGCService struct {
	db           *badger.DB
	interval     time.Duration
	discardRatio float64
	logger       zerolog.Logger
	name         string
}

// NewStoreGCService creates the GC loop. A non-positive interval falls
// back to ten minutes; a ratio outside (0, 1) falls back to the default.
//
//nolint:gocritic // hugeParam: logger passed by value for zerolog chaining
func NewStoreGCService(db *badger.DB, interval time.Duration, discardRatio float64, logger zerolog.Logger) *StoreGCService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	if discardRatio <= 0 || discardRatio >= 1 {
		discardRatio = defaultDiscardRatio
	}
	return &StoreGCService{
		db:           db,
		interval:     interval,
		discardRatio: discardRatio,
		logger:       logger.With().Str("service", "store-gc").Logger(),
		name:         "store-gc",
	}
}

// Serve implements suture.Service.
func (s *StoreGCService) Serve(ctx context.Context) error {
	s.logger.Info().
		Dur("interval", s.interval).
		Float64("discard_ratio", s.discardRatio).
		Msg("Store GC service running")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Store GC service shutting down")
			return ctx.Err()

		case <-ticker.C:
			if err := storage.RunGC(s.db, s.discardRatio); err != nil {
				s.logger.Warn().Err(err).Msg("Store GC pass failed")
			}
		}
	}
}

// String returns the service name for supervisor logging.
func (s *StoreGCService) String() string {
	return s.name
}
