// Melodex - AI-Powered Music Discovery for Media Library Managers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

package recommend

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tomtom215/melodex/internal/cache"
	"github.com/tomtom215/melodex/internal/dedup"
	"github.com/tomtom215/melodex/internal/library"
	"github.com/tomtom215/melodex/internal/logging"
	"github.com/tomtom215/melodex/internal/metrics"
	"github.com/tomtom215/melodex/internal/models"
	"github.com/tomtom215/melodex/internal/provider"
	"github.com/tomtom215/melodex/internal/sanitize"
)

// HistoryRecorder is the slice of the history store the engine writes to.
type HistoryRecorder interface {
	// RecordSuggested appends suggested entries for the cycle's sanitized
	// recommendations.
	RecordSuggested(ctx context.Context, recs []models.Recommendation) error
}

// EngineParams collects the engine's collaborators. Every field is required.
type EngineParams struct {
	Analyzer  *library.Analyzer
	Cache     *cache.Cache
	Keys      *cache.KeyBuilder
	Guard     *dedup.Guard
	History   HistoryRecorder
	Sanitizer *sanitize.Sanitizer
	Pipeline  *Pipeline
	Fetch     FetchFunc
}

// Engine coordinates one fetch cycle end to end. It is the sole owner of
// cache key construction and of cache reads and writes; no other component
// touches the recommendation cache.
type Engine struct {
	analyzer  *library.Analyzer
	cache     *cache.Cache
	keys      *cache.KeyBuilder
	guard     *dedup.Guard
	history   HistoryRecorder
	sanitizer *sanitize.Sanitizer
	pipeline  *Pipeline
	fetch     FetchFunc
	logger    zerolog.Logger
}

// NewEngine wires a fetch-cycle coordinator.
//
//nolint:gocritic // hugeParam: logger passed by value for zerolog chaining
func NewEngine(p EngineParams, logger zerolog.Logger) (*Engine, error) {
	if p.Analyzer == nil {
		return nil, fmt.Errorf("recommend: nil analyzer")
	}
	if p.Cache == nil {
		return nil, fmt.Errorf("recommend: nil cache")
	}
	if p.Keys == nil {
		return nil, fmt.Errorf("recommend: nil key builder")
	}
	if p.Guard == nil {
		return nil, fmt.Errorf("recommend: nil fetch guard")
	}
	if p.History == nil {
		return nil, fmt.Errorf("recommend: nil history recorder")
	}
	if p.Sanitizer == nil {
		return nil, fmt.Errorf("recommend: nil sanitizer")
	}
	if p.Pipeline == nil {
		return nil, fmt.Errorf("recommend: nil pipeline")
	}
	if p.Fetch == nil {
		return nil, fmt.Errorf("recommend: nil fetch func")
	}
	return &Engine{
		analyzer:  p.Analyzer,
		cache:     p.Cache,
		keys:      p.Keys,
		guard:     p.Guard,
		history:   p.History,
		sanitizer: p.Sanitizer,
		pipeline:  p.Pipeline,
		fetch:     p.Fetch,
		logger:    logger.With().Str("component", "engine").Logger(),
	}, nil
}

// Fetch runs one recommendation cycle. It never returns an error: every
// failure path degrades to an empty list plus logged errors, so the host
// scheduler never sees a throw from this path.
//
//nolint:gocritic // hugeParam: settings passed by value for immutability
func (e *Engine) Fetch(ctx context.Context, settings models.Settings) []models.ImportItem {
	cycleID := logging.GenerateCycleID()
	ctx = logging.ContextWithCycleID(ctx, cycleID)
	logger := e.createCycleLogger(cycleID, settings)
	logger.Debug().Msg("Fetch cycle starting")

	profile, index := e.analyzer.Snapshot(ctx)
	model := provider.EffectiveModel(settings)
	key := e.keys.Build(settings, model, profile)

	if items, ok := e.cache.TryGet(key); ok {
		metrics.RecordFetchCycle("hit")
		logger.Info().
			Int("items", len(items)).
			Msg("Fetch cycle served from cache")
		return items
	}

	items, err := dedup.Do(ctx, e.guard, key, func(ctx context.Context) ([]models.ImportItem, error) {
		return e.runCycle(ctx, logger, key, profile, index, settings)
	})
	if err != nil {
		metrics.RecordFetchCycle("error")
		logger.Error().Err(err).Msg("Fetch cycle failed; returning empty result")
		return []models.ImportItem{}
	}
	return items
}

// runCycle executes the miss path under the fetch guard: provider fetch,
// sanitize, diagnostic schema pass, history record, pipeline, cache store.
//
//nolint:gocritic // hugeParam: settings and logger passed by value
func (e *Engine) runCycle(ctx context.Context, logger zerolog.Logger, key string, profile *models.LibraryProfile, index *library.DuplicateIndex, settings models.Settings) ([]models.ImportItem, error) {
	// A concurrent cycle on the same key may have filled the cache while
	// this one waited for the guard slot.
	if items, ok := e.cache.TryGet(key); ok {
		metrics.RecordFetchCycle("coalesced")
		logger.Debug().
			Int("items", len(items)).
			Msg("Fetch cycle coalesced into a concurrent cycle's result")
		return items, nil
	}

	raw, err := e.fetch(ctx, settings, profile, FetchOptions{})
	if err != nil {
		return nil, fmt.Errorf("provider fetch: %w", err)
	}
	logger.Debug().Int("raw", len(raw)).Msg("Provider fetch complete")

	recs := e.sanitizer.Sanitize(raw)
	e.reportSchema(logger, recs)

	if err := e.history.RecordSuggested(ctx, recs); err != nil {
		logger.Warn().Err(err).Msg("Failed to record suggestion history")
	}

	items, err := e.pipeline.Run(ctx, recs, profile, index, settings)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	metrics.RecordFetchCycle("miss")
	if len(items) > 0 {
		e.cache.Set(key, items)
	}
	return items, nil
}

// reportSchema runs the diagnostic schema pass. Purely telemetry; the report
// never filters the list.
//
//nolint:gocritic // hugeParam: logger passed by value for zerolog chaining
func (e *Engine) reportSchema(logger zerolog.Logger, recs []models.Recommendation) {
	report := sanitize.ValidateSchema(recs)
	if report.Clean() {
		return
	}
	logger.Warn().
		Int("total", report.TotalItems).
		Int("dropped", report.Dropped).
		Int("clamped", report.Clamped).
		Int("trimmed", report.Trimmed).
		Strs("warnings", report.Warnings).
		Msg("Schema validation found issues after sanitization")
}

// createCycleLogger tags every log line of one cycle with its cycle ID.
//
//nolint:gocritic // hugeParam: settings passed by value for immutability
func (e *Engine) createCycleLogger(cycleID string, settings models.Settings) zerolog.Logger {
	return e.logger.With().
		Str("cycle_id", cycleID).
		Str("provider", settings.Provider.String()).
		Str("mode", settings.Mode.String()).
		Int("target", settings.MaxRecommendations).
		Logger()
}
