// Melodex - AI-Powered Music Discovery for Media Library Managers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

// Package gate holds back recommendations that fail the configured safety
// bar: confidence below threshold, or missing MusicBrainz IDs when the
// settings demand them. Held items go to the review queue instead of being
// dropped, and previously accepted review items rejoin the stream here.
package gate

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/tomtom215/melodex/internal/metrics"
	"github.com/tomtom215/melodex/internal/models"
)

// Enqueue reasons recorded on deferred items.
const (
	ReasonLowConfidence = "low_confidence"
	ReasonMissingMBID   = "missing_mbid"
)

// ReviewQueue is the slice of the review queue the gate drives.
type ReviewQueue interface {
	Enqueue(ctx context.Context, rec models.Recommendation, reason string) bool
	Decide(ctx context.Context, keys []string, status models.ReviewStatus) (int, error)
	DequeueAccepted(ctx context.Context) []models.ReviewItem
}

// PersistFunc flushes host-held settings after the gate consumes
// approve-keys. Optional; failures and panics are logged, never propagated.
type PersistFunc func() error

// Gate partitions recommendations into pass-now and needs-review.
type Gate struct {
	queue   ReviewQueue
	persist PersistFunc
	logger  zerolog.Logger
}

// NewGate builds a safety gate over the given review queue. persist may be
// nil when the host has nothing to flush.
//
//nolint:gocritic // hugeParam: logger passed by value for zerolog chaining
func NewGate(queue ReviewQueue, persist PersistFunc, logger zerolog.Logger) (*Gate, error) {
	if queue == nil {
		return nil, fmt.Errorf("gate: nil review queue")
	}
	return &Gate{
		queue:   queue,
		persist: persist,
		logger:  logger.With().Str("component", "gate").Logger(),
	}, nil
}

// Apply partitions recs by the settings' confidence threshold and ID policy,
// queues what fails, merges approved review items back in, and returns the
// list cleared to proceed.
//
// Escape valve: artist mode with required IDs can filter out an entire batch
// because provider-supplied artist IDs are routinely absent or hallucinated.
// When that happens the gate promotes the confident-but-ID-less items, up to
// the cycle target, rather than returning nothing.
func (g *Gate) Apply(ctx context.Context, recs []models.Recommendation, settings models.Settings) []models.Recommendation {
	passNow := make([]models.Recommendation, 0, len(recs))
	var toQueue []models.Recommendation
	var reasons []string

	for i := range recs {
		switch {
		case PassesNow(&recs[i], settings):
			passNow = append(passNow, recs[i])
		case recs[i].Confidence < settings.MinConfidence:
			toQueue = append(toQueue, recs[i])
			reasons = append(reasons, ReasonLowConfidence)
		default:
			toQueue = append(toQueue, recs[i])
			reasons = append(reasons, ReasonMissingMBID)
		}
	}

	promoted := g.promoteIfStarved(passNow, toQueue, reasons, settings)
	if len(promoted) > 0 {
		passNow = append(passNow, promoted...)
	}

	queued := 0
	if settings.QueueBorderline {
		promotedKeys := make(map[string]struct{}, len(promoted))
		for i := range promoted {
			promotedKeys[promoted[i].Key()] = struct{}{}
		}
		for i := range toQueue {
			if _, wasPromoted := promotedKeys[toQueue[i].Key()]; wasPromoted {
				continue
			}
			if g.queue.Enqueue(ctx, toQueue[i], reasons[i]) {
				queued++
			}
		}
	}

	merged := g.mergeApproved(ctx, settings)
	if len(merged) > 0 {
		passNow = append(passNow, merged...)
	}

	g.logger.Debug().
		Int("in", len(recs)).
		Int("passed", len(passNow)).
		Int("queued", queued).
		Int("promoted", len(promoted)).
		Int("merged", len(merged)).
		Msg("Safety gate applied")

	return passNow
}

// promoteIfStarved implements the escape valve. Only items whose sole
// failure is a missing ID qualify; low-confidence items stay gated.
func (g *Gate) promoteIfStarved(passNow, toQueue []models.Recommendation, reasons []string, settings models.Settings) []models.Recommendation {
	if len(passNow) > 0 || settings.Mode != models.ModeArtists || !settings.RequireMBIDs {
		return nil
	}

	candidates := make([]models.Recommendation, 0, len(toQueue))
	for i := range toQueue {
		if reasons[i] == ReasonMissingMBID {
			candidates = append(candidates, toQueue[i])
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})
	limit := settings.MaxRecommendations
	if limit <= 0 || limit > len(candidates) {
		limit = len(candidates)
	}
	promoted := candidates[:limit]

	metrics.RecordEscapeValvePromotions(len(promoted))
	g.logger.Warn().
		Int("promoted", len(promoted)).
		Float64("min_confidence", settings.MinConfidence).
		Msg("ID requirement filtered out every artist; promoting unidentified items")

	return promoted
}

// mergeApproved converts explicit approve-keys into accepted review items,
// then drains everything accepted back into the stream.
func (g *Gate) mergeApproved(ctx context.Context, settings models.Settings) []models.Recommendation {
	if len(settings.ApproveKeys) > 0 {
		n, err := g.queue.Decide(ctx, settings.ApproveKeys, models.StatusAccepted)
		if err != nil {
			g.logger.Warn().Err(err).Msg("Failed to apply approve-keys")
		} else if n > 0 {
			g.logger.Info().
				Int("approved", n).
				Int("keys", len(settings.ApproveKeys)).
				Msg("Approve-keys applied")
		}
		g.firePersist()
	}

	drained := g.queue.DequeueAccepted(ctx)
	if len(drained) == 0 {
		return nil
	}

	merged := make([]models.Recommendation, 0, len(drained))
	for i := range drained {
		merged = append(merged, drained[i].Recommendation)
	}
	return merged
}

// firePersist invokes the host persistence callback, shielding the pipeline
// from its failures.
func (g *Gate) firePersist() {
	if g.persist == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			g.logger.Warn().Interface("panic", r).Msg("Settings persistence callback panicked")
		}
	}()
	if err := g.persist(); err != nil {
		g.logger.Warn().Err(err).Msg("Settings persistence callback failed")
	}
}

// PassesNow reports whether a recommendation clears the gate outright under
// the given settings. Top-up rounds use it as a pure filter: late additions
// must meet the same bar as the main batch, but queueing them would never
// close the deficit the round was asked to close.
func PassesNow(rec *models.Recommendation, settings models.Settings) bool {
	if rec.Confidence < settings.MinConfidence {
		return false
	}
	return !settings.RequireMBIDs || hasRequiredIDs(rec, settings.Mode)
}

// hasRequiredIDs reports whether the recommendation carries every ID the
// mode needs.
func hasRequiredIDs(rec *models.Recommendation, mode models.RecommendMode) bool {
	if mode == models.ModeArtists {
		return rec.HasArtistID()
	}
	return rec.HasArtistID() && rec.HasAlbumID()
}
