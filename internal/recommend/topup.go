// Melodex - AI-Powered Music Discovery for Media Library Managers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

package recommend

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/tomtom215/melodex/internal/dedup"
	"github.com/tomtom215/melodex/internal/gate"
	"github.com/tomtom215/melodex/internal/metrics"
	"github.com/tomtom215/melodex/internal/models"
	"github.com/tomtom215/melodex/internal/sanitize"
)

// maxTopUpPasses bounds how many scoped provider calls one cycle may spend
// closing a deficit.
const maxTopUpPasses = 3

// TopUp re-issues scoped provider fetches to close the gap between what a
// cycle delivered and what it was asked for. Each pass requests only the
// remaining deficit, in aggressive mode, with everything already seen
// excluded both in the prompt and by a hard post-filter.
type TopUp struct {
	fetch     FetchFunc
	sanitizer *sanitize.Sanitizer
	dedup     *dedup.Deduplicator
	logger    zerolog.Logger
}

// NewTopUp builds a top-up planner over the given fetch path.
//
//nolint:gocritic // hugeParam: logger passed by value for zerolog chaining
func NewTopUp(fetch FetchFunc, sanitizer *sanitize.Sanitizer, ded *dedup.Deduplicator, logger zerolog.Logger) (*TopUp, error) {
	if fetch == nil {
		return nil, fmt.Errorf("recommend: nil fetch func")
	}
	if sanitizer == nil {
		return nil, fmt.Errorf("recommend: nil sanitizer")
	}
	if ded == nil {
		return nil, fmt.Errorf("recommend: nil deduplicator")
	}
	return &TopUp{
		fetch:     fetch,
		sanitizer: sanitizer,
		dedup:     ded,
		logger:    logger.With().Str("component", "topup").Logger(),
	}, nil
}

// Fill gathers up to deficit items the cycle has not seen, excluding the
// given keys. It never errors: exhaustion, provider failures, and
// cancellation all return whatever was gathered, possibly nothing. The
// caller's exclusion set is not mutated.
//
//nolint:gocritic // hugeParam: settings passed by value for immutability
func (t *TopUp) Fill(ctx context.Context, deficit int, exclude map[string]struct{}, profile *models.LibraryProfile, settings models.Settings) []models.ImportItem {
	if deficit <= 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(exclude)+deficit)
	for key := range exclude {
		seen[key] = struct{}{}
	}

	gathered := make([]models.ImportItem, 0, deficit)
	passes := 0
	for pass := 1; pass <= maxTopUpPasses && len(gathered) < deficit; pass++ {
		if ctx.Err() != nil {
			break
		}
		passes = pass
		need := deficit - len(gathered)
		metrics.RecordTopUpPass()

		raw, err := t.fetch(ctx, settings.WithTarget(need), profile, FetchOptions{
			Aggressive:  true,
			ExcludeKeys: sortedKeys(seen),
		})
		if err != nil {
			t.logger.Warn().
				Err(err).
				Int("pass", pass).
				Int("need", need).
				Msg("Top-up fetch failed; trying next pass")
			continue
		}
		if len(raw) == 0 {
			t.logger.Debug().
				Int("pass", pass).
				Msg("Top-up fetch returned nothing; stopping")
			break
		}

		items, err := t.harden(ctx, raw, seen, settings)
		if err != nil {
			t.logger.Warn().
				Err(err).
				Int("pass", pass).
				Msg("Top-up dedup failed; returning what was gathered")
			break
		}

		if len(items) > need {
			items = items[:need]
		}
		for i := range items {
			seen[items[i].Key()] = struct{}{}
		}
		gathered = append(gathered, items...)
	}

	t.logger.Debug().
		Int("deficit", deficit).
		Int("gathered", len(gathered)).
		Int("passes", passes).
		Msg("Top-up complete")
	return gathered
}

// harden runs a top-up batch through the same bar as the main path:
// sanitize, mode-normalize, outright gate pass, exclusion filter, then
// history and session dedup. Borderline items are dropped rather than
// queued; a top-up that queued them would never close its deficit.
//
//nolint:gocritic // hugeParam: settings passed by value for immutability
func (t *TopUp) harden(ctx context.Context, raw []models.Recommendation, seen map[string]struct{}, settings models.Settings) ([]models.ImportItem, error) {
	recs := t.sanitizer.Sanitize(raw)

	kept := make([]models.Recommendation, 0, len(recs))
	for i := range recs {
		rec := normalizeForMode(recs[i], settings.Mode)
		if !gate.PassesNow(&rec, settings) {
			continue
		}
		if _, dup := seen[rec.Key()]; dup {
			continue
		}
		kept = append(kept, rec)
	}

	items, err := t.dedup.FilterPreviouslyRecommended(ctx, convertStage(kept))
	if err != nil {
		return nil, err
	}
	return t.dedup.DeduplicateBatch(items), nil
}

// sortedKeys flattens an exclusion set for deterministic prompts.
func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
