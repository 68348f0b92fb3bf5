// Melodex - AI-Powered Music Discovery for Media Library Managers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

// Package dedup removes repeated suggestions. Three independent operations
// compose into the pipeline's dedup stage: batch-local key dedup,
// history-backed same-day filtering with permanent negative suppression, and
// a concurrency guard that serializes fetches per key.
//
// Library matching is deliberately not here; the library analyzer owns its
// own index and the pipeline calls it as a separate stage.
package dedup

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tomtom215/melodex/internal/models"
)

// History is the slice of the history store the filters need.
type History interface {
	// CheckAndMark atomically tests keys against today's bucket and marks
	// the absent ones. Returns the set of keys already present.
	CheckAndMark(ctx context.Context, keys []string) (map[string]bool, error)

	// Negatives returns which keys carry a permanent rejected/disliked
	// marker.
	Negatives(ctx context.Context, keys []string) (map[string]bool, error)
}

// Deduplicator applies batch and history dedup to import item lists.
type Deduplicator struct {
	history History
	logger  zerolog.Logger
}

// NewDeduplicator builds a deduplicator over the given history store.
//
//nolint:gocritic // hugeParam: logger passed by value for zerolog chaining
func NewDeduplicator(hist History, logger zerolog.Logger) (*Deduplicator, error) {
	if hist == nil {
		return nil, fmt.Errorf("dedup: nil history")
	}
	return &Deduplicator{
		history: hist,
		logger:  logger.With().Str("component", "dedup").Logger(),
	}, nil
}

// DeduplicateBatch removes same-key duplicates within one batch, keeping the
// first occurrence of each normalized key. The input is not mutated.
func (d *Deduplicator) DeduplicateBatch(items []models.ImportItem) []models.ImportItem {
	if len(items) == 0 {
		return items
	}

	seen := make(map[string]struct{}, len(items))
	out := make([]models.ImportItem, 0, len(items))
	for i := range items {
		key := items[i].Key()
		if _, dup := seen[key]; dup {
			d.logger.Debug().
				Str("key", key).
				Msg("Duplicate within batch dropped")
			continue
		}
		seen[key] = struct{}{}
		out = append(out, items[i])
	}

	if dropped := len(items) - len(out); dropped > 0 {
		d.logger.Debug().
			Int("in", len(items)).
			Int("out", len(out)).
			Int("dropped", dropped).
			Msg("Batch dedup complete")
	}
	return out
}

// FilterPreviouslyRecommended drops items the user has rejected or disliked,
// then drops items already suggested earlier this UTC day, marking the
// survivors in today's bucket so a later run filters them. Survivors come
// back in input order.
//
// Items dropped as negative are never marked suggested; they were not
// delivered.
func (d *Deduplicator) FilterPreviouslyRecommended(ctx context.Context, items []models.ImportItem) ([]models.ImportItem, error) {
	if len(items) == 0 {
		return items, nil
	}

	keys := make([]string, len(items))
	for i := range items {
		keys[i] = items[i].Key()
	}

	negative, err := d.history.Negatives(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("negative lookup: %w", err)
	}

	candidates := make([]models.ImportItem, 0, len(items))
	candidateKeys := make([]string, 0, len(keys))
	for i := range items {
		if negative[keys[i]] {
			d.logger.Debug().
				Str("key", keys[i]).
				Msg("Previously rejected item dropped")
			continue
		}
		candidates = append(candidates, items[i])
		candidateKeys = append(candidateKeys, keys[i])
	}

	already, err := d.history.CheckAndMark(ctx, candidateKeys)
	if err != nil {
		return nil, fmt.Errorf("history check: %w", err)
	}

	out := make([]models.ImportItem, 0, len(candidates))
	for i := range candidates {
		if already[candidateKeys[i]] {
			d.logger.Debug().
				Str("key", candidateKeys[i]).
				Msg("Item already suggested today dropped")
			continue
		}
		out = append(out, candidates[i])
	}

	if dropped := len(items) - len(out); dropped > 0 {
		d.logger.Debug().
			Int("in", len(items)).
			Int("out", len(out)).
			Int("negative", len(items)-len(candidates)).
			Int("repeated", len(candidates)-len(out)).
			Msg("History filter complete")
	}
	return out, nil
}
