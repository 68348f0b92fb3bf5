// Melodex - AI-Powered Music Discovery for Media Library Managers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

package recommend

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tomtom215/melodex/internal/dedup"
	"github.com/tomtom215/melodex/internal/library"
	"github.com/tomtom215/melodex/internal/metrics"
	"github.com/tomtom215/melodex/internal/models"
	"github.com/tomtom215/melodex/internal/sanitize"
)

// Enricher resolves external MusicBrainz IDs for candidate recommendations.
// Artist mode resolves the artist ID only; album mode resolves both. The
// lookup is a network collaborator owned by the host with its own retry
// semantics; the pipeline only threads the context through.
type Enricher interface {
	Enrich(ctx context.Context, recs []models.Recommendation, mode models.RecommendMode) []models.Recommendation
}

// NopEnricher is the default Enricher when no external lookup is wired. It
// returns the input unchanged, leaving ID-requiring gates to queue or
// promote as configured.
type NopEnricher struct{}

// Enrich implements Enricher.
func (NopEnricher) Enrich(_ context.Context, recs []models.Recommendation, _ models.RecommendMode) []models.Recommendation {
	return recs
}

// SafetyGate partitions recommendations into immediate passes and queued
// borderline items, merging back anything the operator approved.
type SafetyGate interface {
	Apply(ctx context.Context, recs []models.Recommendation, settings models.Settings) []models.Recommendation
}

// Pipeline applies the ordered hardening stages to sanitized provider
// output. Stages never reorder; each logs its in/out counts so a shrinking
// cycle can be traced to the stage that shrank it.
type Pipeline struct {
	enricher Enricher
	gate     SafetyGate
	dedup    *dedup.Deduplicator
	topup    *TopUp
	logger   zerolog.Logger
}

// NewPipeline wires the pipeline's collaborators. All are required.
//
//nolint:gocritic // hugeParam: logger passed by value for zerolog chaining
func NewPipeline(enricher Enricher, gate SafetyGate, ded *dedup.Deduplicator, topup *TopUp, logger zerolog.Logger) (*Pipeline, error) {
	if enricher == nil {
		return nil, fmt.Errorf("recommend: nil enricher")
	}
	if gate == nil {
		return nil, fmt.Errorf("recommend: nil gate")
	}
	if ded == nil {
		return nil, fmt.Errorf("recommend: nil deduplicator")
	}
	if topup == nil {
		return nil, fmt.Errorf("recommend: nil top-up planner")
	}
	return &Pipeline{
		enricher: enricher,
		gate:     gate,
		dedup:    ded,
		topup:    topup,
		logger:   logger.With().Str("component", "pipeline").Logger(),
	}, nil
}

// Run executes the hardening stages in order on an already-sanitized batch.
// Cancellation at a stage boundary before conversion aborts with the context
// error; after conversion the aggregated items are returned as they stand.
// An empty input is not short-circuited: the gate still runs, so operator
// approvals merge into the cycle even when the provider came back empty.
//
//nolint:gocritic // hugeParam: settings passed by value for immutability
func (p *Pipeline) Run(ctx context.Context, recs []models.Recommendation, profile *models.LibraryProfile, index *library.DuplicateIndex, settings models.Settings) ([]models.ImportItem, error) {
	valid := p.validateStage(recs, settings.Mode)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fresh := p.filterExistingStage(valid, index, settings.Mode)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	enriched := p.enrichStage(ctx, fresh, settings.Mode)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	passed := p.gateStage(ctx, enriched, settings)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	items, err := p.dedupStage(ctx, convertStage(passed), index, settings.Mode)
	if err != nil {
		return nil, err
	}

	items = p.topUpStage(ctx, items, profile, index, settings)

	p.logFinalCount(items, settings.MaxRecommendations)
	return items, nil
}

// validateStage drops structurally invalid items and blanks album fields in
// artist mode so every downstream key is mode-correct.
func (p *Pipeline) validateStage(recs []models.Recommendation, mode models.RecommendMode) []models.Recommendation {
	out := make([]models.Recommendation, 0, len(recs))
	for i := range recs {
		if !sanitize.IsValid(recs[i]) {
			continue
		}
		out = append(out, normalizeForMode(recs[i], mode))
	}
	p.logStage("validate", len(recs), len(out))
	return out
}

// filterExistingStage drops items the library already holds. Artist mode
// compares artist keys only; album mode compares artist plus album pairs.
func (p *Pipeline) filterExistingStage(recs []models.Recommendation, index *library.DuplicateIndex, mode models.RecommendMode) []models.Recommendation {
	out := make([]models.Recommendation, 0, len(recs))
	for i := range recs {
		if index.IsDuplicate(&recs[i], mode) {
			continue
		}
		out = append(out, recs[i])
	}
	p.logStage("filter_existing", len(recs), len(out))
	return out
}

// enrichStage hands the batch to the external ID lookup.
func (p *Pipeline) enrichStage(ctx context.Context, recs []models.Recommendation, mode models.RecommendMode) []models.Recommendation {
	out := p.enricher.Enrich(ctx, recs, mode)
	p.logStage("enrich", len(recs), len(out))
	return out
}

// gateStage applies the safety gate. The gate may grow the list when it
// merges operator-approved review items back into the cycle.
//
//nolint:gocritic // hugeParam: settings passed by value for immutability
func (p *Pipeline) gateStage(ctx context.Context, recs []models.Recommendation, settings models.Settings) []models.Recommendation {
	out := p.gate.Apply(ctx, recs, settings)
	p.logStage("gate", len(recs), len(out))
	return out
}

// convertStage maps gate survivors into the host import format. Always
// returns a non-nil slice; an empty cycle is an empty list, never nil.
func convertStage(recs []models.Recommendation) []models.ImportItem {
	items := make([]models.ImportItem, 0, len(recs))
	for i := range recs {
		items = append(items, models.NewImportItem(recs[i]))
	}
	return items
}

// dedupStage runs the three dedup tiers in order: history, library, session.
// The history tier is the only one that can error; its storage failure
// aborts the cycle rather than risking repeat suggestions.
func (p *Pipeline) dedupStage(ctx context.Context, items []models.ImportItem, index *library.DuplicateIndex, mode models.RecommendMode) ([]models.ImportItem, error) {
	filtered, err := p.dedup.FilterPreviouslyRecommended(ctx, items)
	if err != nil {
		return nil, fmt.Errorf("history dedup: %w", err)
	}
	p.logStage("dedup_history", len(items), len(filtered))

	kept := p.filterLibraryItems(filtered, index, mode)

	out := p.dedup.DeduplicateBatch(kept)
	p.logStage("dedup_session", len(kept), len(out))
	return out, nil
}

// filterLibraryItems re-checks converted items against the library index.
// Redundant for the primary path, which filtered recommendations up front,
// but it is what catches top-up merges.
func (p *Pipeline) filterLibraryItems(items []models.ImportItem, index *library.DuplicateIndex, mode models.RecommendMode) []models.ImportItem {
	out := make([]models.ImportItem, 0, len(items))
	for i := range items {
		if itemInLibrary(&items[i], index, mode) {
			continue
		}
		out = append(out, items[i])
	}
	p.logStage("dedup_library", len(items), len(out))
	return out
}

// topUpStage closes a deficit through the top-up planner when iterative mode
// is on, then re-runs the library and session tiers across the merge. The
// history tier is not re-run: its check-and-mark already recorded the main
// items, and the top-up planner history-filters its own additions.
//
//nolint:gocritic // hugeParam: settings passed by value for immutability
func (p *Pipeline) topUpStage(ctx context.Context, items []models.ImportItem, profile *models.LibraryProfile, index *library.DuplicateIndex, settings models.Settings) []models.ImportItem {
	target := settings.MaxRecommendations
	if !settings.Iterative || target <= 0 || len(items) >= target || ctx.Err() != nil {
		return items
	}

	exclude := make(map[string]struct{}, len(items))
	for i := range items {
		exclude[items[i].Key()] = struct{}{}
	}

	got := p.topup.Fill(ctx, target-len(items), exclude, profile, settings)
	if len(got) == 0 {
		return items
	}

	merged := p.filterLibraryItems(append(items, got...), index, settings.Mode)
	out := p.dedup.DeduplicateBatch(merged)
	p.logStage("dedup_session", len(merged), len(out))
	return out
}

// logFinalCount reports delivery against target. Falling short is not a
// failure; partial results are valid output.
func (p *Pipeline) logFinalCount(items []models.ImportItem, target int) {
	metrics.RecordDelivery(len(items), target)

	if target > 0 && len(items) < target {
		p.logger.Warn().
			Int("delivered", len(items)).
			Int("target", target).
			Msg("Cycle finished short of target")
		return
	}
	p.logger.Info().
		Int("delivered", len(items)).
		Int("target", target).
		Msg("Cycle delivered")
}

// logStage records a stage's in/out counts and feeds the drop metric.
func (p *Pipeline) logStage(stage string, in, out int) {
	if dropped := in - out; dropped > 0 {
		metrics.RecordStageDrop(stage, dropped)
	}
	p.logger.Debug().
		Str("stage", stage).
		Int("in", in).
		Int("out", out).
		Msg("Pipeline stage complete")
}

// normalizeForMode blanks album fields in artist mode; artist-only keys must
// not vary with whatever album text the provider volunteered.
func normalizeForMode(rec models.Recommendation, mode models.RecommendMode) models.Recommendation {
	if mode == models.ModeArtists {
		rec.Album = ""
		rec.MusicBrainzAlbumID = ""
	}
	return rec
}

// itemInLibrary is the mode-aware library membership test for import items.
func itemInLibrary(item *models.ImportItem, index *library.DuplicateIndex, mode models.RecommendMode) bool {
	if mode == models.ModeArtists {
		return index.ContainsArtist(item.Artist)
	}
	return index.ContainsAlbum(item.Artist, item.Album)
}
