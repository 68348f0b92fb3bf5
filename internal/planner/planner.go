// Melodex - AI-Powered Music Discovery for Media Library Managers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

// Package planner splits a target recommendation count into
// provider-appropriate request batches and enforces per-request token
// budgets.
//
// Planning is two-phase. Plan produces the ordered batch sizes for a cycle:
// one batch for cloud providers, fixed-size chunks for local ones. Fit then
// trims each batch to its token budget right before it is issued, when the
// rendered prompt length is known: first by shrinking the item count toward
// the provider floor, then by downgrading sampling depth so the caller
// re-renders a leaner prompt, and finally by proceeding best-effort with
// whatever is left. Going over budget never fails a cycle.
package planner

import (
	"github.com/rs/zerolog"

	"github.com/tomtom215/melodex/internal/metrics"
	"github.com/tomtom215/melodex/internal/models"
)

// Version tags the planner's chunking and budget rules. It feeds the cache
// key, so cached recommendation lists invalidate when planning behavior
// changes.
const Version = "1"

// Planner computes batch plans and trims them to token budgets.
type Planner struct {
	logger zerolog.Logger
}

// New creates a planner.
//
//nolint:gocritic // hugeParam: logger passed by value for zerolog chaining
func New(logger zerolog.Logger) *Planner {
	return &Planner{
		logger: logger.With().Str("component", "planner").Logger(),
	}
}

// Plan splits a target count into ordered batch sizes. Cloud providers get
// one batch equal to the target; local providers lose list coherence on
// long asks and get fixed-size chunks instead, with a short remainder batch
// at the end.
func (p *Planner) Plan(target int, settings models.Settings) []int {
	if target <= 0 {
		return nil
	}

	chunk := preferredChunk(settings.Provider)
	if chunk <= 0 || target <= chunk {
		metrics.RecordPlannerBatch(target)
		return []int{target}
	}

	sizes := make([]int, 0, (target+chunk-1)/chunk)
	for remaining := target; remaining > 0; remaining -= chunk {
		size := chunk
		if remaining < chunk {
			size = remaining
		}
		sizes = append(sizes, size)
		metrics.RecordPlannerBatch(size)
	}

	p.logger.Debug().
		Str("provider", settings.Provider.String()).
		Int("target", target).
		Int("batches", len(sizes)).
		Int("chunk", chunk).
		Msg("Planned multi-batch fetch")
	return sizes
}

// FitResult is the outcome of trimming one batch to its token budget.
type FitResult struct {
	// Size is the adjusted batch size.
	Size int

	// Sampling is the strategy to render the prompt with. When it differs
	// from the requested strategy, the caller re-renders before issuing.
	Sampling models.SamplingStrategy

	// Budget and Estimate record the decision inputs for logging.
	Budget   int
	Estimate int
}

// Fit trims one batch to the token budget of its provider and model.
// promptChars is the rendered prompt length at the requested sampling
// depth.
//
// Levers in order: shrink the item count toward the provider floor (cheap,
// keeps prompt quality), then downgrade sampling depth (the re-rendered
// prompt carries less library context), then give up and proceed with the
// floor-sized batch. The estimate after a downgrade still reflects the old
// prompt length; the caller's re-render is what realizes the savings.
func (p *Planner) Fit(promptChars, size int, settings models.Settings, model string) FitResult {
	res := FitResult{
		Size:     size,
		Sampling: settings.Sampling,
		Budget:   Budget(settings, model),
		Estimate: EstimateTokens(promptChars, size),
	}
	if size <= 0 || res.Estimate <= res.Budget {
		return res
	}

	providerName := settings.Provider.String()
	floor := batchFloor(settings.Provider)
	if floor > size {
		floor = size
	}

	maxItems := (res.Budget - promptChars/charsPerToken - overheadTokens) / perItemTokens
	if maxItems >= floor {
		res.Size = maxItems
		res.Estimate = EstimateTokens(promptChars, maxItems)
		metrics.RecordPlannerShrink(providerName, model)
		p.logger.Debug().
			Str("provider", providerName).
			Str("model", model).
			Int("requested", size).
			Int("size", res.Size).
			Int("budget", res.Budget).
			Msg("Shrank batch to fit token budget")
		return res
	}

	// Even the floor breaks the budget. Keep the floor and cut prompt
	// depth instead.
	res.Size = floor
	res.Estimate = EstimateTokens(promptChars, floor)
	metrics.RecordPlannerShrink(providerName, model)

	if downgraded := res.Sampling.Downgrade(); downgraded != res.Sampling {
		res.Sampling = downgraded
		metrics.RecordSamplingDowngrade(providerName, model)
		p.logger.Info().
			Str("provider", providerName).
			Str("model", model).
			Str("sampling", downgraded.String()).
			Int("size", res.Size).
			Int("budget", res.Budget).
			Msg("Downgraded sampling depth to fit token budget")
		return res
	}

	p.logger.Warn().
		Str("provider", providerName).
		Str("model", model).
		Int("size", res.Size).
		Int("estimate", res.Estimate).
		Int("budget", res.Budget).
		Msg("Batch over budget at minimum size and depth; proceeding best-effort")
	return res
}
