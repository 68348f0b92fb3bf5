// Melodex - AI-Powered Music Discovery for Media Library Managers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

package recommend

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tomtom215/melodex/internal/models"
	"github.com/tomtom215/melodex/internal/planner"
	"github.com/tomtom215/melodex/internal/provider"
)

// FetchOptions carries the per-call variations of a provider fetch.
type FetchOptions struct {
	// Aggressive asks the provider to hit the requested count exactly.
	// Top-up passes set it; the primary fetch does not.
	Aggressive bool

	// ExcludeKeys lists normalized keys the fetch must steer away from,
	// sorted by the caller so prompts stay deterministic.
	ExcludeKeys []string
}

// FetchFunc obtains raw recommendations from a provider. The engine runs one
// per cycle and the top-up planner re-invokes it scoped to a deficit.
// Implementations return what they gathered when the context is cancelled
// mid-run; an error means nothing usable was produced.
type FetchFunc func(ctx context.Context, settings models.Settings, profile *models.LibraryProfile, opts FetchOptions) ([]models.Recommendation, error)

// Fetcher is the default FetchFunc: it renders profile-aware prompts, sizes
// batches through the planner, and executes them through the invoker.
type Fetcher struct {
	invoker *provider.Invoker
	planner *planner.Planner
	logger  zerolog.Logger
}

// NewFetcher builds the default provider fetch path.
//
//nolint:gocritic // hugeParam: logger passed by value for zerolog chaining
func NewFetcher(invoker *provider.Invoker, plan *planner.Planner, logger zerolog.Logger) (*Fetcher, error) {
	if invoker == nil {
		return nil, fmt.Errorf("recommend: nil invoker")
	}
	if plan == nil {
		return nil, fmt.Errorf("recommend: nil planner")
	}
	return &Fetcher{
		invoker: invoker,
		planner: plan,
		logger:  logger.With().Str("component", "fetcher").Logger(),
	}, nil
}

// Fetch runs the batch plan for the cycle target and aggregates the results.
// A failed batch is logged and skipped; the next batch still runs. An error
// comes back only when nothing was gathered at all.
//
//nolint:gocritic // hugeParam: settings passed by value for immutability
func (f *Fetcher) Fetch(ctx context.Context, settings models.Settings, profile *models.LibraryProfile, opts FetchOptions) ([]models.Recommendation, error) {
	model := provider.EffectiveModel(settings)
	batches := f.planner.Plan(settings.MaxRecommendations, settings)

	out := make([]models.Recommendation, 0, settings.MaxRecommendations)
	var lastErr error

	for i, size := range batches {
		if ctx.Err() != nil {
			break
		}

		req := f.buildRequest(model, size, settings, profile, opts)
		recs, err := f.invoker.Invoke(ctx, settings, req)
		if err != nil {
			lastErr = err
			f.logger.Warn().
				Err(err).
				Int("batch", i+1).
				Int("batches", len(batches)).
				Int("size", req.MaxItems).
				Msg("Batch failed; continuing with remaining batches")
			continue
		}
		out = append(out, recs...)
	}

	if len(out) == 0 {
		switch {
		case lastErr != nil:
			return nil, lastErr
		case ctx.Err() != nil:
			return nil, ctx.Err()
		}
	}
	return out, nil
}

// buildRequest renders the batch prompt and fits it to the token budget,
// re-rendering leaner when the planner shrinks the batch or downgrades
// sampling.
//
//nolint:gocritic // hugeParam: settings passed by value for immutability
func (f *Fetcher) buildRequest(model string, size int, settings models.Settings, profile *models.LibraryProfile, opts FetchOptions) provider.Request {
	in := promptInput{
		Profile:    profile,
		Settings:   settings,
		Count:      size,
		Sampling:   settings.Sampling,
		Exclude:    opts.ExcludeKeys,
		Aggressive: opts.Aggressive,
	}
	prompt := renderPrompt(in)

	fit := f.planner.Fit(len(prompt), size, settings, model)
	if fit.Size != size || fit.Sampling != settings.Sampling {
		in.Count = fit.Size
		in.Sampling = fit.Sampling
		prompt = renderPrompt(in)
	}

	return provider.Request{Model: model, Prompt: prompt, MaxItems: fit.Size}
}
