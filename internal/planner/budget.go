// Melodex - AI-Powered Music Discovery for Media Library Managers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

package planner

import (
	"strings"

	"github.com/tomtom215/melodex/internal/models"
)

const (
	// charsPerToken is the rough prompt-text-to-token ratio. Good enough
	// for budgeting; exact tokenization is vendor-specific.
	charsPerToken = 4

	// perItemTokens estimates the completion cost of one recommendation:
	// artist, album, genre, a one-line reason, and JSON scaffolding.
	perItemTokens = 50

	// overheadTokens covers the system prompt and response framing.
	overheadTokens = 500

	// localBudgetMultiplier widens budgets for local providers. The user
	// pays no per-token cost there; hardware is the only limit.
	localBudgetMultiplier = 2
)

// EstimateTokens approximates the total token cost of one request:
// rendered prompt plus the expected completion for count items.
func EstimateTokens(promptChars, count int) int {
	if promptChars < 0 {
		promptChars = 0
	}
	if count < 0 {
		count = 0
	}
	return promptChars/charsPerToken + count*perItemTokens + overheadTokens
}

// Budget returns the token budget for one request under the given settings
// and resolved model. Base budgets come from the sampling strategy, local
// providers get a multiplier, an explicit override replaces the computed
// value, and the model-family ceiling caps whatever survives.
func Budget(settings models.Settings, model string) int {
	budget := samplingBudget(settings.Sampling)
	if settings.Provider.IsLocal() {
		budget *= localBudgetMultiplier
	}
	if settings.TokenBudgetOverride > 0 {
		budget = settings.TokenBudgetOverride
	}
	if ceiling := modelCeiling(model); budget > ceiling {
		budget = ceiling
	}
	return budget
}

// samplingBudget is the base token budget per sampling strategy.
func samplingBudget(s models.SamplingStrategy) int {
	switch s {
	case models.SamplingMinimal:
		return 4000
	case models.SamplingComprehensive:
		return 16000
	default:
		return 8000
	}
}

// modelCeiling returns the hard per-request ceiling for a model family.
// Ceilings keep overrides honest: large-context families take 120k tokens,
// everything else is capped at 32k.
func modelCeiling(model string) int {
	m := strings.ToLower(model)
	switch {
	case strings.HasPrefix(m, "gpt-4"),
		strings.HasPrefix(m, "o4"),
		strings.HasPrefix(m, "claude"),
		strings.HasPrefix(m, "gemini"),
		strings.HasPrefix(m, "deepseek"):
		return 120000
	default:
		return 32000
	}
}

// preferredChunk is the batch size a provider handles comfortably in one
// request. Zero means no chunking.
func preferredChunk(p models.Provider) int {
	if p.IsLocal() {
		return 10
	}
	return 0
}

// batchFloor is the smallest batch worth issuing; below this the fixed
// overhead dominates and another round trip beats a tiny ask.
func batchFloor(p models.Provider) int {
	if p.IsLocal() {
		return 3
	}
	return 5
}
