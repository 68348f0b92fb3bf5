// Melodex - AI-Powered Music Discovery for Media Library Managers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

package models

import "time"

// Settings is the read-only bag of knobs shaping one fetch cycle. The engine
// builds it from configuration, optionally patched by per-request overrides,
// and threads it unchanged through every pipeline stage.
//
// Settings is treated as immutable once a fetch cycle starts; the one
// exception is ApproveKeys, which the safety gate consumes and clears via the
// engine's persistence callback.
type Settings struct {
	// Provider is the AI backend to query.
	Provider Provider `json:"provider"`

	// Model is the model identifier passed to the provider.
	Model string `json:"model"`

	// BaseURL addresses local providers (Ollama, LM Studio).
	BaseURL string `json:"base_url,omitempty"`

	// APIKey authenticates against cloud providers. Never logged.
	APIKey string `json:"-"`

	// MaxRecommendations is the target item count for the cycle.
	MaxRecommendations int `json:"max_recommendations"`

	// Mode selects albums or artists.
	Mode RecommendMode `json:"mode"`

	// Discovery tunes how adventurous suggestions should be.
	Discovery DiscoveryMode `json:"discovery"`

	// Sampling controls prompt context depth.
	Sampling SamplingStrategy `json:"sampling"`

	// StyleFilters restricts suggestions to the named styles. Order does
	// not matter; the cache key builder sorts them.
	StyleFilters []string `json:"style_filters,omitempty"`

	// MinConfidence is the safety-gate threshold in [0, 1].
	MinConfidence float64 `json:"min_confidence"`

	// RequireMBIDs queues items that lack MusicBrainz IDs after
	// enrichment.
	RequireMBIDs bool `json:"require_mbids"`

	// QueueBorderline sends gate failures to the review queue instead of
	// dropping them.
	QueueBorderline bool `json:"queue_borderline"`

	// ApproveKeys pre-approves normalized "artist|album" keys. Consumed by
	// the gate and cleared afterwards.
	ApproveKeys []string `json:"approve_keys,omitempty"`

	// Iterative enables top-up passes when a cycle lands short of target.
	Iterative bool `json:"iterative"`

	// TokenBudgetOverride replaces the computed token budget when > 0.
	TokenBudgetOverride int `json:"token_budget_override,omitempty"`

	// Timeout bounds a single provider request.
	Timeout time.Duration `json:"-"`

	// MaxRetries is the retry count for failed provider calls.
	MaxRetries int `json:"-"`

	// RetryBaseDelay seeds the exponential retry backoff.
	RetryBaseDelay time.Duration `json:"-"`
}

// WithTarget returns a copy of the settings with MaxRecommendations replaced.
// The top-up planner uses this to re-issue a cycle scoped to a deficit
// without mutating the caller's settings.
func (s Settings) WithTarget(target int) Settings {
	s.MaxRecommendations = target
	return s
}
