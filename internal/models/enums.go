// Melodex - AI-Powered Music Discovery for Media Library Managers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

package models

import "fmt"

// Provider identifies an AI backend. The set is closed: adding a provider
// means extending this enum and every switch over it.
type Provider int

const (
	// ProviderOllama is a local Ollama instance.
	ProviderOllama Provider = iota
	// ProviderLMStudio is a local LM Studio instance.
	ProviderLMStudio
	// ProviderOpenAI is the OpenAI API.
	ProviderOpenAI
	// ProviderAnthropic is the Anthropic API.
	ProviderAnthropic
	// ProviderGemini is the Google Gemini API.
	ProviderGemini
	// ProviderGroq is the Groq API.
	ProviderGroq
	// ProviderDeepSeek is the DeepSeek API.
	ProviderDeepSeek
	// ProviderPerplexity is the Perplexity API.
	ProviderPerplexity
	// ProviderOpenRouter is the OpenRouter aggregator API.
	ProviderOpenRouter
)

// Providers lists every known provider in declaration order.
var Providers = []Provider{
	ProviderOllama,
	ProviderLMStudio,
	ProviderOpenAI,
	ProviderAnthropic,
	ProviderGemini,
	ProviderGroq,
	ProviderDeepSeek,
	ProviderPerplexity,
	ProviderOpenRouter,
}

// String returns the canonical lower-case provider name used in config,
// metrics labels, and API payloads.
func (p Provider) String() string {
	switch p {
	case ProviderOllama:
		return "ollama"
	case ProviderLMStudio:
		return "lmstudio"
	case ProviderOpenAI:
		return "openai"
	case ProviderAnthropic:
		return "anthropic"
	case ProviderGemini:
		return "gemini"
	case ProviderGroq:
		return "groq"
	case ProviderDeepSeek:
		return "deepseek"
	case ProviderPerplexity:
		return "perplexity"
	case ProviderOpenRouter:
		return "openrouter"
	default:
		return "unknown"
	}
}

// IsLocal reports whether the provider runs on the user's own hardware.
// Local providers are addressed by URL, need no API key, and get a token
// budget multiplier since the user pays no per-token cost.
func (p Provider) IsLocal() bool {
	return p == ProviderOllama || p == ProviderLMStudio
}

// ParseProvider maps a provider name to its enum value.
func ParseProvider(s string) (Provider, error) {
	for _, p := range Providers {
		if p.String() == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown provider %q", s)
}

// RecommendMode selects what gets recommended.
type RecommendMode int

const (
	// ModeSpecificAlbums recommends concrete albums (the default).
	ModeSpecificAlbums RecommendMode = iota
	// ModeArtists recommends artists only; album fields stay empty.
	ModeArtists
)

// String returns the config-facing mode name.
func (m RecommendMode) String() string {
	switch m {
	case ModeSpecificAlbums:
		return "albums"
	case ModeArtists:
		return "artists"
	default:
		return "unknown"
	}
}

// ParseRecommendMode maps a mode name to its enum value.
func ParseRecommendMode(s string) (RecommendMode, error) {
	switch s {
	case "albums":
		return ModeSpecificAlbums, nil
	case "artists":
		return ModeArtists, nil
	default:
		return 0, fmt.Errorf("unknown recommendation mode %q", s)
	}
}

// DiscoveryMode tunes how adventurous recommendations should be.
type DiscoveryMode int

const (
	// DiscoverySimilar stays close to the existing library.
	DiscoverySimilar DiscoveryMode = iota
	// DiscoveryAdjacent explores related genres and scenes.
	DiscoveryAdjacent
	// DiscoveryExploratory ventures into new territory.
	DiscoveryExploratory
)

// String returns the config-facing discovery mode name.
func (d DiscoveryMode) String() string {
	switch d {
	case DiscoverySimilar:
		return "similar"
	case DiscoveryAdjacent:
		return "adjacent"
	case DiscoveryExploratory:
		return "exploratory"
	default:
		return "unknown"
	}
}

// ParseDiscoveryMode maps a discovery mode name to its enum value.
func ParseDiscoveryMode(s string) (DiscoveryMode, error) {
	switch s {
	case "similar":
		return DiscoverySimilar, nil
	case "adjacent":
		return DiscoveryAdjacent, nil
	case "exploratory":
		return DiscoveryExploratory, nil
	default:
		return 0, fmt.Errorf("unknown discovery mode %q", s)
	}
}

// SamplingStrategy controls how much library context is packed into the
// prompt. Deeper sampling produces better-informed recommendations at a
// higher token cost.
type SamplingStrategy int

const (
	// SamplingMinimal sends only headline counts and top genres.
	SamplingMinimal SamplingStrategy = iota
	// SamplingBalanced sends genres plus a representative artist sample.
	SamplingBalanced
	// SamplingComprehensive sends the full profile including recent
	// additions.
	SamplingComprehensive
)

// String returns the config-facing sampling strategy name.
func (s SamplingStrategy) String() string {
	switch s {
	case SamplingMinimal:
		return "minimal"
	case SamplingBalanced:
		return "balanced"
	case SamplingComprehensive:
		return "comprehensive"
	default:
		return "unknown"
	}
}

// ParseSamplingStrategy maps a sampling strategy name to its enum value.
func ParseSamplingStrategy(s string) (SamplingStrategy, error) {
	switch s {
	case "minimal":
		return SamplingMinimal, nil
	case "balanced":
		return SamplingBalanced, nil
	case "comprehensive":
		return SamplingComprehensive, nil
	default:
		return 0, fmt.Errorf("unknown sampling strategy %q", s)
	}
}

// Downgrade returns the next-cheaper sampling strategy, or the receiver when
// already at minimal. The batch planner uses this when a token estimate
// exceeds budget.
func (s SamplingStrategy) Downgrade() SamplingStrategy {
	switch s {
	case SamplingComprehensive:
		return SamplingBalanced
	case SamplingBalanced:
		return SamplingMinimal
	default:
		return s
	}
}
