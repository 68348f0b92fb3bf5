// Melodex - AI-Powered Music Discovery for Media Library Managers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

package provider

import (
	"strings"

	"github.com/tomtom215/melodex/internal/models"
)

// ModelOption is one selectable model in a provider's catalog. Label is the
// human-readable form the host UI shows; ID is what goes on the wire.
type ModelOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Catalog returns the static model list for a provider, default first.
// Local providers return nil: their models are whatever the user has pulled
// into the local instance, discoverable only by asking it.
//
// The lists are curated, not exhaustive. They exist so the host UI can
// offer a dropdown without a network round-trip, and so default-model
// resolution has something to resolve to.
func Catalog(p models.Provider) []ModelOption {
	switch p {
	case models.ProviderOllama, models.ProviderLMStudio:
		return nil
	case models.ProviderOpenAI:
		return []ModelOption{
			{ID: "gpt-4o-mini", Label: "GPT-4o Mini"},
			{ID: "gpt-4o", Label: "GPT-4o"},
			{ID: "gpt-4.1-mini", Label: "GPT-4.1 Mini"},
			{ID: "gpt-4.1", Label: "GPT-4.1"},
			{ID: "o4-mini", Label: "o4 Mini"},
		}
	case models.ProviderAnthropic:
		return []ModelOption{
			{ID: "claude-3-5-haiku-latest", Label: "Claude 3.5 Haiku"},
			{ID: "claude-sonnet-4-0", Label: "Claude Sonnet 4"},
			{ID: "claude-opus-4-0", Label: "Claude Opus 4"},
		}
	case models.ProviderGemini:
		return []ModelOption{
			{ID: "gemini-2.0-flash", Label: "Gemini 2.0 Flash"},
			{ID: "gemini-2.5-flash", Label: "Gemini 2.5 Flash"},
			{ID: "gemini-2.5-pro", Label: "Gemini 2.5 Pro"},
		}
	case models.ProviderGroq:
		return []ModelOption{
			{ID: "llama-3.3-70b-versatile", Label: "Llama 3.3 70B Versatile"},
			{ID: "llama-3.1-8b-instant", Label: "Llama 3.1 8B Instant"},
			{ID: "gemma2-9b-it", Label: "Gemma 2 9B"},
		}
	case models.ProviderDeepSeek:
		return []ModelOption{
			{ID: "deepseek-chat", Label: "DeepSeek Chat"},
			{ID: "deepseek-reasoner", Label: "DeepSeek Reasoner"},
		}
	case models.ProviderPerplexity:
		return []ModelOption{
			{ID: "sonar", Label: "Sonar"},
			{ID: "sonar-pro", Label: "Sonar Pro"},
			{ID: "sonar-reasoning", Label: "Sonar Reasoning"},
		}
	case models.ProviderOpenRouter:
		return []ModelOption{
			{ID: "openrouter/auto", Label: "Auto (best available)"},
			{ID: "anthropic/claude-3.5-haiku", Label: "Claude 3.5 Haiku"},
			{ID: "meta-llama/llama-3.3-70b-instruct", Label: "Llama 3.3 70B Instruct"},
			{ID: "deepseek/deepseek-chat", Label: "DeepSeek Chat"},
		}
	default:
		return nil
	}
}

// DefaultModel returns the model a provider uses when the configuration
// names none. Cloud defaults are the first (cheapest sensible) catalog
// entry; local defaults match the install base of each runtime.
func DefaultModel(p models.Provider) string {
	switch p {
	case models.ProviderOllama:
		return "qwen3:8b"
	case models.ProviderLMStudio:
		return "local-model"
	default:
		if catalog := Catalog(p); len(catalog) > 0 {
			return catalog[0].ID
		}
		return ""
	}
}

// EffectiveModel resolves the model a fetch cycle actually uses: the
// configured model when set, otherwise the provider default. Cache keys
// hash this resolved value, so two configurations that land on the same
// model share cache entries.
func EffectiveModel(settings models.Settings) string {
	if m := strings.TrimSpace(settings.Model); m != "" {
		return m
	}
	return DefaultModel(settings.Provider)
}
