// Melodex - AI-Powered Music Discovery for Media Library Managers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

package provider

import (
	"testing"

	"github.com/tomtom215/melodex/internal/models"
)

func TestCatalog_LocalProvidersHaveNoCatalog(t *testing.T) {
	for _, p := range []models.Provider{models.ProviderOllama, models.ProviderLMStudio} {
		if got := Catalog(p); got != nil {
			t.Errorf("Catalog(%s) = %v, want nil", p, got)
		}
	}
}

func TestCatalog_CloudProvidersListDefaultFirst(t *testing.T) {
	for _, p := range models.Providers {
		if p.IsLocal() {
			continue
		}
		catalog := Catalog(p)
		if len(catalog) == 0 {
			t.Errorf("Catalog(%s) is empty", p)
			continue
		}
		if got, want := DefaultModel(p), catalog[0].ID; got != want {
			t.Errorf("DefaultModel(%s) = %q, want first catalog entry %q", p, got, want)
		}
		for _, opt := range catalog {
			if opt.ID == "" || opt.Label == "" {
				t.Errorf("Catalog(%s) contains blank entry %+v", p, opt)
			}
		}
	}
}

func TestDefaultModel_LocalProviders(t *testing.T) {
	if got := DefaultModel(models.ProviderOllama); got != "qwen3:8b" {
		t.Errorf("DefaultModel(ollama) = %q, want %q", got, "qwen3:8b")
	}
	if got := DefaultModel(models.ProviderLMStudio); got != "local-model" {
		t.Errorf("DefaultModel(lmstudio) = %q, want %q", got, "local-model")
	}
}

func TestEffectiveModel(t *testing.T) {
	tests := []struct {
		name     string
		settings models.Settings
		want     string
	}{
		{
			name:     "explicit model wins",
			settings: models.Settings{Provider: models.ProviderOpenAI, Model: "gpt-4o"},
			want:     "gpt-4o",
		},
		{
			name:     "empty model falls back to provider default",
			settings: models.Settings{Provider: models.ProviderAnthropic},
			want:     "claude-3-5-haiku-latest",
		},
		{
			name:     "whitespace model falls back to provider default",
			settings: models.Settings{Provider: models.ProviderOllama, Model: "   "},
			want:     "qwen3:8b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EffectiveModel(tt.settings); got != tt.want {
				t.Errorf("EffectiveModel() = %q, want %q", got, tt.want)
			}
		})
	}
}
