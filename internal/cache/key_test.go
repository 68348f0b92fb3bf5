// Melodex - AI-Powered Music Discovery for Media Library Managers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

package cache

import (
	"strings"
	"testing"

	"github.com/tomtom215/melodex/internal/models"
)

func testSettings() models.Settings {
	return models.Settings{
		Provider:           models.ProviderOllama,
		Model:              "qwen3:8b",
		MaxRecommendations: 20,
		Mode:               models.ModeSpecificAlbums,
		Discovery:          models.DiscoveryAdjacent,
		Sampling:           models.SamplingBalanced,
		StyleFilters:       []string{"shoegaze", "post-rock"},
	}
}

func testProfile() *models.LibraryProfile {
	return &models.LibraryProfile{
		TotalArtists: 120,
		TotalAlbums:  540,
		TopGenres: []models.GenreCount{
			{Name: "Rock", Count: 200},
			{Name: "Ambient", Count: 90},
		},
		TopArtists: []string{"Pink Floyd", "Boards of Canada"},
	}
}

func TestKeyBuilder_Deterministic(t *testing.T) {
	b := NewKeyBuilder("1", "1")

	first := b.Build(testSettings(), "qwen3:8b", testProfile())
	second := b.Build(testSettings(), "qwen3:8b", testProfile())
	if first != second {
		t.Errorf("same inputs produced different keys: %q vs %q", first, second)
	}
	if !strings.HasPrefix(first, "rec:") {
		t.Errorf("key = %q, want rec: prefix", first)
	}
}

func TestKeyBuilder_StyleFilterOrderIrrelevant(t *testing.T) {
	b := NewKeyBuilder("1", "1")

	a := testSettings()
	a.StyleFilters = []string{"Shoegaze", "post-rock"}
	z := testSettings()
	z.StyleFilters = []string{" post-rock ", "shoegaze", "shoegaze"}

	if b.Build(a, "qwen3:8b", testProfile()) != b.Build(z, "qwen3:8b", testProfile()) {
		t.Error("filter order, case, or duplication changed the key")
	}
}

func TestKeyBuilder_InputChangesChangeKey(t *testing.T) {
	b := NewKeyBuilder("1", "1")
	base := b.Build(testSettings(), "qwen3:8b", testProfile())

	tests := []struct {
		name  string
		patch func(*models.Settings)
		model string
	}{
		{"provider", func(s *models.Settings) { s.Provider = models.ProviderOpenAI }, "qwen3:8b"},
		{"model", func(*models.Settings) {}, "llama3.2:3b"},
		{"mode", func(s *models.Settings) { s.Mode = models.ModeArtists }, "qwen3:8b"},
		{"discovery", func(s *models.Settings) { s.Discovery = models.DiscoveryExploratory }, "qwen3:8b"},
		{"sampling", func(s *models.Settings) { s.Sampling = models.SamplingComprehensive }, "qwen3:8b"},
		{"target count", func(s *models.Settings) { s.MaxRecommendations = 40 }, "qwen3:8b"},
		{"style filters", func(s *models.Settings) { s.StyleFilters = []string{"jazz"} }, "qwen3:8b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := testSettings()
			tt.patch(&settings)
			if b.Build(settings, tt.model, testProfile()) == base {
				t.Errorf("changing %s did not change the key", tt.name)
			}
		})
	}
}

func TestKeyBuilder_ProfileChangesKey(t *testing.T) {
	b := NewKeyBuilder("1", "1")
	base := b.Build(testSettings(), "qwen3:8b", testProfile())

	grown := testProfile()
	grown.TopGenres = append(grown.TopGenres, models.GenreCount{Name: "Jazz", Count: 40})
	if b.Build(testSettings(), "qwen3:8b", grown) == base {
		t.Error("profile genre change did not change the key")
	}

	shifted := testProfile()
	shifted.TopGenres[0].Count = 300
	if b.Build(testSettings(), "qwen3:8b", shifted) == base {
		t.Error("genre count change did not change the key")
	}
}

func TestKeyBuilder_VersionChangesKey(t *testing.T) {
	base := NewKeyBuilder("1", "1").Build(testSettings(), "qwen3:8b", testProfile())

	if NewKeyBuilder("2", "1").Build(testSettings(), "qwen3:8b", testProfile()) == base {
		t.Error("sanitizer version change did not change the key")
	}
	if NewKeyBuilder("1", "2").Build(testSettings(), "qwen3:8b", testProfile()) == base {
		t.Error("planner version change did not change the key")
	}
}

func TestKeyBuilder_NilProfile(t *testing.T) {
	b := NewKeyBuilder("1", "1")

	key := b.Build(testSettings(), "qwen3:8b", nil)
	empty := b.Build(testSettings(), "qwen3:8b", models.EmptyProfile())
	if key != empty {
		t.Errorf("nil profile key %q differs from empty profile key %q", key, empty)
	}
}

func BenchmarkKeyBuilder_Build(b *testing.B) {
	builder := NewKeyBuilder("1", "1")
	settings := testSettings()
	profile := testProfile()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		builder.Build(settings, "qwen3:8b", profile)
	}
}
