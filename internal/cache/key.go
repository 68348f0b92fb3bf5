// Melodex - AI-Powered Music Discovery for Media Library Managers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

package cache

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/melodex/internal/models"
)

// keyFormatVersion changes whenever the key layout changes, so stale entries
// from an older build can never be served.
const keyFormatVersion = "1"

// KeyBuilder derives the deterministic cache key for a fetch cycle. Two
// cycles with the same semantic inputs always map to the same key; any
// input that changes what a provider would be asked, or how its output
// would be processed, is part of the key.
type KeyBuilder struct {
	sanitizerVersion string
	plannerVersion   string
}

// NewKeyBuilder creates a key builder pinned to the given component
// versions. Bumping either version invalidates all previously cached lists.
func NewKeyBuilder(sanitizerVersion, plannerVersion string) *KeyBuilder {
	return &KeyBuilder{
		sanitizerVersion: sanitizerVersion,
		plannerVersion:   plannerVersion,
	}
}

// keyInputs is the canonical serialized form fed to the hash. Field order is
// fixed by the struct; collection-valued inputs are normalized before they
// land here.
type keyInputs struct {
	FormatVersion    string   `json:"format_version"`
	SanitizerVersion string   `json:"sanitizer_version"`
	PlannerVersion   string   `json:"planner_version"`
	Provider         string   `json:"provider"`
	Discovery        string   `json:"discovery"`
	Mode             string   `json:"mode"`
	Sampling         string   `json:"sampling"`
	Model            string   `json:"model"`
	MaxRecs          int      `json:"max_recs"`
	StyleFilters     []string `json:"style_filters"`
	TopGenres        []string `json:"top_genres"`
	TopArtists       []string `json:"top_artists"`
}

// Build returns the cache key for one fetch cycle. effectiveModel is the
// resolved model name (the configured model, or the provider default when
// none is set); the caller resolves it so that "default" and an explicit
// spelling of the same model share a key.
//
// Profile slices are already deterministically ordered by the library
// analyzer, and their order is meaningful (top-N by count), so they are
// hashed as-is. Style filters carry no order, so they are normalized and
// sorted here.
func (b *KeyBuilder) Build(settings models.Settings, effectiveModel string, profile *models.LibraryProfile) string {
	if profile == nil {
		profile = models.EmptyProfile()
	}

	genres := make([]string, 0, len(profile.TopGenres))
	for _, g := range profile.TopGenres {
		genres = append(genres, fmt.Sprintf("%s:%d", g.Name, g.Count))
	}

	inputs := keyInputs{
		FormatVersion:    keyFormatVersion,
		SanitizerVersion: b.sanitizerVersion,
		PlannerVersion:   b.plannerVersion,
		Provider:         settings.Provider.String(),
		Discovery:        settings.Discovery.String(),
		Mode:             settings.Mode.String(),
		Sampling:         settings.Sampling.String(),
		Model:            effectiveModel,
		MaxRecs:          settings.MaxRecommendations,
		StyleFilters:     normalizeFilters(settings.StyleFilters),
		TopGenres:        genres,
		TopArtists:       append([]string(nil), profile.TopArtists...),
	}

	data, err := json.Marshal(inputs)
	if err != nil {
		// Marshal of a plain struct cannot realistically fail; fall back
		// to a non-hashed key rather than panic.
		return fmt.Sprintf("rec:%s:%s:%s", inputs.Provider, inputs.Mode, effectiveModel)
	}

	hash := sha256.Sum256(data)
	return fmt.Sprintf("rec:%x", hash[:16])
}

// normalizeFilters lower-cases, trims, dedups, and sorts style filters so
// that selection order never changes the key.
func normalizeFilters(filters []string) []string {
	seen := make(map[string]struct{}, len(filters))
	out := make([]string, 0, len(filters))
	for _, f := range filters {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}
