// Melodex - AI-Powered Music Discovery for Media Library Managers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

package recommend

import (
	"fmt"
	"strings"

	"github.com/tomtom215/melodex/internal/models"
)

// maxPromptExclusions caps how many already-seen keys get listed in the
// prompt. The top-up planner's hard post-filter catches anything the model
// repeats anyway; past this point more keys only burn budget.
const maxPromptExclusions = 100

// promptInput carries everything one batch prompt depends on. Sampling is
// separate from the settings value because the planner may downgrade it for
// a single batch without touching the cycle settings.
type promptInput struct {
	Profile    *models.LibraryProfile
	Settings   models.Settings
	Count      int
	Sampling   models.SamplingStrategy
	Exclude    []string
	Aggressive bool
}

// renderPrompt builds the provider prompt for one batch. Output is
// deterministic for identical inputs: profile slices arrive pre-ordered from
// the analyzer and callers pass exclusions sorted.
//
//nolint:gocritic // hugeParam: in passed by value for immutability
func renderPrompt(in promptInput) string {
	var b strings.Builder

	b.WriteString("You are a music discovery assistant for a personal media library.\n\n")

	noun := "specific albums"
	if in.Settings.Mode == models.ModeArtists {
		noun = "artists"
	}
	fmt.Fprintf(&b, "Recommend exactly %d %s the listener does not already have.\n", in.Count, noun)
	if in.Aggressive {
		b.WriteString("Returning fewer is not acceptable; keep going until the count is met.\n")
	}
	fmt.Fprintf(&b, "Discovery preference: %s.\n\n", discoveryClause(in.Settings.Discovery))

	writeProfile(&b, in.Profile, in.Sampling)

	if len(in.Settings.StyleFilters) > 0 {
		fmt.Fprintf(&b, "Only suggest music in these styles: %s.\n\n", strings.Join(in.Settings.StyleFilters, ", "))
	}

	writeExclusions(&b, in.Exclude)

	b.WriteString(responseShape(in.Settings.Mode))
	return b.String()
}

// discoveryClause phrases the discovery mode for the model.
func discoveryClause(d models.DiscoveryMode) string {
	switch d {
	case models.DiscoveryAdjacent:
		return "branch into genres and scenes adjacent to the library"
	case models.DiscoveryExploratory:
		return "venture well beyond the library's comfort zone"
	default:
		return "stay close to the library's core sound"
	}
}

// writeProfile renders the library snapshot at the requested sampling depth.
// Minimal sends headline counts and genres only; balanced adds representative
// artists; comprehensive adds recent additions on top.
func writeProfile(b *strings.Builder, profile *models.LibraryProfile, sampling models.SamplingStrategy) {
	fmt.Fprintf(b, "The library holds %d artists and %d albums.\n", profile.TotalArtists, profile.TotalAlbums)

	if len(profile.TopGenres) > 0 {
		parts := make([]string, len(profile.TopGenres))
		for i, g := range profile.TopGenres {
			parts[i] = fmt.Sprintf("%s (%d)", g.Name, g.Count)
		}
		fmt.Fprintf(b, "Top genres: %s.\n", strings.Join(parts, ", "))
	}

	if sampling != models.SamplingMinimal && len(profile.TopArtists) > 0 {
		fmt.Fprintf(b, "Representative artists: %s.\n", strings.Join(profile.TopArtists, ", "))
	}
	if sampling == models.SamplingComprehensive && len(profile.RecentArtists) > 0 {
		fmt.Fprintf(b, "Recently added: %s.\n", strings.Join(profile.RecentArtists, ", "))
	}

	b.WriteString("\n")
}

// writeExclusions lists keys the model must not suggest again, capped so a
// long-running cycle cannot flood the prompt.
func writeExclusions(b *strings.Builder, exclude []string) {
	if len(exclude) == 0 {
		return
	}

	b.WriteString("Never suggest any of these, they are already covered:\n")
	listed := exclude
	if len(listed) > maxPromptExclusions {
		listed = listed[:maxPromptExclusions]
	}
	for _, key := range listed {
		fmt.Fprintf(b, "- %s\n", key)
	}
	if extra := len(exclude) - len(listed); extra > 0 {
		fmt.Fprintf(b, "(and %d more; avoid anything already suggested)\n", extra)
	}
	b.WriteString("\n")
}

// responseShape states the strict output contract for the mode.
func responseShape(mode models.RecommendMode) string {
	if mode == models.ModeArtists {
		return "Respond with a JSON array only, no prose. Each element:\n" +
			`{"artist": string, "genre": string, "confidence": number in [0,1], "reason": string}`
	}
	return "Respond with a JSON array only, no prose. Each element:\n" +
		`{"artist": string, "album": string, "genre": string, "confidence": number in [0,1], "reason": string, "year": number}`
}
