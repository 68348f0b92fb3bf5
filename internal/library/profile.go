// Melodex - AI-Powered Music Discovery for Media Library Managers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

package library

import (
	"sort"
	"strings"
	"time"

	"github.com/tomtom215/melodex/internal/models"
)

// Profile slice caps. The profile feeds both prompt context and the cache
// key, so the slices are deterministically ordered and bounded.
const (
	topGenreLimit     = 10
	topArtistLimit    = 20
	recentArtistLimit = 10
	recentWindow      = 30 * 24 * time.Hour
)

// buildProfile aggregates library records into a snapshot. Ordering is fully
// deterministic (count descending, then name ascending) so an unchanged
// library always produces an identical profile and therefore an identical
// cache key.
func buildProfile(artists []models.Artist, albums []models.Album, now time.Time) *models.LibraryProfile {
	return &models.LibraryProfile{
		TotalArtists:  len(artists),
		TotalAlbums:   len(albums),
		TopGenres:     topGenres(artists, albums),
		TopArtists:    topArtists(artists, albums),
		RecentArtists: recentArtists(artists, now),
		BuiltAt:       now,
	}
}

func topGenres(artists []models.Artist, albums []models.Album) []models.GenreCount {
	counts := make(map[string]int)
	for i := range artists {
		for _, g := range artists[i].Genres {
			if g = strings.TrimSpace(g); g != "" {
				counts[g]++
			}
		}
	}
	for i := range albums {
		for _, g := range albums[i].Genres {
			if g = strings.TrimSpace(g); g != "" {
				counts[g]++
			}
		}
	}

	ranked := make([]models.GenreCount, 0, len(counts))
	for name, count := range counts {
		ranked = append(ranked, models.GenreCount{Name: name, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Name < ranked[j].Name
	})

	if len(ranked) > topGenreLimit {
		ranked = ranked[:topGenreLimit]
	}
	return ranked
}

// topArtists ranks artists by album count. Artists without albums still
// participate so an artist-only library gets a usable profile.
func topArtists(artists []models.Artist, albums []models.Album) []string {
	albumCounts := make(map[string]int, len(artists))
	for i := range artists {
		if name := strings.TrimSpace(artists[i].Name); name != "" {
			albumCounts[name] = 0
		}
	}
	for i := range albums {
		if name := strings.TrimSpace(albums[i].ArtistName); name != "" {
			albumCounts[name]++
		}
	}

	names := make([]string, 0, len(albumCounts))
	for name := range albumCounts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if albumCounts[names[i]] != albumCounts[names[j]] {
			return albumCounts[names[i]] > albumCounts[names[j]]
		}
		return names[i] < names[j]
	})

	if len(names) > topArtistLimit {
		names = names[:topArtistLimit]
	}
	return names
}

func recentArtists(artists []models.Artist, now time.Time) []string {
	cutoff := now.Add(-recentWindow)

	recent := make([]models.Artist, 0, recentArtistLimit)
	for i := range artists {
		if artists[i].Added.After(cutoff) && strings.TrimSpace(artists[i].Name) != "" {
			recent = append(recent, artists[i])
		}
	}
	sort.Slice(recent, func(i, j int) bool {
		if !recent[i].Added.Equal(recent[j].Added) {
			return recent[i].Added.After(recent[j].Added)
		}
		return recent[i].Name < recent[j].Name
	})

	if len(recent) > recentArtistLimit {
		recent = recent[:recentArtistLimit]
	}

	names := make([]string, len(recent))
	for i := range recent {
		names[i] = recent[i].Name
	}
	return names
}
