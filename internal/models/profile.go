// Melodex - AI-Powered Music Discovery for Media Library Managers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

package models

import "time"

// Artist is a host library artist record as returned by the library data
// provider.
type Artist struct {
	// Name is the artist name.
	Name string `json:"name"`

	// MusicBrainzID identifies the artist in the host's metadata backend.
	MusicBrainzID string `json:"musicbrainz_id,omitempty"`

	// Genres lists the genres tagged on the artist.
	Genres []string `json:"genres,omitempty"`

	// Added is when the artist entered the library.
	Added time.Time `json:"added,omitempty"`
}

// Album is a host library album record as returned by the library data
// provider.
type Album struct {
	// ArtistName is the owning artist's name.
	ArtistName string `json:"artist_name"`

	// Title is the album title.
	Title string `json:"title"`

	// MusicBrainzID identifies the release group.
	MusicBrainzID string `json:"musicbrainz_id,omitempty"`

	// Genres lists the genres tagged on the album.
	Genres []string `json:"genres,omitempty"`

	// Year is the release year, zero when unknown.
	Year int `json:"year,omitempty"`

	// Added is when the album entered the library.
	Added time.Time `json:"added,omitempty"`
}

// GenreCount pairs a genre name with its occurrence count, ordered most
// common first in profile slices.
type GenreCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// LibraryProfile is an aggregate snapshot of the user's existing collection.
// Built once per TTL window from host-supplied artist/album lists; read-only
// after construction. Used both for prompt context and for fingerprinting
// cache keys.
//
// Invariant: consumers never see a nil profile. On any analysis failure an
// empty fallback profile is substituted instead.
type LibraryProfile struct {
	// TotalArtists is the artist count at build time.
	TotalArtists int `json:"total_artists"`

	// TotalAlbums is the album count at build time.
	TotalAlbums int `json:"total_albums"`

	// TopGenres lists the most common genres, descending by count.
	TopGenres []GenreCount `json:"top_genres,omitempty"`

	// TopArtists lists representative artist names for prompt context,
	// most-albums first.
	TopArtists []string `json:"top_artists,omitempty"`

	// RecentArtists lists artists added in the last 30 days, newest first.
	RecentArtists []string `json:"recent_artists,omitempty"`

	// BuiltAt is when the profile was computed; drives TTL expiry.
	BuiltAt time.Time `json:"built_at"`
}

// EmptyProfile returns the fallback profile substituted when library
// analysis fails. Carrying a BuiltAt timestamp keeps TTL logic uniform.
func EmptyProfile() *LibraryProfile {
	return &LibraryProfile{BuiltAt: time.Now()}
}

// IsStale reports whether the profile has outlived the given TTL.
func (p *LibraryProfile) IsStale(ttl time.Duration) bool {
	return time.Since(p.BuiltAt) > ttl
}
