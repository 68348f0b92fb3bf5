// Melodex - AI-Powered Music Discovery for Media Library Managers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

package models

import (
	"html"
	"strings"
	"time"
)

// Recommendation is a single artist or album suggestion parsed from an AI
// backend's response.
//
// Lifecycle: created by the provider response parser, mutated by sanitization
// (string cleanup, confidence clamp) and enrichment (MusicBrainz ID
// population), then converted to an ImportItem and discarded.
//
// Confidence is intended to be in [0, 1] but providers routinely return
// out-of-range values; the sanitizer clamps rather than rejects.
type Recommendation struct {
	// Artist is the artist name. Required; items without it are rejected
	// during sanitization.
	Artist string `json:"artist"`

	// Album is the album title. Empty in artist-only mode.
	Album string `json:"album,omitempty"`

	// Genre is the provider's genre label for the suggestion.
	Genre string `json:"genre,omitempty"`

	// Confidence is the provider's self-reported confidence, clamped to
	// [0, 1] by sanitization.
	Confidence float64 `json:"confidence"`

	// Reason is the provider's free-text rationale for the suggestion.
	Reason string `json:"reason,omitempty"`

	// Year is the release year, zero when unknown.
	Year int `json:"year,omitempty"`

	// MusicBrainzArtistID is populated by enrichment.
	MusicBrainzArtistID string `json:"musicbrainz_artist_id,omitempty"`

	// MusicBrainzAlbumID is populated by enrichment. Empty in artist-only
	// mode.
	MusicBrainzAlbumID string `json:"musicbrainz_album_id,omitempty"`
}

// HasArtistID reports whether enrichment resolved an artist ID.
func (r *Recommendation) HasArtistID() bool {
	return r.MusicBrainzArtistID != ""
}

// HasAlbumID reports whether enrichment resolved an album ID.
func (r *Recommendation) HasAlbumID() bool {
	return r.MusicBrainzAlbumID != ""
}

// Key returns the normalized "artist|album" dedup key for this
// recommendation.
func (r *Recommendation) Key() string {
	return NormalizeKey(r.Artist, r.Album)
}

// ImportItem is the host-facing import list entry. Immutable once
// constructed; owned by the pipeline until returned to the host.
type ImportItem struct {
	// Artist is the artist name as delivered to the host.
	Artist string `json:"artist"`

	// Album is the album title, empty for artist-only imports.
	Album string `json:"album,omitempty"`

	// ReleaseDate is derived from the recommendation year (January 1st of
	// that year). Zero when the year is unknown.
	ReleaseDate time.Time `json:"release_date,omitempty"`

	// ArtistMusicBrainzID identifies the artist to the host's metadata
	// backend.
	ArtistMusicBrainzID string `json:"artist_musicbrainz_id,omitempty"`

	// AlbumMusicBrainzID identifies the album release group.
	AlbumMusicBrainzID string `json:"album_musicbrainz_id,omitempty"`
}

// Key returns the normalized "artist|album" dedup key for this item.
func (i *ImportItem) Key() string {
	return NormalizeKey(i.Artist, i.Album)
}

// NewImportItem converts an enriched recommendation into the host item
// format.
func NewImportItem(r Recommendation) ImportItem {
	return ImportItem{
		Artist:              strings.TrimSpace(r.Artist),
		Album:               strings.TrimSpace(r.Album),
		ReleaseDate:         ReleaseDateFromYear(r.Year),
		ArtistMusicBrainzID: r.MusicBrainzArtistID,
		AlbumMusicBrainzID:  r.MusicBrainzAlbumID,
	}
}

// ReleaseDateFromYear maps a release year to January 1st of that year in UTC.
// Returns the zero time for unknown (non-positive) years.
func ReleaseDateFromYear(year int) time.Time {
	if year <= 0 {
		return time.Time{}
	}
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
}

// NormalizeKey builds the canonical "artist|album" dedup key: HTML entities
// decoded, lower-cased, inner whitespace collapsed to single spaces,
// leading/trailing whitespace trimmed. Album may be empty for artist-only
// keys.
//
// Entity decoding matters because sanitized recommendations carry escaped
// text ("Simon &amp; Garfunkel") while library names and operator-typed
// approve keys are raw; both must produce the same key.
func NormalizeKey(artist, album string) string {
	return normalizeFragment(artist) + "|" + normalizeFragment(album)
}

// normalizeFragment decodes, lower-cases, and collapses one key fragment.
func normalizeFragment(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(html.UnescapeString(s))), " ")
}

// NormalizeKeyString canonicalizes a pre-joined "artist|album" key, as typed
// by an operator or sent by a review client, so that it matches NormalizeKey
// output for the same pair. The artist part ends at the first "|"; any
// further pipes belong to the album title.
func NormalizeKeyString(key string) string {
	artist, album, _ := strings.Cut(key, "|")
	return NormalizeKey(artist, album)
}
