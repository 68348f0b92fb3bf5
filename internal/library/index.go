// Melodex - AI-Powered Music Discovery for Media Library Managers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

package library

import (
	"html"
	"strings"

	"github.com/tomtom215/melodex/internal/models"
)

// DuplicateIndex answers "is this already in the library" for candidate
// recommendations. Each library entry is indexed under three key variants so
// cosmetic differences in provider output still match:
//
//   - normalized: lower-cased, whitespace collapsed
//   - no-spaces: normalized with spaces removed ("lynyrdskynyrd")
//   - article-stripped: normalized without a leading "the "
//
// Candidates are expanded the same way; any variant intersection marks a
// duplicate. Immutable after construction and safe for concurrent reads.
type DuplicateIndex struct {
	artists map[string]struct{}
	albums  map[string]struct{}
}

// NewDuplicateIndex builds the variant sets from library artist and album
// records.
func NewDuplicateIndex(artists []models.Artist, albums []models.Album) *DuplicateIndex {
	ix := &DuplicateIndex{
		artists: make(map[string]struct{}, len(artists)*2),
		albums:  make(map[string]struct{}, len(albums)*2),
	}

	for i := range artists {
		for _, k := range nameVariants(artists[i].Name) {
			ix.artists[k] = struct{}{}
		}
	}

	for i := range albums {
		for _, k := range comboVariants(albums[i].ArtistName, albums[i].Title) {
			ix.albums[k] = struct{}{}
		}
	}

	return ix
}

// ContainsArtist reports whether any variant of name matches a library
// artist.
func (ix *DuplicateIndex) ContainsArtist(name string) bool {
	for _, k := range nameVariants(name) {
		if _, ok := ix.artists[k]; ok {
			return true
		}
	}
	return false
}

// ContainsAlbum reports whether any variant of the (artist, album) pair
// matches a library album.
func (ix *DuplicateIndex) ContainsAlbum(artist, album string) bool {
	for _, k := range comboVariants(artist, album) {
		if _, ok := ix.albums[k]; ok {
			return true
		}
	}
	return false
}

// IsDuplicate applies the mode-aware membership rule: artist mode compares
// artist keys only, album mode compares the artist+album combination.
func (ix *DuplicateIndex) IsDuplicate(rec *models.Recommendation, mode models.RecommendMode) bool {
	if mode == models.ModeArtists {
		return ix.ContainsArtist(rec.Artist)
	}
	return ix.ContainsAlbum(rec.Artist, rec.Album)
}

// Size returns the indexed artist and album variant counts, for logging.
func (ix *DuplicateIndex) Size() (artistKeys, albumKeys int) {
	return len(ix.artists), len(ix.albums)
}

// normalize decodes entities, lower-cases, and collapses whitespace.
// Decoding keeps sanitized (escaped) candidates comparable with raw library
// names.
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(html.UnescapeString(s))), " ")
}

// nameVariants expands one name into its match variants. Empty input yields
// none.
func nameVariants(name string) []string {
	base := normalize(name)
	if base == "" {
		return nil
	}

	variants := make([]string, 0, 3)
	variants = append(variants, base)

	if noSpace := strings.ReplaceAll(base, " ", ""); noSpace != base {
		variants = append(variants, noSpace)
	}
	if stripped := strings.TrimPrefix(base, "the "); stripped != base && stripped != "" {
		variants = append(variants, stripped)
	}

	return variants
}

// comboVariants expands an (artist, album) pair into "artist_album" match
// variants, applying each variant rule to both halves in step.
func comboVariants(artist, album string) []string {
	a := normalize(artist)
	b := normalize(album)
	if a == "" || b == "" {
		return nil
	}

	variants := make([]string, 0, 3)
	variants = append(variants, a+"_"+b)

	noSpace := strings.ReplaceAll(a, " ", "") + "_" + strings.ReplaceAll(b, " ", "")
	if noSpace != variants[0] {
		variants = append(variants, noSpace)
	}

	sa := strings.TrimPrefix(a, "the ")
	sb := strings.TrimPrefix(b, "the ")
	if stripped := sa + "_" + sb; stripped != variants[0] && sa != "" && sb != "" {
		variants = append(variants, stripped)
	}

	return variants
}
