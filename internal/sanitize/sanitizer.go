// Melodex - AI-Powered Music Discovery for Media Library Managers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

// Package sanitize hardens raw AI provider output before it enters the
// recommendation pipeline. Provider text is untrusted input: it may carry
// injection payloads, markup, control characters, or absurd field lengths.
//
// The contract, applied per recommendation:
//   - reject when the artist is missing or any field carries a malicious
//     pattern (SQL injection, XSS, path traversal, command injection, null
//     bytes)
//   - clamp confidence into [0, 1] instead of rejecting
//   - truncate remaining overlong fields instead of rejecting
//
// Sanitization is idempotent: running an already-sanitized list through
// again changes nothing. Cleanup decodes HTML entities before scanning and
// re-escapes on the way out, so double application cannot stack escapes, and
// threat scanning runs on both decoded and cleaned text so markup cannot be
// used to split a pattern past the scanner.
package sanitize

import (
	"html"
	"math"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/melodex/internal/metrics"
	"github.com/tomtom215/melodex/internal/models"
)

// Version participates in cache keys so a pattern or policy change
// invalidates previously cached recommendation lists.
const Version = "1"

// Field length limits in runes, measured on cleaned text before escaping.
const (
	MaxArtistLength = 200
	MaxAlbumLength  = 200
	MaxGenreLength  = 100
	MaxReasonLength = 500
)

// Rejection reasons used in logs and metric labels.
const (
	ReasonMissingArtist = "missing_artist"
	ReasonMalicious     = "malicious"
)

// htmlTagRe strips complete markup tags. Stray angle brackets without a
// closing counterpart survive and are entity-escaped instead.
var htmlTagRe = regexp.MustCompile(`<[^>]*>`)

// Sanitizer cleans raw recommendations. Safe for concurrent use; the threat
// automaton is built once at construction and only read afterwards.
type Sanitizer struct {
	logger  zerolog.Logger
	threats *ThreatMatcher
}

// NewSanitizer builds a sanitizer with the built-in threat pattern set.
//
//nolint:gocritic // hugeParam: logger passed by value for zerolog chaining
func NewSanitizer(logger zerolog.Logger) *Sanitizer {
	return &Sanitizer{
		logger:  logger.With().Str("component", "sanitizer").Logger(),
		threats: NewThreatMatcher(),
	}
}

// Sanitize returns a new list holding the cleaned survivors of recs. Items
// failing validity are dropped with a logged warning; the input is never
// mutated.
func (s *Sanitizer) Sanitize(recs []models.Recommendation) []models.Recommendation {
	if len(recs) == 0 {
		return nil
	}

	out := make([]models.Recommendation, 0, len(recs))
	for i := range recs {
		clean, reason := s.sanitizeOne(recs[i])
		if reason != "" {
			metrics.RecordSanitizerRejection(reason)
			s.logger.Warn().
				Str("reason", reason).
				Int("index", i).
				Msg("Dropped recommendation during sanitization")
			continue
		}
		out = append(out, clean)
	}

	return out
}

// sanitizeOne cleans a single recommendation. A non-empty reason means the
// item was rejected and the returned value must be discarded.
func (s *Sanitizer) sanitizeOne(rec models.Recommendation) (models.Recommendation, string) {
	fields := []struct {
		name  string
		value string
		max   int
		dst   *string
	}{
		{"artist", rec.Artist, MaxArtistLength, &rec.Artist},
		{"album", rec.Album, MaxAlbumLength, &rec.Album},
		{"genre", rec.Genre, MaxGenreLength, &rec.Genre},
		{"reason", rec.Reason, MaxReasonLength, &rec.Reason},
	}

	for _, f := range fields {
		decoded := html.UnescapeString(f.value)

		if strings.ContainsRune(decoded, 0) {
			s.logThreat(f.name, Match{Pattern: `\x00`, Data: ThreatNullByte})
			return rec, ReasonMalicious
		}

		// Scan before and after markup stripping. The raw pass catches
		// complete tags the cleanup would remove; the cleaned pass catches
		// patterns an embedded tag would otherwise split.
		if match, found := s.threats.Scan(decoded); found {
			s.logThreat(f.name, match)
			return rec, ReasonMalicious
		}

		cleaned := strings.TrimSpace(htmlTagRe.ReplaceAllString(stripControl(decoded), ""))

		if match, found := s.threats.Scan(cleaned); found {
			s.logThreat(f.name, match)
			return rec, ReasonMalicious
		}

		*f.dst = html.EscapeString(strings.TrimSpace(truncateRunes(cleaned, f.max)))
	}

	if rec.Artist == "" {
		return rec, ReasonMissingArtist
	}

	rec.Confidence = ClampConfidence(rec.Confidence)
	rec.MusicBrainzArtistID = normalizeMBID(rec.MusicBrainzArtistID)
	rec.MusicBrainzAlbumID = normalizeMBID(rec.MusicBrainzAlbumID)

	return rec, ""
}

// normalizeMBID keeps only well-formed MusicBrainz identifiers, which are
// UUIDs. Providers routinely hallucinate IDs; a malformed one is cleared
// rather than passed to the host, so it cannot satisfy an ID requirement
// downstream.
func normalizeMBID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return ""
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return ""
	}
	return parsed.String()
}

// logThreat records a threat hit without echoing the hostile text itself.
// The matched pattern is ours and safe to log; the field content is not.
func (s *Sanitizer) logThreat(field string, match Match) {
	s.logger.Warn().
		Str("field", field).
		Str("category", Category(match)).
		Str("pattern", match.Pattern).
		Msg("Malicious pattern in provider output")
}

// ClampConfidence forces a confidence score into [0, 1]. NaN collapses to 0.
func ClampConfidence(c float64) float64 {
	switch {
	case math.IsNaN(c):
		return 0
	case c < 0:
		return 0
	case c > 1:
		return 1
	default:
		return c
	}
}

// stripControl removes ASCII control characters including DEL. Provider
// output is single-line field text; embedded newlines and tabs carry no
// meaning here.
func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7F {
			return -1
		}
		return r
	}, s)
}

// truncateRunes cuts s to at most max runes. Rune-based so multi-byte
// characters are never split.
func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
