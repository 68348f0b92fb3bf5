// Melodex - AI-Powered Music Discovery for Media Library Managers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

package sanitize

import (
	"fmt"
	"html"
	"math"

	"github.com/tomtom215/melodex/internal/metrics"
	"github.com/tomtom215/melodex/internal/models"
)

// maxReportWarnings bounds the warning list so a fully hostile batch cannot
// balloon the report.
const maxReportWarnings = 25

// Report summarizes structural problems found in a recommendation list.
// It is diagnostic output for logging and telemetry; validation never
// mutates or filters the list it inspects.
type Report struct {
	TotalItems int      `json:"total_items"`
	Dropped    int      `json:"dropped"`
	Clamped    int      `json:"clamped"`
	Trimmed    int      `json:"trimmed"`
	Warnings   []string `json:"warnings,omitempty"`
}

// Clean reports whether validation found nothing to complain about.
func (r Report) Clean() bool {
	return r.Dropped == 0 && r.Clamped == 0 && r.Trimmed == 0
}

// ValidateSchema inspects a sanitized list and reports items that would be
// dropped (missing artist), clamped (confidence out of range), or trimmed
// (fields over their length limits). Each issue increments the schema
// violation metric for its field. On a list that just passed the sanitizer
// every count is zero; anything else means a bug upstream.
func ValidateSchema(recs []models.Recommendation) Report {
	report := Report{TotalItems: len(recs)}

	for i := range recs {
		rec := &recs[i]

		if rec.Artist == "" {
			report.Dropped++
			metrics.RecordSchemaViolation("artist")
			report.warn("item %d: missing artist", i)
		}

		if math.IsNaN(rec.Confidence) || rec.Confidence < 0 || rec.Confidence > 1 {
			report.Clamped++
			metrics.RecordSchemaViolation("confidence")
			report.warn("item %d (%s): confidence %.2f out of range", i, describe(rec.Artist), rec.Confidence)
		}

		for _, f := range []struct {
			name  string
			value string
			max   int
		}{
			{"artist", rec.Artist, MaxArtistLength},
			{"album", rec.Album, MaxAlbumLength},
			{"genre", rec.Genre, MaxGenreLength},
			{"reason", rec.Reason, MaxReasonLength},
		} {
			// Fields arrive entity-escaped; measure the decoded text so
			// escape expansion does not count against the limit.
			if len([]rune(html.UnescapeString(f.value))) > f.max {
				report.Trimmed++
				metrics.RecordSchemaViolation(f.name)
				report.warn("item %d (%s): %s exceeds %d chars", i, describe(rec.Artist), f.name, f.max)
			}
		}
	}

	return report
}

// IsValid reports whether a recommendation meets the structural minimum for
// pipeline entry. This is the cheap per-item check the pipeline's validation
// stage filters with; ValidateSchema is the full diagnostic pass.
func IsValid(rec models.Recommendation) bool {
	if rec.Artist == "" {
		return false
	}
	if math.IsNaN(rec.Confidence) || rec.Confidence < 0 || rec.Confidence > 1 {
		return false
	}
	return true
}

func (r *Report) warn(format string, args ...any) {
	if len(r.Warnings) >= maxReportWarnings {
		if len(r.Warnings) == maxReportWarnings {
			r.Warnings = append(r.Warnings, "further warnings suppressed")
		}
		return
	}
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// describe returns a short, log-safe rendering of an artist name.
func describe(artist string) string {
	if artist == "" {
		return "unknown"
	}
	return truncateRunes(artist, 40)
}
