// Melodex - AI-Powered Music Discovery for Media Library Managers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

package models

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// ReviewStatus is the lifecycle state of a review queue item. Pending is the
// only non-terminal state: once an item is Accepted, Rejected, or marked
// Never, it does not transition again.
type ReviewStatus int

const (
	// StatusPending awaits a reviewer decision.
	StatusPending ReviewStatus = iota
	// StatusAccepted clears the item for import; it is drained exactly
	// once by DequeueAccepted.
	StatusAccepted
	// StatusRejected declines the item and records a negative history
	// entry so it is not re-suggested.
	StatusRejected
	// StatusNever permanently blocks the item, also with a negative
	// history entry.
	StatusNever
)

// String returns the API-facing status name.
func (s ReviewStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusAccepted:
		return "accepted"
	case StatusRejected:
		return "rejected"
	case StatusNever:
		return "never"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether the status permits no further transitions.
func (s ReviewStatus) IsTerminal() bool {
	return s == StatusAccepted || s == StatusRejected || s == StatusNever
}

// MarshalJSON encodes the status by name, both on the wire and in the
// persisted queue.
func (s ReviewStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a status name.
func (s *ReviewStatus) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseReviewStatus(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseReviewStatus maps a status name to its enum value.
func ParseReviewStatus(s string) (ReviewStatus, error) {
	switch s {
	case "pending":
		return StatusPending, nil
	case "accepted":
		return StatusAccepted, nil
	case "rejected":
		return StatusRejected, nil
	case "never":
		return StatusNever, nil
	default:
		return 0, fmt.Errorf("unknown review status %q", s)
	}
}

// ReviewItem is a recommendation deferred by the safety gate, awaiting a
// manual decision. Keyed by the normalized (artist, album) pair; album may be
// empty for artist-only items.
type ReviewItem struct {
	// ID is the stable handle API clients use to address this item.
	ID string `json:"id"`

	// Artist is the suggested artist name.
	Artist string `json:"artist"`

	// Album is the suggested album title, empty for artist-only items.
	Album string `json:"album,omitempty"`

	// Status is the current lifecycle state.
	Status ReviewStatus `json:"status"`

	// Reason tags why the gate deferred the item ("low_confidence",
	// "missing_mbid").
	Reason string `json:"reason,omitempty"`

	// Notes carries optional reviewer commentary recorded with a decision.
	Notes string `json:"notes,omitempty"`

	// Recommendation preserves the full suggestion so accepted items can
	// re-enter the pipeline without refetching.
	Recommendation Recommendation `json:"recommendation"`

	// EnqueuedAt is when the gate deferred the item.
	EnqueuedAt time.Time `json:"enqueued_at"`

	// UpdatedAt is when the status last changed.
	UpdatedAt time.Time `json:"updated_at"`
}

// Key returns the normalized "artist|album" queue key.
func (i *ReviewItem) Key() string {
	return NormalizeKey(i.Artist, i.Album)
}

// ReviewCounts tallies queue items by status without exposing the items.
type ReviewCounts struct {
	Pending  int `json:"pending"`
	Accepted int `json:"accepted"`
	Rejected int `json:"rejected"`
	Never    int `json:"never"`
}
