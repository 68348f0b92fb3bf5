// Melodex - AI-Powered Music Discovery for Media Library Managers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

// Package history records what has been suggested to the user and how they
// responded. It backs two pipeline behaviors:
//
//   - same-day repeat suppression: every suggested key lands in a per-day
//     bucket; a key already present this UTC day is filtered out, and the
//     bucket ages out after the retention window so the item becomes
//     eligible again
//   - negative signals: rejected and disliked decisions persist as markers
//     that suppress an item on every future run, regardless of age
//
// Records themselves are append-only; only day buckets are pruned.
package history

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// Status classifies a history record.
type Status int

const (
	// StatusSuggested marks an item delivered to the host.
	StatusSuggested Status = iota

	// StatusAccepted marks an item the user approved from review.
	StatusAccepted

	// StatusRejected marks an item the user rejected from review.
	StatusRejected

	// StatusDisliked marks an item the user banned outright ("never").
	StatusDisliked
)

// String returns the storage and log representation.
func (s Status) String() string {
	switch s {
	case StatusSuggested:
		return "suggested"
	case StatusAccepted:
		return "accepted"
	case StatusRejected:
		return "rejected"
	case StatusDisliked:
		return "disliked"
	default:
		return "unknown"
	}
}

// Negative reports whether the status should suppress future suggestions of
// the same item.
func (s Status) Negative() bool {
	return s == StatusRejected || s == StatusDisliked
}

// MarshalJSON encodes the status by name, both on the wire and in the
// persisted records.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a status name.
func (s *Status) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	switch name {
	case "suggested":
		*s = StatusSuggested
	case "accepted":
		*s = StatusAccepted
	case "rejected":
		*s = StatusRejected
	case "disliked":
		*s = StatusDisliked
	default:
		return fmt.Errorf("unknown history status %q", name)
	}
	return nil
}

// Record is one append-only history entry.
type Record struct {
	Artist string    `json:"artist"`
	Album  string    `json:"album,omitempty"`
	Status Status    `json:"status"`
	At     time.Time `json:"at"`
}
