// Melodex - AI-Powered Music Discovery for Media Library Managers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

package gate

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tomtom215/melodex/internal/history"
	"github.com/tomtom215/melodex/internal/models"
	"github.com/tomtom215/melodex/internal/review"
	"github.com/tomtom215/melodex/internal/storage"
)

func newTestGate(t *testing.T, persist PersistFunc) (*Gate, *review.Queue) {
	t.Helper()

	db, err := storage.Open(storage.Options{InMemory: true}, zerolog.Nop())
	if err != nil {
		t.Fatalf("storage.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store, err := history.NewStore(db, 0, zerolog.Nop())
	if err != nil {
		t.Fatalf("history.NewStore() error = %v", err)
	}
	queue, err := review.NewQueue(db, store, zerolog.Nop())
	if err != nil {
		t.Fatalf("review.NewQueue() error = %v", err)
	}

	g, err := NewGate(queue, persist, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewGate() error = %v", err)
	}
	return g, queue
}

func TestNewGate_NilQueue(t *testing.T) {
	if _, err := NewGate(nil, nil, zerolog.Nop()); err == nil {
		t.Fatal("NewGate(nil) expected error, got nil")
	}
}

func TestApply_PassesConfidentItems(t *testing.T) {
	g, _ := newTestGate(t, nil)

	settings := models.Settings{MinConfidence: 0.5, QueueBorderline: true}
	recs := []models.Recommendation{
		{Artist: "Pink Floyd", Album: "Animals", Confidence: 0.9},
		{Artist: "Tool", Album: "Lateralus", Confidence: 0.5},
	}

	out := g.Apply(context.Background(), recs, settings)
	if len(out) != 2 {
		t.Fatalf("Apply() passed %d items, want 2 (threshold is inclusive)", len(out))
	}
}

func TestApply_QueuesLowConfidence(t *testing.T) {
	g, queue := newTestGate(t, nil)

	settings := models.Settings{MinConfidence: 0.7, QueueBorderline: true}
	recs := []models.Recommendation{
		{Artist: "Pink Floyd", Album: "Animals", Confidence: 0.9},
		{Artist: "Unsure", Album: "Maybe", Confidence: 0.3},
	}

	out := g.Apply(context.Background(), recs, settings)
	if len(out) != 1 || out[0].Artist != "Pink Floyd" {
		t.Fatalf("Apply() = %v, want only Pink Floyd", out)
	}

	pending := queue.List(models.StatusPending)
	if len(pending) != 1 {
		t.Fatalf("queue has %d pending items, want 1", len(pending))
	}
	if pending[0].Reason != ReasonLowConfidence {
		t.Errorf("queued reason = %q, want %q", pending[0].Reason, ReasonLowConfidence)
	}
}

func TestApply_QueuesMissingIDsInAlbumMode(t *testing.T) {
	g, queue := newTestGate(t, nil)

	settings := models.Settings{
		MinConfidence:   0.5,
		RequireMBIDs:    true,
		QueueBorderline: true,
		Mode:            models.ModeSpecificAlbums,
	}
	recs := []models.Recommendation{
		{
			Artist: "Complete", Album: "Both IDs", Confidence: 0.9,
			MusicBrainzArtistID: "a74b1b7f-71a5-4011-9441-d0b5e4122711",
			MusicBrainzAlbumID:  "f5093c06-23e3-404f-aeaa-40f72885ee3a",
		},
		{
			Artist: "Partial", Album: "Artist ID Only", Confidence: 0.9,
			MusicBrainzArtistID: "a74b1b7f-71a5-4011-9441-d0b5e4122711",
		},
	}

	out := g.Apply(context.Background(), recs, settings)
	if len(out) != 1 || out[0].Artist != "Complete" {
		t.Fatalf("Apply() = %v, want only Complete", out)
	}

	pending := queue.List(models.StatusPending)
	if len(pending) != 1 || pending[0].Reason != ReasonMissingMBID {
		t.Fatalf("queued = %v, want one missing_mbid item", pending)
	}
}

func TestApply_DropsWhenQueueingDisabled(t *testing.T) {
	g, queue := newTestGate(t, nil)

	settings := models.Settings{MinConfidence: 0.7, QueueBorderline: false}
	recs := []models.Recommendation{
		{Artist: "Unsure", Album: "Maybe", Confidence: 0.3},
	}

	out := g.Apply(context.Background(), recs, settings)
	if len(out) != 0 {
		t.Errorf("Apply() = %v, want empty", out)
	}
	if counts := queue.GetCounts(); counts.Pending != 0 {
		t.Errorf("queue pending = %d, want 0 with queueing disabled", counts.Pending)
	}
}

func TestApply_EscapeValvePromotesUnidentifiedArtists(t *testing.T) {
	g, queue := newTestGate(t, nil)

	settings := models.Settings{
		MinConfidence:      0.5,
		RequireMBIDs:       true,
		QueueBorderline:    true,
		Mode:               models.ModeArtists,
		MaxRecommendations: 2,
	}
	recs := []models.Recommendation{
		{Artist: "Mid", Confidence: 0.7},
		{Artist: "Best", Confidence: 0.9},
		{Artist: "Third", Confidence: 0.6},
		{Artist: "TooLow", Confidence: 0.2},
	}

	out := g.Apply(context.Background(), recs, settings)
	if len(out) != 2 {
		t.Fatalf("Apply() promoted %d items, want 2 (capped at target)", len(out))
	}
	if out[0].Artist != "Best" || out[1].Artist != "Mid" {
		t.Errorf("promotion order = [%s, %s], want highest confidence first", out[0].Artist, out[1].Artist)
	}

	// The low-confidence item stays gated; promoted items must not linger
	// in the queue where a later acceptance would import them twice.
	pending := queue.List(models.StatusPending)
	keys := make(map[string]bool, len(pending))
	for _, item := range pending {
		keys[item.Artist] = true
	}
	if !keys["TooLow"] || !keys["Third"] {
		t.Errorf("pending queue = %v, want TooLow and Third", keys)
	}
	if keys["Best"] || keys["Mid"] {
		t.Errorf("promoted items were queued anyway: %v", keys)
	}
}

func TestApply_EscapeValveIgnoresLowConfidence(t *testing.T) {
	g, _ := newTestGate(t, nil)

	settings := models.Settings{
		MinConfidence:      0.5,
		RequireMBIDs:       true,
		QueueBorderline:    true,
		Mode:               models.ModeArtists,
		MaxRecommendations: 5,
	}
	recs := []models.Recommendation{
		{Artist: "TooLow", Confidence: 0.2},
	}

	if out := g.Apply(context.Background(), recs, settings); len(out) != 0 {
		t.Errorf("Apply() = %v, want empty (confidence gate holds)", out)
	}
}

func TestApply_NoEscapeValveInAlbumMode(t *testing.T) {
	g, _ := newTestGate(t, nil)

	settings := models.Settings{
		MinConfidence:      0.5,
		RequireMBIDs:       true,
		QueueBorderline:    true,
		Mode:               models.ModeSpecificAlbums,
		MaxRecommendations: 5,
	}
	recs := []models.Recommendation{
		{Artist: "NoIDs", Album: "Album", Confidence: 0.9},
	}

	if out := g.Apply(context.Background(), recs, settings); len(out) != 0 {
		t.Errorf("Apply() = %v, want empty (valve is artist-mode only)", out)
	}
}

func TestApply_MergesAcceptedItemsOnce(t *testing.T) {
	g, queue := newTestGate(t, nil)
	ctx := context.Background()

	queue.Enqueue(ctx, models.Recommendation{Artist: "Held", Album: "Back", Confidence: 0.3}, ReasonLowConfidence)
	if _, err := queue.Decide(ctx, []string{"Held|Back"}, models.StatusAccepted); err != nil {
		t.Fatalf("Decide() error = %v", err)
	}

	settings := models.Settings{MinConfidence: 0.5}
	out := g.Apply(ctx, nil, settings)
	if len(out) != 1 || out[0].Artist != "Held" {
		t.Fatalf("Apply() = %v, want accepted item merged", out)
	}

	if again := g.Apply(ctx, nil, settings); len(again) != 0 {
		t.Errorf("second Apply() = %v, want empty (drain-once)", again)
	}
}

func TestApply_ApproveKeysFirePersist(t *testing.T) {
	fired := 0
	g, queue := newTestGate(t, func() error {
		fired++
		return nil
	})
	ctx := context.Background()

	queue.Enqueue(ctx, models.Recommendation{Artist: "Pink Floyd", Album: "Animals", Confidence: 0.3}, ReasonLowConfidence)

	settings := models.Settings{
		MinConfidence: 0.5,
		ApproveKeys:   []string{"Pink Floyd|Animals"},
	}
	out := g.Apply(ctx, nil, settings)
	if len(out) != 1 || out[0].Artist != "Pink Floyd" {
		t.Fatalf("Apply() = %v, want approved item merged", out)
	}
	if fired != 1 {
		t.Errorf("persist callback fired %d times, want 1", fired)
	}
}

func TestApply_PersistFailureSwallowed(t *testing.T) {
	g, _ := newTestGate(t, func() error {
		return errors.New("disk full")
	})

	settings := models.Settings{MinConfidence: 0.5, ApproveKeys: []string{"a|b"}}
	recs := []models.Recommendation{{Artist: "Fine", Confidence: 0.9}}

	out := g.Apply(context.Background(), recs, settings)
	if len(out) != 1 {
		t.Errorf("Apply() = %v, want item despite persist failure", out)
	}
}

func TestApply_PersistPanicSwallowed(t *testing.T) {
	g, _ := newTestGate(t, func() error {
		panic("host callback bug")
	})

	settings := models.Settings{MinConfidence: 0.5, ApproveKeys: []string{"a|b"}}
	recs := []models.Recommendation{{Artist: "Fine", Confidence: 0.9}}

	out := g.Apply(context.Background(), recs, settings)
	if len(out) != 1 {
		t.Errorf("Apply() = %v, want item despite persist panic", out)
	}
}

func TestApply_Empty(t *testing.T) {
	g, _ := newTestGate(t, nil)

	if out := g.Apply(context.Background(), nil, models.Settings{}); len(out) != 0 {
		t.Errorf("Apply(nil) = %v, want empty", out)
	}
}

func TestPassesNow(t *testing.T) {
	tests := []struct {
		name     string
		rec      models.Recommendation
		settings models.Settings
		want     bool
	}{
		{
			name:     "confident without id requirement",
			rec:      models.Recommendation{Artist: "Tool", Album: "Lateralus", Confidence: 0.8},
			settings: models.Settings{MinConfidence: 0.5},
			want:     true,
		},
		{
			name:     "threshold is inclusive",
			rec:      models.Recommendation{Artist: "Tool", Album: "Lateralus", Confidence: 0.5},
			settings: models.Settings{MinConfidence: 0.5},
			want:     true,
		},
		{
			name:     "below threshold",
			rec:      models.Recommendation{Artist: "Unsure", Album: "Maybe", Confidence: 0.3},
			settings: models.Settings{MinConfidence: 0.5},
			want:     false,
		},
		{
			name: "artist mode needs artist id only",
			rec: models.Recommendation{
				Artist: "Tool", Confidence: 0.9,
				MusicBrainzArtistID: "a74b1b7f-71a5-4011-9441-d0b5e4122711",
			},
			settings: models.Settings{MinConfidence: 0.5, RequireMBIDs: true, Mode: models.ModeArtists},
			want:     true,
		},
		{
			name: "album mode needs both ids",
			rec: models.Recommendation{
				Artist: "Tool", Album: "Lateralus", Confidence: 0.9,
				MusicBrainzArtistID: "a74b1b7f-71a5-4011-9441-d0b5e4122711",
			},
			settings: models.Settings{MinConfidence: 0.5, RequireMBIDs: true, Mode: models.ModeSpecificAlbums},
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PassesNow(&tt.rec, tt.settings); got != tt.want {
				t.Errorf("PassesNow() = %v, want %v", got, tt.want)
			}
		})
	}
}
