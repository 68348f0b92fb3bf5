// Melodex - AI-Powered Music Discovery for Media Library Managers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

// Package review holds recommendations the safety gate deferred for a manual
// decision. The in-memory map is authoritative at runtime; every mutation is
// written through to BadgerDB so decisions survive restarts. Persistence
// failures are logged and swallowed, losing durability but never a user
// action.
package review

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/melodex/internal/history"
	"github.com/tomtom215/melodex/internal/metrics"
	"github.com/tomtom215/melodex/internal/models"
)

// Errors surfaced to the API layer.
var (
	ErrNotFound       = errors.New("review: item not found")
	ErrAlreadyDecided = errors.New("review: item already decided")
	ErrInvalidStatus  = errors.New("review: invalid target status")
)

const keyPrefix = "review:"

// History receives a record for every decision; rejected and never
// additionally set the permanent negative marker there.
type History interface {
	Append(ctx context.Context, artist, album string, status history.Status) error
}

// Queue is the review queue. Safe for concurrent use.
type Queue struct {
	db      *badger.DB
	history History
	logger  zerolog.Logger

	mu    sync.RWMutex
	byKey map[string]*models.ReviewItem
	byID  map[string]*models.ReviewItem

	// now is swapped by tests for stable timestamps.
	now func() time.Time
}

// NewQueue restores the queue from the shared database.
//
//nolint:gocritic // hugeParam: logger passed by value for zerolog chaining
func NewQueue(db *badger.DB, hist History, logger zerolog.Logger) (*Queue, error) {
	if db == nil {
		return nil, fmt.Errorf("review: nil database")
	}
	if hist == nil {
		return nil, fmt.Errorf("review: nil history")
	}

	q := &Queue{
		db:      db,
		history: hist,
		logger:  logger.With().Str("component", "review").Logger(),
		byKey:   make(map[string]*models.ReviewItem),
		byID:    make(map[string]*models.ReviewItem),
		now:     time.Now,
	}
	if err := q.load(); err != nil {
		return nil, err
	}
	q.publishCounts()

	return q, nil
}

// load restores persisted items into the in-memory maps.
func (q *Queue) load() error {
	err := q.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(keyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var item models.ReviewItem
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &item)
			})
			if err != nil {
				return fmt.Errorf("decode review item: %w", err)
			}
			stored := item
			q.byKey[stored.Key()] = &stored
			q.byID[stored.ID] = &stored
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("restore review queue: %w", err)
	}

	if n := len(q.byKey); n > 0 {
		q.logger.Info().Int("items", n).Msg("Review queue restored")
	}
	return nil
}

// Enqueue adds a pending item for the recommendation unless its key is
// already queued or decided. Returns true when a new item was created.
func (q *Queue) Enqueue(_ context.Context, rec models.Recommendation, reason string) bool {
	key := rec.Key()

	q.mu.Lock()
	if _, exists := q.byKey[key]; exists {
		q.mu.Unlock()
		q.logger.Debug().Str("key", key).Msg("Item already in review queue")
		return false
	}

	at := q.now().UTC()
	item := &models.ReviewItem{
		ID:             uuid.NewString(),
		Artist:         rec.Artist,
		Album:          rec.Album,
		Status:         models.StatusPending,
		Reason:         reason,
		Recommendation: rec,
		EnqueuedAt:     at,
		UpdatedAt:      at,
	}
	q.byKey[key] = item
	q.byID[item.ID] = item
	snapshot := *item
	q.mu.Unlock()

	q.persist(&snapshot)
	q.publishCounts()
	q.logger.Info().
		Str("key", key).
		Str("reason", reason).
		Msg("Item queued for review")

	return true
}

// SetStatus applies a reviewer decision to the item with the given ID.
// Pending is the only state that accepts a transition, and Pending itself is
// not a valid target.
func (q *Queue) SetStatus(ctx context.Context, id string, status models.ReviewStatus, notes string) (models.ReviewItem, error) {
	if !status.IsTerminal() {
		return models.ReviewItem{}, ErrInvalidStatus
	}

	q.mu.Lock()
	item, ok := q.byID[id]
	if !ok {
		q.mu.Unlock()
		return models.ReviewItem{}, ErrNotFound
	}
	if item.Status != models.StatusPending {
		q.mu.Unlock()
		return models.ReviewItem{}, ErrAlreadyDecided
	}

	item.Status = status
	item.Notes = notes
	item.UpdatedAt = q.now().UTC()
	snapshot := *item
	q.mu.Unlock()

	q.persist(&snapshot)
	q.recordDecision(ctx, &snapshot)
	q.publishCounts()
	metrics.RecordReviewTransition(status.String())
	q.logger.Info().
		Str("key", snapshot.Key()).
		Str("status", status.String()).
		Msg("Review decision recorded")

	return snapshot, nil
}

// Decide applies one decision to a batch of "artist|album" keys. Keys that
// are unknown or already decided are skipped. Returns how many items
// transitioned.
func (q *Queue) Decide(ctx context.Context, keys []string, status models.ReviewStatus) (int, error) {
	if !status.IsTerminal() {
		return 0, ErrInvalidStatus
	}

	decided := make([]models.ReviewItem, 0, len(keys))
	q.mu.Lock()
	for _, raw := range keys {
		key := models.NormalizeKeyString(raw)
		item, ok := q.byKey[key]
		if !ok || item.Status != models.StatusPending {
			continue
		}
		item.Status = status
		item.UpdatedAt = q.now().UTC()
		decided = append(decided, *item)
	}
	q.mu.Unlock()

	for i := range decided {
		q.persist(&decided[i])
		q.recordDecision(ctx, &decided[i])
		metrics.RecordReviewTransition(status.String())
	}
	if len(decided) > 0 {
		q.publishCounts()
		q.logger.Info().
			Int("items", len(decided)).
			Str("status", status.String()).
			Msg("Batch review decision recorded")
	}

	return len(decided), nil
}

// DequeueAccepted atomically drains all accepted items. Each item is
// returned exactly once; the drain removes it from the queue and from
// persistence.
func (q *Queue) DequeueAccepted(_ context.Context) []models.ReviewItem {
	q.mu.Lock()
	var drained []models.ReviewItem
	for key, item := range q.byKey {
		if item.Status != models.StatusAccepted {
			continue
		}
		drained = append(drained, *item)
		delete(q.byKey, key)
		delete(q.byID, item.ID)
	}
	q.mu.Unlock()

	if len(drained) == 0 {
		return nil
	}

	sort.Slice(drained, func(i, j int) bool {
		if !drained[i].EnqueuedAt.Equal(drained[j].EnqueuedAt) {
			return drained[i].EnqueuedAt.Before(drained[j].EnqueuedAt)
		}
		return drained[i].Key() < drained[j].Key()
	})

	for i := range drained {
		q.remove(drained[i].Key())
	}
	q.publishCounts()
	q.logger.Info().Int("items", len(drained)).Msg("Accepted items dequeued")

	return drained
}

// GetCounts tallies items by status without mutating anything.
func (q *Queue) GetCounts() models.ReviewCounts {
	q.mu.RLock()
	defer q.mu.RUnlock()

	var counts models.ReviewCounts
	for _, item := range q.byKey {
		switch item.Status {
		case models.StatusPending:
			counts.Pending++
		case models.StatusAccepted:
			counts.Accepted++
		case models.StatusRejected:
			counts.Rejected++
		case models.StatusNever:
			counts.Never++
		}
	}
	return counts
}

// List returns item copies, oldest first. With no arguments every item is
// returned; otherwise only items matching one of the given statuses.
func (q *Queue) List(statuses ...models.ReviewStatus) []models.ReviewItem {
	want := make(map[models.ReviewStatus]struct{}, len(statuses))
	for _, s := range statuses {
		want[s] = struct{}{}
	}

	q.mu.RLock()
	items := make([]models.ReviewItem, 0, len(q.byKey))
	for _, item := range q.byKey {
		if len(want) > 0 {
			if _, ok := want[item.Status]; !ok {
				continue
			}
		}
		items = append(items, *item)
	}
	q.mu.RUnlock()

	sort.Slice(items, func(i, j int) bool {
		if !items[i].EnqueuedAt.Equal(items[j].EnqueuedAt) {
			return items[i].EnqueuedAt.Before(items[j].EnqueuedAt)
		}
		return items[i].Key() < items[j].Key()
	})
	return items
}

// recordDecision writes the history record for a decided item. Failures are
// non-critical side effects: logged, never propagated.
func (q *Queue) recordDecision(ctx context.Context, item *models.ReviewItem) {
	var status history.Status
	switch item.Status {
	case models.StatusAccepted:
		status = history.StatusAccepted
	case models.StatusRejected:
		status = history.StatusRejected
	case models.StatusNever:
		status = history.StatusDisliked
	default:
		return
	}

	if err := q.history.Append(ctx, item.Artist, item.Album, status); err != nil {
		q.logger.Warn().
			Err(err).
			Str("key", item.Key()).
			Msg("Failed to record review decision in history")
	}
}

// persist writes one item through to the database. Warn-and-continue on
// failure.
func (q *Queue) persist(item *models.ReviewItem) {
	data, err := json.Marshal(item)
	if err != nil {
		q.logger.Warn().Err(err).Str("key", item.Key()).Msg("Failed to encode review item")
		return
	}
	err = q.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPrefix+item.Key()), data)
	})
	if err != nil {
		q.logger.Warn().Err(err).Str("key", item.Key()).Msg("Failed to persist review item")
	}
}

// remove deletes one item from the database. Warn-and-continue on failure.
func (q *Queue) remove(key string) {
	err := q.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(keyPrefix + key))
	})
	if err != nil {
		q.logger.Warn().Err(err).Str("key", key).Msg("Failed to remove review item")
	}
}

// publishCounts refreshes the queue-size gauges.
func (q *Queue) publishCounts() {
	counts := q.GetCounts()
	metrics.SetReviewQueueCounts(counts.Pending, counts.Accepted, counts.Rejected, counts.Never)
}
