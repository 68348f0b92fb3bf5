// Melodex - AI-Powered Music Discovery for Media Library Managers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

package history

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/melodex/internal/metrics"
	"github.com/tomtom215/melodex/internal/models"
)

// DefaultRetention is how long day buckets survive before pruning.
const DefaultRetention = 7 * 24 * time.Hour

// Key prefixes within the shared BadgerDB database.
const (
	dayKeyPrefix = "history:day:"
	recKeyPrefix = "history:rec:"
	negKeyPrefix = "history:neg:"
)

// dayLayout formats the UTC day segment of bucket keys. Fixed width, so the
// segment can be sliced out of a key without parsing, and lexical order
// equals chronological order.
const dayLayout = "2006-01-02"

// Store persists recommendation history in BadgerDB. Safe for concurrent
// use; badger transactions provide the required atomicity. The database
// handle is shared and owned by the caller.
type Store struct {
	db        *badger.DB
	logger    zerolog.Logger
	retention time.Duration

	// now is swapped by tests to cross day boundaries without sleeping.
	now func() time.Time
}

// NewStore wraps the shared database with history semantics. A nil database
// is a programming error and fails construction.
//
//nolint:gocritic // hugeParam: logger passed by value for zerolog chaining
func NewStore(db *badger.DB, retention time.Duration, logger zerolog.Logger) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("history: nil database")
	}
	if retention <= 0 {
		retention = DefaultRetention
	}

	return &Store{
		db:        db,
		logger:    logger.With().Str("component", "history").Logger(),
		retention: retention,
		now:       time.Now,
	}, nil
}

// Append writes one append-only record. Negative statuses additionally set
// the permanent suppression marker for the item's key.
func (s *Store) Append(_ context.Context, artist, album string, status Status) error {
	key := models.NormalizeKey(artist, album)
	rec := Record{Artist: artist, Album: album, Status: status, At: s.now().UTC()}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal history record: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(recKey(rec.At, key), data); err != nil {
			return fmt.Errorf("set record: %w", err)
		}
		if status.Negative() {
			if err := txn.Set([]byte(negKeyPrefix+key), data); err != nil {
				return fmt.Errorf("set negative marker: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	metrics.RecordHistoryKeys(1)
	s.logger.Debug().
		Str("key", key).
		Str("status", status.String()).
		Msg("History record appended")

	return nil
}

// RecordSuggested appends suggested records for a sanitized batch in one
// transaction. The coordinator calls this before the pipeline runs, so the
// log captures everything a provider suggested, not just what survived
// filtering.
func (s *Store) RecordSuggested(_ context.Context, recs []models.Recommendation) error {
	if len(recs) == 0 {
		return nil
	}

	at := s.now().UTC()
	err := s.db.Update(func(txn *badger.Txn) error {
		for i := range recs {
			rec := Record{Artist: recs[i].Artist, Album: recs[i].Album, Status: StatusSuggested, At: at}
			data, err := json.Marshal(rec)
			if err != nil {
				return fmt.Errorf("marshal history record: %w", err)
			}
			if err := txn.Set(recKey(at, recs[i].Key()), data); err != nil {
				return fmt.Errorf("set record: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	metrics.RecordHistoryKeys(len(recs))
	return nil
}

// CheckAndMark tests each normalized key against today's bucket and marks
// the absent ones, both in a single transaction. The returned set holds the
// keys that were already present before this call, meaning the caller should
// drop those items. Repeated keys within one call are checked once; catching
// the repeat itself is the session dedup tier's job. Bucket entries carry a
// TTL slightly past the retention window as a backstop to the explicit prune
// loop.
func (s *Store) CheckAndMark(_ context.Context, keys []string) (map[string]bool, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	today := s.now().UTC().Format(dayLayout)
	already := make(map[string]bool)
	seen := make(map[string]struct{}, len(keys))

	err := s.db.Update(func(txn *badger.Txn) error {
		for _, key := range keys {
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			bucketKey := []byte(dayKeyPrefix + today + ":" + key)

			_, err := txn.Get(bucketKey)
			switch {
			case err == nil:
				already[key] = true
			case errors.Is(err, badger.ErrKeyNotFound):
				entry := badger.NewEntry(bucketKey, []byte(strconv.FormatInt(s.now().Unix(), 10))).
					WithTTL(s.retention + 24*time.Hour)
				if err := txn.SetEntry(entry); err != nil {
					return fmt.Errorf("mark suggested key: %w", err)
				}
			default:
				return fmt.Errorf("check suggested key: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return already, nil
}

// Negatives returns which of the given normalized keys carry a rejected or
// disliked marker. Markers never expire.
func (s *Store) Negatives(_ context.Context, keys []string) (map[string]bool, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	negative := make(map[string]bool)
	err := s.db.View(func(txn *badger.Txn) error {
		for _, key := range keys {
			_, err := txn.Get([]byte(negKeyPrefix + key))
			switch {
			case err == nil:
				negative[key] = true
			case errors.Is(err, badger.ErrKeyNotFound):
			default:
				return fmt.Errorf("check negative marker: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return negative, nil
}

// IsNegative reports whether a single normalized key is suppressed.
func (s *Store) IsNegative(ctx context.Context, key string) (bool, error) {
	neg, err := s.Negatives(ctx, []string{key})
	if err != nil {
		return false, err
	}
	return neg[key], nil
}

// Recent returns up to limit append-only records, newest first. A
// non-positive limit uses a default of 100.
func (s *Store) Recent(_ context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 100
	}

	records := make([]Record, 0, limit)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		// Record keys embed a fixed-width unix-nano timestamp, so lexical
		// order is chronological and a reverse scan walks newest first.
		prefix := []byte(recKeyPrefix)
		seek := append([]byte(recKeyPrefix), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(prefix) && len(records) < limit; it.Next() {
			var rec Record
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				return fmt.Errorf("decode history record: %w", err)
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return records, nil
}

// Prune deletes day buckets older than the retention window and returns how
// many distinct days were removed. Append-only records and negative markers
// are never pruned.
func (s *Store) Prune(_ context.Context) (int, error) {
	cutoff := s.now().UTC().Add(-s.retention).Format(dayLayout)

	var stale [][]byte
	days := make(map[string]struct{})

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(dayKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().KeyCopy(nil)
			day := dayOf(key)
			if day != "" && day < cutoff {
				stale = append(stale, key)
				days[day] = struct{}{}
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan history buckets: %w", err)
	}

	if len(stale) == 0 {
		return 0, nil
	}

	// WriteBatch sidesteps the single-transaction size limit when a large
	// backlog ages out at once.
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, key := range stale {
		if err := wb.Delete(key); err != nil {
			return 0, fmt.Errorf("delete history bucket entry: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, fmt.Errorf("flush history prune: %w", err)
	}

	metrics.RecordHistoryPrune(len(days))
	s.logger.Info().
		Int("days", len(days)).
		Int("entries", len(stale)).
		Str("cutoff", cutoff).
		Msg("History buckets pruned")

	return len(days), nil
}

// recKey builds an append-only record key ordered by time.
func recKey(at time.Time, key string) []byte {
	return []byte(recKeyPrefix + strconv.FormatInt(at.UnixNano(), 10) + ":" + key)
}

// dayOf slices the fixed-width day segment out of a bucket key. Returns ""
// for malformed keys.
func dayOf(key []byte) string {
	start := len(dayKeyPrefix)
	end := start + len(dayLayout)
	if len(key) < end {
		return ""
	}
	return string(key[start:end])
}
