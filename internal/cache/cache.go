// Melodex - AI-Powered Music Discovery for Media Library Managers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/melodex/internal/metrics"
	"github.com/tomtom215/melodex/internal/models"
)

// metricsLabel tags this cache's series in the shared cache metric families.
const metricsLabel = "recommendation"

// Entry is one cached recommendation list.
type Entry struct {
	Items     []models.ImportItem
	StoredAt  time.Time
	ExpiresAt time.Time
}

// Cache is a thread-safe TTL cache for recommendation lists, keyed by the
// deterministic fetch-cycle key. Expired entries are dropped lazily on read
// and in bulk by Sweep, which the supervisor runs on an interval. When the
// entry cap is reached the oldest entry is evicted.
//
// The cache does not protect against concurrent fetches for the same key;
// that is the fetch guard's job.
type Cache struct {
	mu         sync.RWMutex
	entries    map[string]Entry
	ttl        time.Duration
	maxEntries int
	logger     zerolog.Logger

	statsMu sync.Mutex
	stats   Stats

	// now is swapped by tests to exercise expiry without sleeping.
	now func() time.Time
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Hits      int64     `json:"hits"`
	Misses    int64     `json:"misses"`
	Evictions int64     `json:"evictions"`
	TotalKeys int64     `json:"total_keys"`
	LastSweep time.Time `json:"last_sweep"`
}

// New creates a recommendation cache.
//
//nolint:gocritic // hugeParam: logger passed by value for zerolog chaining
func New(ttl time.Duration, maxEntries int, logger zerolog.Logger) (*Cache, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("cache: ttl must be positive, got %v", ttl)
	}
	if maxEntries <= 0 {
		return nil, fmt.Errorf("cache: maxEntries must be positive, got %d", maxEntries)
	}

	return &Cache{
		entries:    make(map[string]Entry),
		ttl:        ttl,
		maxEntries: maxEntries,
		logger:     logger.With().Str("component", "cache").Logger(),
		now:        time.Now,
	}, nil
}

// TryGet returns the cached list for the key if present and unexpired. The
// returned slice is a copy; callers may mutate it freely.
func (c *Cache) TryGet(key string) ([]models.ImportItem, bool) {
	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		c.recordMiss()
		return nil, false
	}

	if c.now().After(entry.ExpiresAt) {
		c.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have
		// refreshed the entry.
		if cur, ok := c.entries[key]; ok && c.now().After(cur.ExpiresAt) {
			delete(c.entries, key)
			c.recordEviction(1)
		}
		c.syncTotalLocked()
		c.mu.Unlock()
		c.recordMiss()
		return nil, false
	}

	c.recordHit()
	items := make([]models.ImportItem, len(entry.Items))
	copy(items, entry.Items)
	return items, true
}

// Set stores a list under the key with the default TTL, evicting the oldest
// entry first when the cache is full.
func (c *Cache) Set(key string, items []models.ImportItem) {
	stored := make([]models.ImportItem, len(items))
	copy(stored, items)
	at := c.now()

	c.mu.Lock()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictOldestLocked()
	}
	c.entries[key] = Entry{
		Items:     stored,
		StoredAt:  at,
		ExpiresAt: at.Add(c.ttl),
	}
	c.syncTotalLocked()
	c.mu.Unlock()

	c.logger.Debug().
		Str("key", key).
		Int("items", len(items)).
		Msg("Recommendation list cached")
}

// Delete removes one entry.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	if _, exists := c.entries[key]; exists {
		delete(c.entries, key)
		c.recordEviction(1)
	}
	c.syncTotalLocked()
	c.mu.Unlock()
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	evicted := len(c.entries)
	c.entries = make(map[string]Entry)
	c.recordEviction(evicted)
	c.syncTotalLocked()
	c.mu.Unlock()

	if evicted > 0 {
		c.logger.Info().Int("evicted", evicted).Msg("Cache cleared")
	}
}

// Sweep removes every expired entry and returns how many were dropped. The
// supervisor's sweep service calls this on an interval.
func (c *Cache) Sweep() int {
	now := c.now()

	c.mu.Lock()
	evicted := 0
	for key, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			delete(c.entries, key)
			evicted++
		}
	}
	c.recordEviction(evicted)
	c.syncTotalLocked()
	c.mu.Unlock()

	c.statsMu.Lock()
	c.stats.LastSweep = now
	c.statsMu.Unlock()

	if evicted > 0 {
		c.logger.Debug().Int("evicted", evicted).Msg("Expired cache entries swept")
	}
	return evicted
}

// GetStats returns a snapshot of the cache counters.
func (c *Cache) GetStats() Stats {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	return c.stats
}

// HitRate returns the hit percentage over the cache's lifetime.
func (c *Cache) HitRate() float64 {
	stats := c.GetStats()
	total := stats.Hits + stats.Misses
	if total == 0 {
		return 0.0
	}
	return float64(stats.Hits) / float64(total) * 100.0
}

// evictOldestLocked removes the entry with the earliest StoredAt. Caller
// holds the write lock.
func (c *Cache) evictOldestLocked() {
	var oldestKey string
	var oldestAt time.Time
	for key, entry := range c.entries {
		if oldestKey == "" || entry.StoredAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = entry.StoredAt
		}
	}
	if oldestKey == "" {
		return
	}

	delete(c.entries, oldestKey)
	c.recordEviction(1)
	c.logger.Debug().Str("key", oldestKey).Msg("Oldest cache entry evicted")
}

// syncTotalLocked refreshes the key-count stat and gauge. Caller holds the
// write lock.
func (c *Cache) syncTotalLocked() {
	total := len(c.entries)

	c.statsMu.Lock()
	c.stats.TotalKeys = int64(total)
	c.statsMu.Unlock()

	metrics.SetCacheSize(metricsLabel, total)
}

func (c *Cache) recordHit() {
	c.statsMu.Lock()
	c.stats.Hits++
	c.statsMu.Unlock()

	metrics.RecordCacheHit(metricsLabel)
}

func (c *Cache) recordMiss() {
	c.statsMu.Lock()
	c.stats.Misses++
	c.statsMu.Unlock()

	metrics.RecordCacheMiss(metricsLabel)
}

func (c *Cache) recordEviction(n int) {
	if n <= 0 {
		return
	}

	c.statsMu.Lock()
	c.stats.Evictions += int64(n)
	c.statsMu.Unlock()

	metrics.RecordCacheEvictions(metricsLabel, n)
}
