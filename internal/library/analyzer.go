// Melodex - AI-Powered Music Discovery for Media Library Managers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

// Package library analyzes the host's existing music collection. It produces
// the LibraryProfile used for prompt context and cache fingerprinting, and
// the DuplicateIndex the pipeline filters candidates against.
//
// The host's artist/album services are consumed through the narrow
// DataProvider interface so this package carries no dependency on any
// concrete host integration.
package library

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/melodex/internal/models"
)

// DefaultProfileTTL bounds how long a profile is served before the library
// is re-read.
const DefaultProfileTTL = 10 * time.Minute

// DataProvider is the consumer-side view of the host's library database.
// Implementations are expected to be inexpensive; each method is called at
// most once per profile TTL window.
type DataProvider interface {
	// GetAllArtists returns every artist in the library.
	GetAllArtists(ctx context.Context) ([]models.Artist, error)

	// GetAllAlbums returns every album in the library.
	GetAllAlbums(ctx context.Context) ([]models.Album, error)
}

// Analyzer builds and caches the library profile and duplicate index.
// Safe for concurrent use; rebuilds briefly hold an exclusive lock while
// swapping in fresh state.
type Analyzer struct {
	provider DataProvider
	logger   zerolog.Logger
	ttl      time.Duration

	// refreshMu serializes rebuilds so concurrent callers hitting a stale
	// profile trigger a single library read.
	refreshMu sync.Mutex

	mu      sync.RWMutex
	profile *models.LibraryProfile
	index   *DuplicateIndex
	primed  bool
}

// NewAnalyzer creates an analyzer over the given data provider. A nil
// provider is a programming error and fails construction.
//
//nolint:gocritic // hugeParam: logger passed by value for zerolog chaining
func NewAnalyzer(provider DataProvider, ttl time.Duration, logger zerolog.Logger) (*Analyzer, error) {
	if provider == nil {
		return nil, fmt.Errorf("library: nil data provider")
	}
	if ttl <= 0 {
		ttl = DefaultProfileTTL
	}

	return &Analyzer{
		provider: provider,
		logger:   logger.With().Str("component", "library").Logger(),
		ttl:      ttl,
	}, nil
}

// Snapshot returns the current profile and duplicate index, rebuilding first
// if the cached state is missing or older than the TTL. The profile is never
// nil: when the library cannot be read, a previously built profile is served
// stale, and an empty profile is the last resort. Returned values are
// read-only.
func (a *Analyzer) Snapshot(ctx context.Context) (*models.LibraryProfile, *DuplicateIndex) {
	a.mu.RLock()
	if a.primed && !a.profile.IsStale(a.ttl) {
		profile, index := a.profile, a.index
		a.mu.RUnlock()
		return profile, index
	}
	a.mu.RUnlock()

	a.refreshIfStale(ctx)

	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.primed {
		return a.profile, a.index
	}
	return models.EmptyProfile(), NewDuplicateIndex(nil, nil)
}

// Profile returns the current library profile, rebuilding if stale.
func (a *Analyzer) Profile(ctx context.Context) *models.LibraryProfile {
	profile, _ := a.Snapshot(ctx)
	return profile
}

// Index returns the current duplicate index, rebuilding if stale.
func (a *Analyzer) Index(ctx context.Context) *DuplicateIndex {
	_, index := a.Snapshot(ctx)
	return index
}

// Refresh forces a rebuild regardless of TTL. The periodic refresh service
// calls this; fetch-path callers go through Snapshot instead. On error the
// previously cached state is left untouched.
func (a *Analyzer) Refresh(ctx context.Context) error {
	a.refreshMu.Lock()
	defer a.refreshMu.Unlock()
	return a.rebuild(ctx)
}

// refreshIfStale rebuilds only if the profile is still stale once the
// refresh lock is held, so waiters queued behind an in-flight rebuild reuse
// its result.
func (a *Analyzer) refreshIfStale(ctx context.Context) {
	a.refreshMu.Lock()
	defer a.refreshMu.Unlock()

	a.mu.RLock()
	fresh := a.primed && !a.profile.IsStale(a.ttl)
	a.mu.RUnlock()
	if fresh {
		return
	}

	if err := a.rebuild(ctx); err != nil {
		a.mu.RLock()
		primed := a.primed
		a.mu.RUnlock()
		if primed {
			a.logger.Warn().Err(err).Msg("Library refresh failed, serving stale profile")
		} else {
			a.logger.Error().Err(err).Msg("Library analysis failed, serving empty profile")
		}
	}
}

// rebuild reads the library and swaps in a fresh profile and index.
// Callers must hold refreshMu.
func (a *Analyzer) rebuild(ctx context.Context) error {
	start := time.Now()

	artists, err := a.provider.GetAllArtists(ctx)
	if err != nil {
		return fmt.Errorf("library: load artists: %w", err)
	}
	albums, err := a.provider.GetAllAlbums(ctx)
	if err != nil {
		return fmt.Errorf("library: load albums: %w", err)
	}

	profile := buildProfile(artists, albums, time.Now())
	index := NewDuplicateIndex(artists, albums)

	a.mu.Lock()
	a.profile = profile
	a.index = index
	a.primed = true
	a.mu.Unlock()

	artistKeys, albumKeys := index.Size()
	a.logger.Info().
		Int("artists", len(artists)).
		Int("albums", len(albums)).
		Int("artist_keys", artistKeys).
		Int("album_keys", albumKeys).
		Dur("elapsed", time.Since(start)).
		Msg("Library profile rebuilt")

	return nil
}
