// Melodex - AI-Powered Music Discovery for Media Library Managers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

package library

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/melodex/internal/models"
)

// librarySnapshot is the on-disk export shape.
type librarySnapshot struct {
	Artists []models.Artist `json:"artists"`
	Albums  []models.Album  `json:"albums"`
}

// SnapshotProvider reads the library from a JSON snapshot file exported by
// the host manager. The file is re-read on every call, so an updated export
// is picked up at the next profile refresh without a restart.
//
// A missing file and an empty path both yield an empty library; that is the
// normal cold-start state before the host has exported anything. A file
// that exists but cannot be read or parsed is an error, which the analyzer
// absorbs by serving the previous profile.
type SnapshotProvider struct {
	path   string
	logger zerolog.Logger
}

// NewSnapshotProvider creates a provider reading from path.
//
//nolint:gocritic // hugeParam: logger passed by value for zerolog chaining
func NewSnapshotProvider(path string, logger zerolog.Logger) *SnapshotProvider {
	return &SnapshotProvider{
		path:   path,
		logger: logger.With().Str("component", "library").Logger(),
	}
}

// GetAllArtists returns the artists in the snapshot.
func (p *SnapshotProvider) GetAllArtists(_ context.Context) ([]models.Artist, error) {
	snap, err := p.load()
	if err != nil {
		return nil, err
	}
	return snap.Artists, nil
}

// GetAllAlbums returns the albums in the snapshot.
func (p *SnapshotProvider) GetAllAlbums(_ context.Context) ([]models.Album, error) {
	snap, err := p.load()
	if err != nil {
		return nil, err
	}
	return snap.Albums, nil
}

func (p *SnapshotProvider) load() (*librarySnapshot, error) {
	if p.path == "" {
		return &librarySnapshot{}, nil
	}

	data, err := os.ReadFile(p.path)
	if errors.Is(err, fs.ErrNotExist) {
		// Not exported yet; an empty library is a valid cold start.
		p.logger.Debug().Str("path", p.path).Msg("Library snapshot not present")
		return &librarySnapshot{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("library: read snapshot: %w", err)
	}

	var snap librarySnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("library: decode snapshot %s: %w", p.path, err)
	}
	return &snap, nil
}
