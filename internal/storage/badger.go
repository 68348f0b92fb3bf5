// Melodex - AI-Powered Music Discovery for Media Library Managers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

// Package storage owns the embedded BadgerDB instance shared by the history
// and review stores. Each store namespaces its keys with a distinct prefix;
// the composition root opens one database and passes the handle down.
package storage

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
)

// Options configures the shared database.
type Options struct {
	// Dir is the on-disk location. Ignored when InMemory is set.
	Dir string

	// InMemory runs badger without files, for tests and ephemeral deploys.
	InMemory bool
}

// Open creates or opens the shared BadgerDB database.
//
//nolint:gocritic // hugeParam: logger passed by value for zerolog chaining
func Open(opts Options, logger zerolog.Logger) (*badger.DB, error) {
	badgerOpts := badger.DefaultOptions(opts.Dir)
	if opts.InMemory {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
	}

	// Badger's own logger is noisy at INFO; all operational signal we need
	// comes from the GC loop and store-level logs.
	badgerOpts.Logger = nil

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	logger.Info().
		Str("dir", opts.Dir).
		Bool("in_memory", opts.InMemory).
		Msg("Database opened")

	return db, nil
}

// RunGC triggers one value-log garbage collection pass. Badger returns
// ErrNoRewrite when there was nothing worth collecting; that is a normal
// outcome, not an error.
func RunGC(db *badger.DB, discardRatio float64) error {
	err := db.RunValueLogGC(discardRatio)
	if err != nil && !errors.Is(err, badger.ErrNoRewrite) {
		return fmt.Errorf("badger gc: %w", err)
	}
	return nil
}
