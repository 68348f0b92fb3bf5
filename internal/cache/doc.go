// Melodex - AI-Powered Music Discovery for Media Library Managers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

/*
Package cache stores finished recommendation lists between fetch cycles.

An AI provider call is the most expensive operation in the system, so a
completed cycle's output is kept for the configured TTL and served to any
later cycle with the same semantic inputs. The engine is the only component
that reads or writes this cache.

# Keys

KeyBuilder derives one deterministic key per distinct fetch request. The key
covers everything that could change the output:

  - the key format, sanitizer, and planner versions
  - provider, effective model, recommendation and discovery modes, sampling
    strategy, target count
  - style filters, normalized and sorted so selection order is irrelevant
  - the library profile's top genre and artist slices, so a materially
    changed library stops hitting stale entries

Inputs are serialized to canonical JSON and hashed; the key reveals nothing
about the library.

# Expiry and bounds

Entries expire after the TTL and are dropped lazily on read. The supervisor
runs Sweep on an interval to purge entries nothing is reading. The cache
holds at most maxEntries lists; storing into a full cache evicts the oldest
entry first.

# Concurrency

All methods are safe for concurrent use. The cache deliberately does not
serialize fetches for the same key; the dedup package's fetch guard owns
that concern.
*/
package cache
