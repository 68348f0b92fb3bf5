// Melodex - AI-Powered Music Discovery for Media Library Managers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

// Package supervisor builds the suture service tree that keeps the
// long-running parts of Melodex alive: the HTTP server and the maintenance
// loops (history pruning, cache sweeping, profile refresh, store GC).
//
// The tree has two child layers. A crash-looping maintenance service backs
// off on its own without taking the API layer down with it.
package supervisor
