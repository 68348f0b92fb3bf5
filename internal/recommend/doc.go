// Melodex - AI-Powered Music Discovery for Media Library Managers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

// Package recommend orchestrates a fetch cycle end to end.
//
// The Engine is the single entry point per cycle: it resolves the cached
// library profile, checks the recommendation cache, and on a miss runs the
// provider fetch followed by the hardening pipeline under a per-key fetch
// guard. Its Fetch method never returns an error to the host; every failure
// path degrades to an empty list plus logged errors.
//
// The Pipeline applies the strictly ordered hardening stages to raw provider
// output: validate, filter existing library entries, enrich external IDs,
// safety-gate, convert to import items, and three-tier dedup. When a cycle
// lands short of target and iterative mode is on, the TopUp planner re-issues
// scoped provider calls to close the deficit.
//
// The Fetcher is the default provider path: it renders prompts from the
// library profile, sizes batches through the planner, and executes them
// through the invoker. It is wired in as a FetchFunc so tests and embedders
// can substitute their own source of raw recommendations.
package recommend
