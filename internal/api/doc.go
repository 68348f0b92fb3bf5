// Melodex - AI-Powered Music Discovery for Media Library Managers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

// Package api exposes the HTTP surface of the recommendation engine: the
// fetch endpoint, provider and model catalogs, the review queue, history,
// health probes, and a JSON metrics snapshot.
//
// All endpoints live under /api/v1 and return the APIResponse envelope.
// Prometheus exposition is served separately at /metrics.
package api
