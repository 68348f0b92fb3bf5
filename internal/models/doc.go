// Melodex - AI-Powered Music Discovery for Media Library Managers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

// Package models defines data structures shared across the Melodex engine.
// These models represent AI recommendations, host library records, the
// library profile, review queue items, and the settings bag that shapes a
// fetch cycle.
package models
