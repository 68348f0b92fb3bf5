// Melodex - AI-Powered Music Discovery for Media Library Managers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

// Package services provides suture service wrappers for the application's
// long-running components. Each wrapper owns its schedule and translates
// the component's API into suture's context-aware Serve loop.
package services
