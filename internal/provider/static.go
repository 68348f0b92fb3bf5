// Melodex - AI-Powered Music Discovery for Media Library Managers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

package provider

import (
	"github.com/tomtom215/melodex/internal/models"
)

// Static serves a fixed recommendation list without touching any network.
// It backs demo deployments and tests; real installs register an adapter
// that speaks the configured vendor's protocol. Static implements only the
// plain Provider surface, which also makes it the standing exercise of the
// invoker's non-context fallback path.
type Static struct {
	name  string
	items []models.Recommendation
	err   error
}

// NewStatic creates a static provider named name serving items.
func NewStatic(name string, items []models.Recommendation) *Static {
	return &Static{name: name, items: items}
}

// NewStaticError creates a static provider whose every call fails with err.
// Breaker and retry tests drive the failure paths through it.
func NewStaticError(name string, err error) *Static {
	return &Static{name: name, err: err}
}

// Name returns the configured adapter name.
func (s *Static) Name() string { return s.name }

// Recommend returns up to req.MaxItems of the configured list. The returned
// slice is a copy; callers mutate their batch freely.
func (s *Static) Recommend(req Request) ([]models.Recommendation, error) {
	if s.err != nil {
		return nil, s.err
	}

	n := len(s.items)
	if req.MaxItems > 0 && req.MaxItems < n {
		n = req.MaxItems
	}
	out := make([]models.Recommendation, n)
	copy(out, s.items[:n])
	return out, nil
}
