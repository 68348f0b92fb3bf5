// Melodex - AI-Powered Music Discovery for Media Library Managers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

package provider

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tomtom215/melodex/internal/models"
)

var (
	// ErrNotRegistered is returned when a fetch cycle selects a provider
	// no adapter has been registered for.
	ErrNotRegistered = errors.New("provider not registered")

	// ErrThrottled marks an HTTP 429 from a backend. Adapters wrap their
	// vendor error with this sentinel so the invoker can count throttles
	// separately from ordinary failures.
	ErrThrottled = errors.New("provider throttled request")
)

// Request is one recommendation call to an AI backend. The caller renders
// the prompt and resolves the effective model before building it; adapters
// only transport it.
type Request struct {
	// Model is the resolved model identifier.
	Model string

	// Prompt is the fully rendered prompt text.
	Prompt string

	// MaxItems is the number of recommendations the prompt asks for.
	MaxItems int
}

// Provider is the adapter surface for one AI backend. Implementations own
// their wire protocol and response parsing; the core only ever sees parsed
// recommendations or an error.
type Provider interface {
	// Name returns the adapter's name for logs and error messages.
	Name() string

	// Recommend issues one request and returns the parsed recommendations.
	Recommend(req Request) ([]models.Recommendation, error)
}

// ContextProvider is optionally implemented by adapters that honor
// cancellation. Detected via type assertion: the invoker prefers this form
// and falls back to Recommend for adapters that do not implement it.
type ContextProvider interface {
	Provider

	// RecommendContext is Recommend with cancellation support.
	RecommendContext(ctx context.Context, req Request) ([]models.Recommendation, error)
}

// Registry maps the provider enum to registered adapters. One instance is
// shared by the invoker and the API layer; construct separate instances in
// tests that need isolation.
type Registry struct {
	mu        sync.RWMutex
	providers map[models.Provider]Provider
	logger    zerolog.Logger
}

// NewRegistry creates an empty adapter registry.
//
//nolint:gocritic // hugeParam: logger passed by value for zerolog chaining
func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{
		providers: make(map[models.Provider]Provider),
		logger:    logger.With().Str("component", "provider").Logger(),
	}
}

// Register installs an adapter for the given provider. Registering a second
// adapter for the same provider replaces the first; composition roots use
// this to swap in test doubles.
func (r *Registry) Register(id models.Provider, p Provider) error {
	if p == nil {
		return fmt.Errorf("provider %s: adapter is nil", id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.providers[id]; ok {
		r.logger.Info().
			Str("provider", id.String()).
			Str("previous", prev.Name()).
			Str("adapter", p.Name()).
			Msg("Replacing provider adapter")
	}
	r.providers[id] = p
	return nil
}

// Get returns the adapter registered for the given provider.
func (r *Registry) Get(id models.Provider) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, id)
	}
	return p, nil
}

// Registered returns the providers that have adapters, in enum order.
func (r *Registry) Registered() []models.Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Provider, 0, len(r.providers))
	for _, id := range models.Providers {
		if _, ok := r.providers[id]; ok {
			out = append(out, id)
		}
	}
	return out
}
