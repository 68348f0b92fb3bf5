// Melodex - AI-Powered Music Discovery for Media Library Managers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

package provider

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/melodex/internal/models"
)

func TestBreakerRegistry_SameInstancePerKey(t *testing.T) {
	reg := NewBreakerRegistry(zerolog.Nop())

	a := reg.Get(models.ProviderOpenAI, "gpt-4o-mini")
	b := reg.Get(models.ProviderOpenAI, "gpt-4o-mini")
	if a != b {
		t.Error("Get() returned distinct breakers for the same (provider, model)")
	}
}

func TestBreakerRegistry_DistinctPerModel(t *testing.T) {
	reg := NewBreakerRegistry(zerolog.Nop())

	a := reg.Get(models.ProviderOpenAI, "gpt-4o-mini")
	b := reg.Get(models.ProviderOpenAI, "gpt-4o")
	c := reg.Get(models.ProviderGroq, "gpt-4o-mini")
	if a == b {
		t.Error("Get() shared a breaker across models")
	}
	if a == c {
		t.Error("Get() shared a breaker across providers")
	}
}

func TestBreaker_TripsAtFailureThreshold(t *testing.T) {
	reg := NewBreakerRegistry(zerolog.Nop())
	cb := reg.Get(models.ProviderOpenAI, "gpt-4o-mini")
	failure := errors.New("backend unavailable")

	for i := 0; i < 10; i++ {
		_, err := cb.Execute(func() ([]models.Recommendation, error) {
			return nil, failure
		})
		if !errors.Is(err, failure) {
			t.Fatalf("Execute() attempt %d error = %v, want %v", i+1, err, failure)
		}
	}

	if state := cb.State(); state != gobreaker.StateOpen {
		t.Fatalf("breaker state after 10 failures = %v, want open", state)
	}

	_, err := cb.Execute(func() ([]models.Recommendation, error) {
		t.Error("open breaker must not invoke the wrapped call")
		return nil, nil
	})
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("Execute() on open breaker error = %v, want ErrOpenState", err)
	}
}

func TestBreaker_StaysClosedBelowRequestVolume(t *testing.T) {
	reg := NewBreakerRegistry(zerolog.Nop())
	cb := reg.Get(models.ProviderOpenAI, "gpt-4o-mini")
	failure := errors.New("backend unavailable")

	// Nine straight failures is a 100% failure rate but below the minimum
	// request volume; the ratio is not yet trusted.
	for i := 0; i < 9; i++ {
		_, _ = cb.Execute(func() ([]models.Recommendation, error) {
			return nil, failure
		})
	}

	if state := cb.State(); state != gobreaker.StateClosed {
		t.Fatalf("breaker state after 9 failures = %v, want closed", state)
	}
}
