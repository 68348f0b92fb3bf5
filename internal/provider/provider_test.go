// Melodex - AI-Powered Music Discovery for Media Library Managers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

package provider

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tomtom215/melodex/internal/models"
)

func TestRegistry_RegisterAndGet(t *testing.T) {
	reg := NewRegistry(zerolog.Nop())
	static := NewStatic("ollama-static", nil)

	if err := reg.Register(models.ProviderOllama, static); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	got, err := reg.Get(models.ProviderOllama)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Name() != "ollama-static" {
		t.Errorf("Get().Name() = %q, want %q", got.Name(), "ollama-static")
	}
}

func TestRegistry_GetNotRegistered(t *testing.T) {
	reg := NewRegistry(zerolog.Nop())

	_, err := reg.Get(models.ProviderAnthropic)
	if !errors.Is(err, ErrNotRegistered) {
		t.Fatalf("Get() error = %v, want ErrNotRegistered", err)
	}
}

func TestRegistry_RegisterNilAdapter(t *testing.T) {
	reg := NewRegistry(zerolog.Nop())

	if err := reg.Register(models.ProviderOllama, nil); err == nil {
		t.Fatal("Register(nil) expected error, got nil")
	}
}

func TestRegistry_ReplaceAdapter(t *testing.T) {
	reg := NewRegistry(zerolog.Nop())

	if err := reg.Register(models.ProviderOllama, NewStatic("first", nil)); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := reg.Register(models.ProviderOllama, NewStatic("second", nil)); err != nil {
		t.Fatalf("Register() replace error = %v", err)
	}

	got, err := reg.Get(models.ProviderOllama)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Name() != "second" {
		t.Errorf("Get().Name() = %q, want replacement %q", got.Name(), "second")
	}
}

func TestRegistry_RegisteredEnumOrder(t *testing.T) {
	reg := NewRegistry(zerolog.Nop())

	// Registered out of declaration order.
	for _, id := range []models.Provider{models.ProviderGemini, models.ProviderOllama, models.ProviderOpenAI} {
		if err := reg.Register(id, NewStatic(id.String(), nil)); err != nil {
			t.Fatalf("Register(%s) error = %v", id, err)
		}
	}

	got := reg.Registered()
	want := []models.Provider{models.ProviderOllama, models.ProviderOpenAI, models.ProviderGemini}
	if len(got) != len(want) {
		t.Fatalf("Registered() returned %d providers, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i] != id {
			t.Errorf("Registered()[%d] = %s, want %s", i, got[i], id)
		}
	}
}

func TestStatic_RecommendCapsAtMaxItems(t *testing.T) {
	items := []models.Recommendation{
		{Artist: "Boards of Canada", Album: "Geogaddi"},
		{Artist: "Autechre", Album: "Tri Repetae"},
		{Artist: "Aphex Twin", Album: "Drukqs"},
	}
	static := NewStatic("static", items)

	got, err := static.Recommend(Request{MaxItems: 2})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Recommend() returned %d items, want 2", len(got))
	}

	// A larger ask returns the whole list, never padding.
	got, err = static.Recommend(Request{MaxItems: 50})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(got) != 3 {
		t.Errorf("Recommend() returned %d items, want 3", len(got))
	}
}

func TestStatic_RecommendReturnsCopy(t *testing.T) {
	static := NewStatic("static", []models.Recommendation{{Artist: "Can", Album: "Tago Mago"}})

	first, err := static.Recommend(Request{MaxItems: 1})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	first[0].Artist = "mutated"

	second, err := static.Recommend(Request{MaxItems: 1})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if second[0].Artist != "Can" {
		t.Errorf("caller mutation leaked into provider state: Artist = %q", second[0].Artist)
	}
}

func TestStatic_Error(t *testing.T) {
	wantErr := errors.New("backend down")
	static := NewStaticError("static", wantErr)

	_, err := static.Recommend(Request{MaxItems: 5})
	if !errors.Is(err, wantErr) {
		t.Fatalf("Recommend() error = %v, want %v", err, wantErr)
	}
}
