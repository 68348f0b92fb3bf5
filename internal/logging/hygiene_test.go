// Melodex - AI-Powered Music Discovery for Media Library Managers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

package logging

import (
	"strings"
	"testing"
)

func TestSanitizeToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"short", "abc123", "***"},
		{"boundary", "123456789012", "***"},
		{"long", "sk-proj-abcdef0123456789", "sk-p...6789"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := SanitizeToken(tt.input); got != tt.expected {
				t.Errorf("SanitizeToken(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSanitizeTokenNeverRevealsMiddle(t *testing.T) {
	t.Parallel()

	secret := "sk-proj-SUPERSECRETMIDDLE-tail"
	got := SanitizeToken(secret)
	if strings.Contains(got, "SUPERSECRETMIDDLE") {
		t.Errorf("sanitized token leaked middle section: %q", got)
	}
}

func TestSanitizeError(t *testing.T) {
	t.Parallel()

	withCredential := SanitizeError("401 unauthorized: bad Authorization header")
	if strings.Contains(strings.ToLower(withCredential), "authorization") {
		t.Errorf("expected credential-ish error to be withheld, got %q", withCredential)
	}

	plain := SanitizeError("connection refused")
	if plain != "connection refused" {
		t.Errorf("expected plain error unchanged, got %q", plain)
	}
}

func TestTruncateField(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("a", 300)
	got := TruncateField(long, 200)
	if len(got) != 203 {
		t.Errorf("expected 203 chars (200 + ellipsis), got %d", len(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("expected truncated suffix, got %q", got[len(got)-5:])
	}

	short := TruncateField("short", 200)
	if short != "short" {
		t.Errorf("expected short string unchanged, got %q", short)
	}
}
