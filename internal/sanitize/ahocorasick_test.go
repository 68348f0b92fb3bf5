// Melodex - AI-Powered Music Discovery for Media Library Managers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

package sanitize

import (
	"strings"
	"sync"
	"testing"
)

func TestAhoCorasick_BasicOperations(t *testing.T) {
	t.Parallel()

	ac := NewAhoCorasick()
	ac.AddPattern("he", nil)
	ac.AddPattern("she", nil)
	ac.AddPattern("his", nil)
	ac.AddPattern("hers", nil)
	ac.Build()

	text := "ushers"
	matches := ac.Search(text)

	// Should find: "she" at 1, "he" at 2, "hers" at 2
	if len(matches) < 3 {
		t.Errorf("Expected at least 3 matches, got %d", len(matches))
	}

	foundShe := false
	foundHe := false
	foundHers := false

	for _, m := range matches {
		switch m.Pattern {
		case "she":
			foundShe = true
		case "he":
			foundHe = true
		case "hers":
			foundHers = true
		}
	}

	if !foundShe {
		t.Error("Expected to find 'she'")
	}
	if !foundHe {
		t.Error("Expected to find 'he'")
	}
	if !foundHers {
		t.Error("Expected to find 'hers'")
	}
}

func TestAhoCorasick_CaseInsensitive(t *testing.T) {
	t.Parallel()

	ac := NewAhoCorasick()
	ac.AddPattern("drop table", nil)
	ac.AddPattern("<script", nil)
	ac.Build()

	// All variations should match
	tests := []string{
		"drop table users; <script>",
		"DROP TABLE users; <SCRIPT>",
		"Drop Table users; <Script>",
		"dRoP tAbLe users; <sCrIpT>",
	}

	for _, text := range tests {
		matches := ac.Search(text)
		if len(matches) != 2 {
			t.Errorf("Search(%q) = %d matches, want 2", text, len(matches))
		}
	}
}

func TestAhoCorasick_SearchFirst(t *testing.T) {
	t.Parallel()

	ac := NewAhoCorasick()
	ac.AddPattern("first", "1")
	ac.AddPattern("second", "2")
	ac.AddPattern("third", "3")
	ac.Build()

	text := "The first thing, then second and third"

	match, found := ac.SearchFirst(text)
	if !found {
		t.Error("SearchFirst should find a match")
	}

	if match.Pattern != "first" {
		t.Errorf("SearchFirst pattern = %q, want 'first'", match.Pattern)
	}

	if match.Data != "1" {
		t.Errorf("SearchFirst data = %v, want '1'", match.Data)
	}
}

func TestAhoCorasick_Contains(t *testing.T) {
	t.Parallel()

	ac := NewAhoCorasick()
	ac.AddPattern("union select", nil)
	ac.AddPattern("javascript:", nil)
	ac.Build()

	if !ac.Contains("1 union select name from users") {
		t.Error("Contains should return true")
	}

	if ac.Contains("a perfectly normal album title") {
		t.Error("Contains should return false")
	}
}

func TestAhoCorasick_EmptyPattern(t *testing.T) {
	t.Parallel()

	ac := NewAhoCorasick()
	ac.AddPattern("", nil) // Should be ignored
	ac.AddPattern("valid", nil)
	ac.Build()

	if ac.PatternCount() != 1 {
		t.Errorf("PatternCount = %d, want 1", ac.PatternCount())
	}
}

func TestAhoCorasick_NoPatterns(t *testing.T) {
	t.Parallel()

	ac := NewAhoCorasick()
	ac.Build()

	matches := ac.Search("any text")
	if len(matches) != 0 {
		t.Errorf("Search with no patterns should return empty, got %d", len(matches))
	}

	if ac.Contains("any text") {
		t.Error("Contains with no patterns should return false")
	}
}

func TestAhoCorasick_NotBuilt(t *testing.T) {
	t.Parallel()

	ac := NewAhoCorasick()
	ac.AddPattern("test", nil)
	// Don't call Build()

	matches := ac.Search("test string")
	if len(matches) != 0 {
		t.Errorf("Search without Build should return empty, got %d", len(matches))
	}
}

func TestAhoCorasick_Rebuild(t *testing.T) {
	t.Parallel()

	ac := NewAhoCorasick()
	ac.AddPattern("first", nil)
	ac.Build()

	// Add more patterns after build
	ac.AddPattern("second", nil)
	ac.Build() // Rebuild

	if ac.PatternCount() != 2 {
		t.Errorf("PatternCount after rebuild = %d, want 2", ac.PatternCount())
	}

	if !ac.Contains("first and second") {
		t.Error("Should find both patterns after rebuild")
	}
}

func TestAhoCorasick_OverlappingPatterns(t *testing.T) {
	t.Parallel()

	ac := NewAhoCorasick()
	ac.AddPattern("ab", nil)
	ac.AddPattern("abc", nil)
	ac.AddPattern("bc", nil)
	ac.Build()

	matches := ac.Search("abc")

	// Should find all overlapping patterns
	if len(matches) != 3 {
		t.Errorf("Expected 3 matches for overlapping patterns, got %d", len(matches))
	}
}

func TestAhoCorasick_WithData(t *testing.T) {
	t.Parallel()

	ac := NewAhoCorasick()
	ac.AddPattern("drop table", ThreatSQLInjection)
	ac.AddPattern("<iframe", ThreatXSS)
	ac.AddPattern("../", ThreatPathTraversal)
	ac.Build()

	matches := ac.Search("x drop table y <iframe z ../ w")

	if len(matches) != 3 {
		t.Fatalf("Expected 3 matches, got %d", len(matches))
	}

	for _, m := range matches {
		category, ok := m.Data.(string)
		if !ok {
			t.Error("Data should be string category")
			continue
		}

		if m.Pattern == "drop table" && category != ThreatSQLInjection {
			t.Errorf("drop table category = %q, want %q", category, ThreatSQLInjection)
		}
		if m.Pattern == "<iframe" && category != ThreatXSS {
			t.Errorf("<iframe category = %q, want %q", category, ThreatXSS)
		}
		if m.Pattern == "../" && category != ThreatPathTraversal {
			t.Errorf("../ category = %q, want %q", category, ThreatPathTraversal)
		}
	}
}

func TestAhoCorasick_Concurrent(t *testing.T) {
	t.Parallel()

	ac := NewAhoCorasick()
	ac.AddPattern("pattern1", nil)
	ac.AddPattern("pattern2", nil)
	ac.AddPattern("pattern3", nil)
	ac.Build()

	var wg sync.WaitGroup
	numGoroutines := 50
	numOps := 100

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < numOps; j++ {
				text := "text with pattern1 and pattern2 inside"
				ac.Search(text)
				ac.Contains(text)
				ac.SearchFirst(text)
			}
		}()
	}

	wg.Wait()
}

// Benchmark tests

func BenchmarkAhoCorasick_Build(b *testing.B) {
	patterns := make([]string, 100)
	for i := 0; i < 100; i++ {
		patterns[i] = "pattern" + string(rune(i))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ac := NewAhoCorasick()
		for _, p := range patterns {
			ac.AddPattern(p, nil)
		}
		ac.Build()
	}
}

func BenchmarkAhoCorasick_Search(b *testing.B) {
	ac := NewAhoCorasick()
	for i := 0; i < 100; i++ {
		ac.AddPattern("pattern"+string(rune(i%26+'a')), nil)
	}
	ac.Build()

	text := strings.Repeat("This is a test text with patterna and patternb inside. ", 10)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		ac.Search(text)
	}
}

func BenchmarkAhoCorasick_Contains(b *testing.B) {
	ac := NewAhoCorasick()
	for i := 0; i < 100; i++ {
		ac.AddPattern("pattern"+string(rune(i%26+'a')), nil)
	}
	ac.Build()

	text := "This is a test text with patternz at the end"
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		ac.Contains(text)
	}
}

// Compare with naive approach
func BenchmarkNaivePatternMatch(b *testing.B) {
	patterns := make([]string, 100)
	for i := 0; i < 100; i++ {
		patterns[i] = "pattern" + string(rune(i%26+'a'))
	}

	text := strings.Repeat("This is a test text with patterna and patternb inside. ", 10)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		for _, p := range patterns {
			strings.Contains(strings.ToLower(text), strings.ToLower(p))
		}
	}
}
