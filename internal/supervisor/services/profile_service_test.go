// Melodex - AI-Powered Music Discovery for Media Library Managers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// mockRefresher is a mock implementation for testing.
type mockRefresher struct {
	mu           sync.Mutex
	refreshCalls int
	refreshErr   error
}

func (m *mockRefresher) Refresh(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshCalls++
	return m.refreshErr
}

func (m *mockRefresher) getRefreshCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshCalls
}

func TestProfileRefreshService_String(t *testing.T) {
	svc := NewProfileRefreshService(&mockRefresher{}, time.Hour, zerolog.Nop())

	if got := svc.String(); got != "profile-refresh" {
		t.Errorf("String() = %q, want %q", got, "profile-refresh")
	}
}

func TestProfileRefreshService_DefaultInterval(t *testing.T) {
	svc := NewProfileRefreshService(&mockRefresher{}, 0, zerolog.Nop())

	if svc.interval != 10*time.Minute {
		t.Errorf("expected default interval 10m, got %v", svc.interval)
	}
}

func TestProfileRefreshService_RefreshOnStartup(t *testing.T) {
	analyzer := &mockRefresher{}
	svc := NewProfileRefreshService(analyzer, time.Hour, zerolog.Nop())

	// Long interval so only the startup refresh fires
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_ = svc.Serve(ctx)

	if got := analyzer.getRefreshCalls(); got != 1 {
		t.Errorf("Refresh() called %d times, want 1", got)
	}
}

func TestProfileRefreshService_ScheduledRefresh(t *testing.T) {
	analyzer := &mockRefresher{}
	svc := NewProfileRefreshService(analyzer, 50*time.Millisecond, zerolog.Nop())

	// Startup refresh plus at least 2 scheduled ones
	ctx, cancel := context.WithTimeout(context.Background(), 130*time.Millisecond)
	defer cancel()

	_ = svc.Serve(ctx)

	if got := analyzer.getRefreshCalls(); got < 3 {
		t.Errorf("Refresh() called %d times, want >= 3", got)
	}
}

func TestProfileRefreshService_ContinuesAfterError(t *testing.T) {
	analyzer := &mockRefresher{refreshErr: errors.New("scan failed")}
	svc := NewProfileRefreshService(analyzer, 50*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 130*time.Millisecond)
	defer cancel()

	_ = svc.Serve(ctx)

	// Errors are logged, not fatal; the loop keeps ticking
	if got := analyzer.getRefreshCalls(); got < 2 {
		t.Errorf("Refresh() called %d times, want >= 2", got)
	}
}

func TestProfileRefreshService_GracefulShutdown(t *testing.T) {
	analyzer := &mockRefresher{}
	svc := NewProfileRefreshService(analyzer, time.Hour, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- svc.Serve(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve() did not complete in time")
	}
}
