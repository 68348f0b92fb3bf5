// Melodex - AI-Powered Music Discovery for Media Library Managers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/tomtom215/melodex/internal/config"
	"github.com/tomtom215/melodex/internal/logging"
	"github.com/tomtom215/melodex/internal/metrics"
	"github.com/tomtom215/melodex/internal/storage"
	"github.com/tomtom215/melodex/internal/supervisor"
	"github.com/tomtom215/melodex/internal/supervisor/services"
)

// version is stamped by the release build via -ldflags.
var version = "dev"

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		// Use default logger for config errors (config not yet available)
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize zerolog with configuration
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("version", version).
		Str("provider", cfg.Provider.Name).
		Str("model", cfg.Provider.Model).
		Str("mode", cfg.Recommend.Mode).
		Str("db_path", cfg.Database.Path).
		Msg("Starting Melodex")

	metrics.AppInfo.WithLabelValues(version, runtime.Version()).Set(1)

	logger := logging.Logger()

	// Open the Badger store backing history and the review queue
	db, err := storage.Open(storage.Options{
		Dir:      cfg.Database.Path,
		InMemory: cfg.Database.InMemory,
	}, logger)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open store")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing store")
		}
	}()
	logging.Info().Bool("in_memory", cfg.Database.InMemory).Msg("Store opened")

	settings, err := buildSettings(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to build engine settings")
	}

	eng, err := initEngine(cfg, db, logger)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to assemble recommendation engine")
	}

	apiHandler, err := initAPI(cfg, eng, db, settings, logger)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to build API")
	}

	server := &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:     apiHandler,
		ReadTimeout: cfg.Server.Timeout,
		// Fetch cycles legitimately run minutes against local models; the
		// write timeout must outlive the fetch handler's own budget.
		WriteTimeout: 6 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create supervisor tree. sutureslog wants slog, so the supervisor gets
	// the zerolog-backed slog adapter.
	tree, err := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	// Maintenance layer services
	tree.AddMaintenanceService(services.NewHistoryPruneService(eng.History, cfg.History.PruneInterval, logger))
	tree.AddMaintenanceService(services.NewCacheSweepService(eng.Cache, cfg.Cache.SweepInterval, logger))
	tree.AddMaintenanceService(services.NewProfileRefreshService(eng.Analyzer, cfg.Library.RefreshInterval, logger))
	if !cfg.Database.InMemory {
		tree.AddMaintenanceService(services.NewStoreGCService(db, cfg.Database.GCInterval, cfg.Database.GCDiscardRatio, logger))
	}
	logging.Info().Msg("Maintenance services added to supervisor tree")

	// API layer services
	tree.AddAPIService(services.NewHTTPServerService(server, server.Addr, 10*time.Second, logger))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	// Track process uptime for the metrics endpoint
	started := time.Now()
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				metrics.AppUptime.Set(time.Since(started).Seconds())
			}
		}
	}()

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	// Wait for supervisor to finish (either from signal or error)
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Wait for the error channel to close (supervisor finished)
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	// Report any services that failed to stop within timeout
	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Melodex stopped gracefully")
}
