// Melodex - AI-Powered Music Discovery for Media Library Managers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

package main

import (
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"github.com/tomtom215/melodex/internal/cache"
	"github.com/tomtom215/melodex/internal/config"
	"github.com/tomtom215/melodex/internal/dedup"
	"github.com/tomtom215/melodex/internal/gate"
	"github.com/tomtom215/melodex/internal/history"
	"github.com/tomtom215/melodex/internal/library"
	"github.com/tomtom215/melodex/internal/models"
	"github.com/tomtom215/melodex/internal/planner"
	"github.com/tomtom215/melodex/internal/provider"
	"github.com/tomtom215/melodex/internal/recommend"
	"github.com/tomtom215/melodex/internal/review"
	"github.com/tomtom215/melodex/internal/sanitize"
)

// engineComponents holds the assembled recommendation core plus the pieces
// main wires into the API handler and the maintenance services.
type engineComponents struct {
	Engine   *recommend.Engine
	Queue    *review.Queue
	History  *history.Store
	Cache    *cache.Cache
	Analyzer *library.Analyzer
}

// initEngine assembles the full recommendation pipeline from configuration.
// Construction is all-or-nothing: any wiring failure aborts startup.
//
//nolint:gocritic // hugeParam: logger passed by value for zerolog chaining
func initEngine(cfg *config.Config, db *badger.DB, logger zerolog.Logger) (*engineComponents, error) {
	retention := time.Duration(cfg.History.RetentionDays) * 24 * time.Hour
	historyStore, err := history.NewStore(db, retention, logger)
	if err != nil {
		return nil, fmt.Errorf("history store: %w", err)
	}

	queue, err := review.NewQueue(db, historyStore, logger)
	if err != nil {
		return nil, fmt.Errorf("review queue: %w", err)
	}

	safetyGate, err := gate.NewGate(queue, nil, logger)
	if err != nil {
		return nil, fmt.Errorf("safety gate: %w", err)
	}

	ded, err := dedup.NewDeduplicator(historyStore, logger)
	if err != nil {
		return nil, fmt.Errorf("deduplicator: %w", err)
	}

	san := sanitize.NewSanitizer(logger)

	snapshot := library.NewSnapshotProvider(cfg.Library.SnapshotPath, logger)
	analyzer, err := library.NewAnalyzer(snapshot, cfg.Library.ProfileTTL, logger)
	if err != nil {
		return nil, fmt.Errorf("library analyzer: %w", err)
	}

	registry := provider.NewRegistry(logger)
	registerProviders(registry, logger)

	invoker, err := provider.NewInvoker(
		registry,
		provider.NewBreakerRegistry(logger),
		provider.NewLimiterRegistry(),
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("provider invoker: %w", err)
	}

	fetcher, err := recommend.NewFetcher(invoker, planner.New(logger), logger)
	if err != nil {
		return nil, fmt.Errorf("fetcher: %w", err)
	}

	topup, err := recommend.NewTopUp(fetcher.Fetch, san, ded, logger)
	if err != nil {
		return nil, fmt.Errorf("top-up planner: %w", err)
	}

	pipeline, err := recommend.NewPipeline(recommend.NopEnricher{}, safetyGate, ded, topup, logger)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	recCache, err := cache.New(cfg.Cache.TTL, cfg.Cache.MaxEntries, logger)
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}

	engine, err := recommend.NewEngine(recommend.EngineParams{
		Analyzer:  analyzer,
		Cache:     recCache,
		Keys:      cache.NewKeyBuilder(sanitize.Version, planner.Version),
		Guard:     dedup.NewGuard(0, 0, logger),
		History:   historyStore,
		Sanitizer: san,
		Pipeline:  pipeline,
		Fetch:     fetcher.Fetch,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	logger.Info().
		Str("provider", cfg.Provider.Name).
		Str("model", cfg.Provider.Model).
		Int("target", cfg.Recommend.MaxRecommendations).
		Msg("Recommendation engine assembled")

	return &engineComponents{
		Engine:   engine,
		Queue:    queue,
		History:  historyStore,
		Cache:    recCache,
		Analyzer: analyzer,
	}, nil
}

// registerProviders wires the stock adapter set. The shipped binary serves a
// deterministic static catalog for every provider; vendor adapters replace
// these registrations via Registry.Register.
//
//nolint:gocritic // hugeParam: logger passed by value for zerolog chaining
func registerProviders(registry *provider.Registry, logger zerolog.Logger) {
	demo := provider.NewStatic("static-demo", demoCatalog())
	for _, id := range models.Providers {
		if err := registry.Register(id, demo); err != nil {
			logger.Warn().Err(err).Str("provider", id.String()).Msg("Failed to register adapter")
		}
	}
	logger.Info().
		Int("providers", len(models.Providers)).
		Msg("Static demo adapter registered; register vendor adapters to go live")
}

// demoCatalog is the static adapter's fixed suggestion list. Broad-genre
// classics with varied confidence, so the gate, dedup, and review paths all
// see traffic out of the box.
func demoCatalog() []models.Recommendation {
	return []models.Recommendation{
		{Artist: "Miles Davis", Album: "Kind of Blue", Genre: "jazz", Confidence: 0.93, Year: 1959, Reason: "Cornerstone modal jazz with universal appeal"},
		{Artist: "Radiohead", Album: "In Rainbows", Genre: "alternative rock", Confidence: 0.91, Year: 2007, Reason: "Warm, rhythmic counterpart to their electronic period"},
		{Artist: "Nina Simone", Album: "I Put a Spell on You", Genre: "soul", Confidence: 0.89, Year: 1965, Reason: "Defining vocal jazz-soul crossover"},
		{Artist: "Boards of Canada", Album: "Music Has the Right to Children", Genre: "electronic", Confidence: 0.87, Year: 1998, Reason: "Foundational downtempo textures"},
		{Artist: "Fela Kuti", Album: "Expensive Shit", Genre: "afrobeat", Confidence: 0.85, Year: 1975, Reason: "Essential afrobeat groove and protest"},
		{Artist: "Joni Mitchell", Album: "Blue", Genre: "folk", Confidence: 0.84, Year: 1971, Reason: "Confessional songwriting landmark"},
		{Artist: "Kraftwerk", Album: "Trans-Europe Express", Genre: "electronic", Confidence: 0.82, Year: 1977, Reason: "Blueprint for synth-driven music"},
		{Artist: "Alice Coltrane", Album: "Journey in Satchidananda", Genre: "spiritual jazz", Confidence: 0.78, Year: 1971, Reason: "Harp-led spiritual jazz deep cut"},
		{Artist: "Slowdive", Album: "Souvlaki", Genre: "shoegaze", Confidence: 0.74, Year: 1993, Reason: "Genre-defining shoegaze atmosphere"},
		{Artist: "Arthur Verocai", Album: "Arthur Verocai", Genre: "mpb", Confidence: 0.66, Year: 1972, Reason: "Cult Brazilian orchestral funk"},
		{Artist: "Duster", Album: "Stratosphere", Genre: "slowcore", Confidence: 0.61, Year: 1998, Reason: "Low-fidelity slowcore touchstone"},
		{Artist: "Hiroshi Yoshimura", Album: "Music for Nine Post Cards", Genre: "ambient", Confidence: 0.58, Year: 1982, Reason: "Japanese environmental ambient classic"},
	}
}

// buildSettings composes the engine's per-cycle settings from the validated
// configuration sections. Enum strings are pre-validated by config, so parse
// failures here mean the validator and the enum tables have drifted.
func buildSettings(cfg *config.Config) (models.Settings, error) {
	prov, err := models.ParseProvider(cfg.Provider.Name)
	if err != nil {
		return models.Settings{}, fmt.Errorf("provider name: %w", err)
	}
	mode, err := models.ParseRecommendMode(cfg.Recommend.Mode)
	if err != nil {
		return models.Settings{}, fmt.Errorf("recommend mode: %w", err)
	}
	discovery, err := models.ParseDiscoveryMode(cfg.Recommend.Discovery)
	if err != nil {
		return models.Settings{}, fmt.Errorf("discovery mode: %w", err)
	}
	sampling, err := models.ParseSamplingStrategy(cfg.Recommend.Sampling)
	if err != nil {
		return models.Settings{}, fmt.Errorf("sampling strategy: %w", err)
	}

	return models.Settings{
		Provider:            prov,
		Model:               cfg.Provider.Model,
		BaseURL:             cfg.Provider.BaseURL,
		APIKey:              cfg.Provider.APIKey,
		MaxRecommendations:  cfg.Recommend.MaxRecommendations,
		Mode:                mode,
		Discovery:           discovery,
		Sampling:            sampling,
		StyleFilters:        cfg.Recommend.StyleFilters,
		MinConfidence:       cfg.Gate.MinConfidence,
		RequireMBIDs:        cfg.Gate.RequireMBIDs,
		QueueBorderline:     cfg.Review.Enabled,
		ApproveKeys:         cfg.Review.ApproveKeys,
		Iterative:           cfg.Recommend.Iterative,
		TokenBudgetOverride: cfg.Provider.TokenBudgetOverride,
		Timeout:             cfg.Provider.Timeout,
		MaxRetries:          cfg.Provider.MaxRetries,
		RetryBaseDelay:      cfg.Provider.RetryBaseDelay,
	}, nil
}
