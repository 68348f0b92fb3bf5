// Melodex - AI-Powered Music Discovery for Media Library Managers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

package config

import (
	"time"
)

// Config holds all application configuration loaded from defaults, an optional
// YAML config file, and environment variable overrides.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in sensible defaults for all settings
//  2. Config File: Optional YAML config file (config.yaml) for persistent settings
//  3. Environment Variables: Override any setting via MELODEX_* variables
//
// Configuration Categories:
//
//  1. Service:
//     - Server: HTTP server configuration (port, host, timeout)
//     - Logging: Log levels and output formats
//     - Database: BadgerDB storage for history and review queue
//
//  2. Recommendation Engine:
//     - Provider: Active AI backend (local or cloud), model, credentials
//     - Recommend: Target counts, modes, sampling depth, style filters
//     - Gate: Confidence threshold and external-ID policy
//     - Review: Borderline-item queueing and pre-approved keys
//
//  3. Maintenance:
//     - Cache: Recommendation cache TTL and sweeping
//     - History: Per-day recommendation history retention
//     - Library: Library profile refresh cadence
//
// Example - Load configuration:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal("Failed to load config:", err)
//	}
//	// cfg.Provider.Name, cfg.Database.Path, etc. are now populated
//
// Thread Safety:
// Config is immutable after Load() and safe for concurrent read access from
// multiple goroutines.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	Database  DatabaseConfig  `koanf:"database"`
	Provider  ProviderConfig  `koanf:"provider"`
	Recommend RecommendConfig `koanf:"recommend"`
	Gate      GateConfig      `koanf:"gate"`
	Review    ReviewConfig    `koanf:"review"`
	Cache     CacheConfig     `koanf:"cache"`
	History   HistoryConfig   `koanf:"history"`
	Library   LibraryConfig   `koanf:"library"`
	API       APIConfig       `koanf:"api"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port        int           `koanf:"port" validate:"gte=1,lte=65535"`
	Host        string        `koanf:"host" validate:"required"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment" validate:"omitempty,oneof=development staging production"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level" validate:"omitempty,oneof=trace debug info warn error"`

	// Format is the output format: json or console.
	// JSON is recommended for production (structured, machine-parseable).
	// Console is human-readable for development.
	// Default: json
	Format string `koanf:"format" validate:"omitempty,oneof=json console"`

	// Caller includes caller file and line number in logs.
	// Adds slight performance overhead.
	// Default: false
	Caller bool `koanf:"caller"`
}

// DatabaseConfig holds BadgerDB storage settings. A single Badger instance
// backs both the recommendation history store and the review queue.
type DatabaseConfig struct {
	// Path is the directory for BadgerDB files.
	// Default: /data/melodex
	Path string `koanf:"path"`

	// InMemory runs Badger without disk persistence. Intended for tests
	// and ephemeral deployments; history and review state are lost on
	// restart.
	InMemory bool `koanf:"in_memory"`

	// GCInterval is how often to run Badger value-log garbage collection.
	// Default: 10m
	GCInterval time.Duration `koanf:"gc_interval"`

	// GCDiscardRatio is the minimum fraction of a value-log file that must
	// be garbage before it is rewritten. Range (0, 1).
	// Default: 0.5
	GCDiscardRatio float64 `koanf:"gc_discard_ratio" validate:"gt=0,lt=1"`
}

// ProviderConfig selects the active AI backend and its connection settings.
//
// Environment Variables:
//   - MELODEX_PROVIDER: Provider name (default: ollama)
//   - MELODEX_MODEL: Model identifier for the provider
//   - MELODEX_BASE_URL: Base URL for local providers (Ollama, LM Studio)
//   - MELODEX_API_KEY: API key for cloud providers
type ProviderConfig struct {
	// Name is the provider to query. Local providers (ollama, lmstudio)
	// require BaseURL; cloud providers require APIKey.
	Name string `koanf:"name" validate:"required,oneof=ollama lmstudio openai anthropic gemini groq deepseek perplexity openrouter"`

	// Model is the model identifier passed to the provider.
	// Default: qwen3:8b (the Ollama default)
	Model string `koanf:"model" validate:"required"`

	// BaseURL is the endpoint for local providers.
	// Default: http://localhost:11434
	BaseURL string `koanf:"base_url" validate:"omitempty,url"`

	// APIKey authenticates against cloud providers. Never logged.
	APIKey string `koanf:"api_key"`

	// Timeout bounds a single provider request. Local model generation can
	// be slow, so this is deliberately generous.
	// Default: 2m
	Timeout time.Duration `koanf:"timeout"`

	// MaxRetries is the number of retry attempts after a failed provider
	// call, on top of the initial attempt.
	// Default: 3
	MaxRetries int `koanf:"max_retries" validate:"gte=0,lte=10"`

	// RetryBaseDelay is the first retry backoff; subsequent retries double
	// it with jitter.
	// Default: 1s
	RetryBaseDelay time.Duration `koanf:"retry_base_delay"`

	// TokenBudgetOverride replaces the computed per-model token budget when
	// greater than zero. Zero means use the computed budget.
	TokenBudgetOverride int `koanf:"token_budget_override" validate:"gte=0"`
}

// RecommendConfig shapes what the engine asks the provider for.
type RecommendConfig struct {
	// MaxRecommendations is the target number of items per fetch cycle.
	// Default: 20
	MaxRecommendations int `koanf:"max_recommendations" validate:"gte=1,lte=100"`

	// Mode selects what gets recommended: full albums or artists only.
	// Default: albums
	Mode string `koanf:"mode" validate:"oneof=albums artists"`

	// Discovery tunes how adventurous recommendations should be:
	// similar (stay close to the library), adjacent (related genres),
	// exploratory (new territory).
	// Default: adjacent
	Discovery string `koanf:"discovery" validate:"oneof=similar adjacent exploratory"`

	// Sampling controls how much library context is packed into the
	// prompt: minimal, balanced, or comprehensive.
	// Default: balanced
	Sampling string `koanf:"sampling" validate:"oneof=minimal balanced comprehensive"`

	// StyleFilters restricts recommendations to the named styles or genres.
	// Empty means no restriction.
	StyleFilters []string `koanf:"style_filters"`

	// Iterative enables top-up passes when a fetch cycle lands short of
	// MaxRecommendations.
	// Default: true
	Iterative bool `koanf:"iterative"`
}

// GateConfig holds safety-gate thresholds applied before items reach the
// import list.
type GateConfig struct {
	// MinConfidence is the threshold below which items are queued for
	// review instead of passing through. Range [0, 1].
	// Default: 0.7
	MinConfidence float64 `koanf:"min_confidence" validate:"gte=0,lte=1"`

	// RequireMBIDs queues items that lack MusicBrainz IDs after
	// enrichment.
	// Default: false
	RequireMBIDs bool `koanf:"require_mbids"`
}

// ReviewConfig holds review-queue behaviour.
type ReviewConfig struct {
	// Enabled queues borderline items for manual review. When false,
	// gated items are dropped instead of queued.
	// Default: true
	Enabled bool `koanf:"enabled"`

	// ApproveKeys pre-approves specific "artist|album" keys, merging them
	// into the pass-through set on every gate invocation. Keys are
	// consumed once and cleared after use.
	ApproveKeys []string `koanf:"approve_keys"`
}

// CacheConfig holds recommendation-cache settings.
type CacheConfig struct {
	// TTL is how long a cached recommendation list stays valid.
	// Default: 1h
	TTL time.Duration `koanf:"ttl"`

	// MaxEntries bounds the cache size; the oldest entry is evicted when
	// full.
	// Default: 100
	MaxEntries int `koanf:"max_entries" validate:"gte=1"`

	// SweepInterval is how often expired entries are purged in the
	// background.
	// Default: 5m
	SweepInterval time.Duration `koanf:"sweep_interval"`
}

// HistoryConfig holds recommendation-history retention settings.
type HistoryConfig struct {
	// RetentionDays is how many day-buckets of previously-recommended keys
	// to keep before pruning.
	// Default: 7
	RetentionDays int `koanf:"retention_days" validate:"gte=1,lte=90"`

	// PruneInterval is how often the background pruner runs.
	// Default: 1h
	PruneInterval time.Duration `koanf:"prune_interval"`
}

// LibraryConfig holds library-profile refresh settings.
type LibraryConfig struct {
	// SnapshotPath is a JSON export of the host library, shaped as
	// {"artists": [...], "albums": [...]}. The file is re-read on every
	// profile refresh. Empty means start with an empty library.
	SnapshotPath string `koanf:"snapshot_path"`

	// ProfileTTL is how long a computed library profile stays valid before
	// a fetch cycle recomputes it.
	// Default: 10m
	ProfileTTL time.Duration `koanf:"profile_ttl"`

	// RefreshInterval is how often the background refresher rebuilds the
	// profile so fetch cycles rarely pay the rebuild cost inline.
	// Default: 10m
	RefreshInterval time.Duration `koanf:"refresh_interval"`
}

// APIConfig holds HTTP API middleware settings.
type APIConfig struct {
	// RateLimitReqs is the number of requests allowed per client IP per
	// RateLimitWindow.
	// Default: 100
	RateLimitReqs int `koanf:"rate_limit_reqs" validate:"gte=1"`

	// RateLimitWindow is the rate-limit accounting window.
	// Default: 1m
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`

	// RateLimitDisabled turns off API rate limiting entirely.
	RateLimitDisabled bool `koanf:"rate_limit_disabled"`

	// CORSOrigins lists browser origins allowed to call the API. The
	// review UI is typically served from the host manager's origin.
	CORSOrigins []string `koanf:"cors_origins"`
}

// defaultConfig returns the built-in defaults. These are layered under the
// optional config file and environment overrides.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        8687,
			Host:        "0.0.0.0",
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Database: DatabaseConfig{
			Path:           "/data/melodex",
			InMemory:       false,
			GCInterval:     10 * time.Minute,
			GCDiscardRatio: 0.5,
		},
		Provider: ProviderConfig{
			Name:           "ollama",
			Model:          "qwen3:8b",
			BaseURL:        "http://localhost:11434",
			APIKey:         "",
			Timeout:        2 * time.Minute,
			MaxRetries:     3,
			RetryBaseDelay: time.Second,
		},
		Recommend: RecommendConfig{
			MaxRecommendations: 20,
			Mode:               "albums",
			Discovery:          "adjacent",
			Sampling:           "balanced",
			StyleFilters:       nil,
			Iterative:          true,
		},
		Gate: GateConfig{
			MinConfidence: 0.7,
			RequireMBIDs:  false,
		},
		Review: ReviewConfig{
			Enabled:     true,
			ApproveKeys: nil,
		},
		Cache: CacheConfig{
			TTL:           time.Hour,
			MaxEntries:    100,
			SweepInterval: 5 * time.Minute,
		},
		History: HistoryConfig{
			RetentionDays: 7,
			PruneInterval: time.Hour,
		},
		Library: LibraryConfig{
			SnapshotPath:    "",
			ProfileTTL:      10 * time.Minute,
			RefreshInterval: 10 * time.Minute,
		},
		API: APIConfig{
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			CORSOrigins:     nil,
		},
	}
}
