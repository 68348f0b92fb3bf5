// Melodex - AI-Powered Music Discovery for Media Library Managers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar overrides the config file location when set.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultConfigPaths are checked in order when ConfigPathEnvVar is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config/config.yaml",
	"/etc/melodex/config.yaml",
}

// sliceConfigPaths lists config paths whose environment-variable form is a
// comma-separated string that must be split into a slice before unmarshal.
var sliceConfigPaths = []string{
	"recommend.style_filters",
	"review.approve_keys",
	"api.cors_origins",
}

// Load builds the application configuration from three layers: built-in
// defaults, an optional YAML config file, and MELODEX_* environment variable
// overrides. The merged result is validated before being returned.
func Load() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: struct defaults.
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load default config: %w", err)
	}

	// Layer 2: optional YAML config file.
	if configFile := findConfigFile(); configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configFile, err)
		}
	}

	// Layer 3: environment variable overrides.
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	processSliceFields(k)

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// findConfigFile returns the first config file that exists, or "" when none
// does. A path set via ConfigPathEnvVar must exist; default paths are
// optional.
func findConfigFile() string {
	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		return path
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// envMappings translates MELODEX_* environment variables to koanf paths.
// Variables absent from this table are ignored so unrelated environment
// noise cannot leak into the configuration tree.
var envMappings = map[string]string{
	"MELODEX_HOST":               "server.host",
	"MELODEX_PORT":               "server.port",
	"MELODEX_SERVER_TIMEOUT":     "server.timeout",
	"MELODEX_ENVIRONMENT":        "server.environment",
	"MELODEX_LOG_LEVEL":          "logging.level",
	"MELODEX_LOG_FORMAT":         "logging.format",
	"MELODEX_LOG_CALLER":         "logging.caller",
	"MELODEX_DATA_DIR":           "database.path",
	"MELODEX_DB_IN_MEMORY":       "database.in_memory",
	"MELODEX_DB_GC_INTERVAL":     "database.gc_interval",
	"MELODEX_DB_GC_DISCARD":      "database.gc_discard_ratio",
	"MELODEX_PROVIDER":           "provider.name",
	"MELODEX_MODEL":              "provider.model",
	"MELODEX_BASE_URL":           "provider.base_url",
	"MELODEX_API_KEY":            "provider.api_key",
	"MELODEX_PROVIDER_TIMEOUT":   "provider.timeout",
	"MELODEX_MAX_RETRIES":        "provider.max_retries",
	"MELODEX_RETRY_BASE_DELAY":   "provider.retry_base_delay",
	"MELODEX_TOKEN_BUDGET":       "provider.token_budget_override",
	"MELODEX_MAX_RECS":           "recommend.max_recommendations",
	"MELODEX_MODE":               "recommend.mode",
	"MELODEX_DISCOVERY":          "recommend.discovery",
	"MELODEX_SAMPLING":           "recommend.sampling",
	"MELODEX_STYLE_FILTERS":      "recommend.style_filters",
	"MELODEX_ITERATIVE":          "recommend.iterative",
	"MELODEX_MIN_CONFIDENCE":     "gate.min_confidence",
	"MELODEX_REQUIRE_MBIDS":      "gate.require_mbids",
	"MELODEX_REVIEW_ENABLED":     "review.enabled",
	"MELODEX_APPROVE_KEYS":       "review.approve_keys",
	"MELODEX_CACHE_TTL":          "cache.ttl",
	"MELODEX_CACHE_MAX_ENTRIES":  "cache.max_entries",
	"MELODEX_CACHE_SWEEP":        "cache.sweep_interval",
	"MELODEX_HISTORY_RETENTION":  "history.retention_days",
	"MELODEX_HISTORY_PRUNE":      "history.prune_interval",
	"MELODEX_LIBRARY_SNAPSHOT":   "library.snapshot_path",
	"MELODEX_PROFILE_TTL":        "library.profile_ttl",
	"MELODEX_PROFILE_REFRESH":    "library.refresh_interval",
	"MELODEX_RATE_LIMIT_REQS":    "api.rate_limit_reqs",
	"MELODEX_RATE_LIMIT_WINDOW":  "api.rate_limit_window",
	"MELODEX_RATE_LIMIT_DISABLE": "api.rate_limit_disabled",
	"MELODEX_CORS_ORIGINS":       "api.cors_origins",
}

// envTransformFunc maps an environment variable name to its koanf path.
// Returning "" drops the variable.
func envTransformFunc(s string) string {
	if path, ok := envMappings[s]; ok {
		return path
	}
	return ""
}

// processSliceFields splits comma-separated string values into slices for
// the paths in sliceConfigPaths. Environment variables can only carry
// strings, so MELODEX_STYLE_FILTERS="jazz, fusion" arrives as one string
// and must become []string{"jazz", "fusion"} before unmarshal.
func processSliceFields(k *koanf.Koanf) {
	for _, path := range sliceConfigPaths {
		if !k.Exists(path) {
			continue
		}

		raw, ok := k.Get(path).(string)
		if !ok {
			continue
		}

		var parts []string
		for _, p := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				parts = append(parts, trimmed)
			}
		}

		_ = k.Set(path, parts)
	}
}

// WatchConfigFile invokes onChange whenever the config file at path is
// modified on disk. Melodex does not hot-reload; callers log a notice that
// a restart is required. Returns an error if the watcher cannot be
// established.
func WatchConfigFile(path string, onChange func()) error {
	f := file.Provider(path)
	return f.Watch(func(_ interface{}, err error) {
		if err != nil {
			return
		}
		onChange()
	})
}
