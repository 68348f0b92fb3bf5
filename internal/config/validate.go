// Melodex - AI-Powered Music Discovery for Media Library Managers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

package config

import (
	"fmt"
	"time"

	"github.com/tomtom215/melodex/internal/validation"
)

// localProviders run on the user's own hardware and are addressed by URL
// rather than API key.
var localProviders = map[string]bool{
	"ollama":   true,
	"lmstudio": true,
}

// Validate checks that the merged configuration is complete and coherent.
// Struct-tag constraints (ranges, enums, required fields) run first; the
// remaining checks are cross-field rules tags cannot express.
func (c *Config) Validate() error {
	if verr := validation.ValidateStruct(c); verr != nil {
		return fmt.Errorf("invalid configuration: %s", verr.Error())
	}

	if err := c.validateProvider(); err != nil {
		return err
	}

	return c.validateDurations()
}

// validateProvider enforces the credential rules the oneof tag cannot:
// local providers need a reachable URL, cloud providers need an API key.
func (c *Config) validateProvider() error {
	if localProviders[c.Provider.Name] {
		if c.Provider.BaseURL == "" {
			return fmt.Errorf("MELODEX_BASE_URL is required when MELODEX_PROVIDER=%s", c.Provider.Name)
		}
		return nil
	}

	if c.Provider.APIKey == "" {
		return fmt.Errorf("MELODEX_API_KEY is required when MELODEX_PROVIDER=%s", c.Provider.Name)
	}
	return nil
}

// validateDurations rejects zero or negative intervals that would stall
// background maintenance or disable request timeouts.
func (c *Config) validateDurations() error {
	checks := []struct {
		name  string
		value time.Duration
	}{
		{"MELODEX_SERVER_TIMEOUT", c.Server.Timeout},
		{"MELODEX_PROVIDER_TIMEOUT", c.Provider.Timeout},
		{"MELODEX_DB_GC_INTERVAL", c.Database.GCInterval},
		{"MELODEX_CACHE_TTL", c.Cache.TTL},
		{"MELODEX_CACHE_SWEEP", c.Cache.SweepInterval},
		{"MELODEX_HISTORY_PRUNE", c.History.PruneInterval},
		{"MELODEX_PROFILE_TTL", c.Library.ProfileTTL},
		{"MELODEX_PROFILE_REFRESH", c.Library.RefreshInterval},
		{"MELODEX_RATE_LIMIT_WINDOW", c.API.RateLimitWindow},
	}

	for _, check := range checks {
		if check.value <= 0 {
			return fmt.Errorf("%s must be a positive duration, got %s", check.name, check.value)
		}
	}

	if c.Provider.RetryBaseDelay < 0 {
		return fmt.Errorf("MELODEX_RETRY_BASE_DELAY must not be negative, got %s", c.Provider.RetryBaseDelay)
	}

	return nil
}
