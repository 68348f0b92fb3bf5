// Melodex - AI-Powered Music Discovery for Media Library Managers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

package main

import (
	"fmt"
	"net/http"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"github.com/tomtom215/melodex/internal/api"
	"github.com/tomtom215/melodex/internal/config"
	"github.com/tomtom215/melodex/internal/models"
)

// initAPI builds the HTTP surface: handler, middleware stack, and router.
//
//nolint:gocritic // hugeParam: logger passed by value for zerolog chaining
func initAPI(cfg *config.Config, eng *engineComponents, db *badger.DB, settings models.Settings, logger zerolog.Logger) (http.Handler, error) {
	handler, err := api.NewHandler(api.HandlerParams{
		Engine:   eng.Engine,
		Queue:    eng.Queue,
		History:  eng.History,
		DB:       db,
		Settings: settings,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("api handler: %w", err)
	}

	mwConfig := api.DefaultMiddlewareConfig()
	mwConfig.CORSAllowedOrigins = cfg.API.CORSOrigins
	mwConfig.RateLimitRequests = cfg.API.RateLimitReqs
	mwConfig.RateLimitWindow = cfg.API.RateLimitWindow
	mwConfig.RateLimitDisabled = cfg.API.RateLimitDisabled

	middleware := api.NewMiddleware(mwConfig, logger)

	return api.NewRouter(handler, middleware).Routes(), nil
}
