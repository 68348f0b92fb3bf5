// Melodex - AI-Powered Music Discovery for Media Library Managers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/melodex/internal/history"
	"github.com/tomtom215/melodex/internal/models"
	"github.com/tomtom215/melodex/internal/provider"
	"github.com/tomtom215/melodex/internal/review"
)

// fetchTimeout bounds one fetch cycle triggered over HTTP. Cycles can spend
// minutes in provider retries, so this sits well above the per-attempt
// provider timeout.
const fetchTimeout = 5 * time.Minute

// maxBodyBytes caps request bodies. The largest legitimate payload is a
// batch of review keys, which stays far below this.
const maxBodyBytes = 1 << 20

// Fetcher runs one recommendation cycle. Satisfied by recommend.Engine.
type Fetcher interface {
	Fetch(ctx context.Context, settings models.Settings) []models.ImportItem
}

// HandlerParams collects the handler's collaborators. Every field is
// required except Settings, which falls back to its zero value.
type HandlerParams struct {
	Engine   Fetcher
	Queue    *review.Queue
	History  *history.Store
	DB       *badger.DB
	Settings models.Settings
}

// Handler serves the /api/v1 endpoints.
type Handler struct {
	engine   Fetcher
	queue    *review.Queue
	history  *history.Store
	db       *badger.DB
	settings models.Settings
	logger   zerolog.Logger
	started  time.Time
}

// NewHandler wires the API handler.
//
//nolint:gocritic // hugeParam: logger passed by value for zerolog chaining
func NewHandler(p HandlerParams, logger zerolog.Logger) (*Handler, error) {
	if p.Engine == nil {
		return nil, fmt.Errorf("api: nil engine")
	}
	if p.Queue == nil {
		return nil, fmt.Errorf("api: nil review queue")
	}
	if p.History == nil {
		return nil, fmt.Errorf("api: nil history store")
	}
	if p.DB == nil {
		return nil, fmt.Errorf("api: nil database")
	}
	return &Handler{
		engine:   p.Engine,
		queue:    p.Queue,
		history:  p.History,
		db:       p.DB,
		settings: p.Settings,
		logger:   logger.With().Str("component", "api").Logger(),
		started:  time.Now(),
	}, nil
}

// fetchRequest carries optional per-request overrides of the configured
// settings. Absent fields keep the configured value.
type fetchRequest struct {
	MaxRecommendations *int     `json:"max_recommendations,omitempty"`
	Mode               *string  `json:"mode,omitempty"`
	Discovery          *string  `json:"discovery,omitempty"`
	Sampling           *string  `json:"sampling,omitempty"`
	Provider           *string  `json:"provider,omitempty"`
	Model              *string  `json:"model,omitempty"`
	StyleFilters       []string `json:"style_filters,omitempty"`
	MinConfidence      *float64 `json:"min_confidence,omitempty"`
	RequireMBIDs       *bool    `json:"require_mbids,omitempty"`
	Iterative          *bool    `json:"iterative,omitempty"`
}

// fetchResponse is the payload of a completed fetch cycle.
type fetchResponse struct {
	Items []models.ImportItem `json:"items"`
	Count int                 `json:"count"`
}

// FetchRecommendations runs one recommendation cycle and returns the
// resulting import list. Once the request itself is valid the response is
// always 200 with a list; cycle failures degrade to an empty list rather
// than an error status, matching the engine's contract.
func (h *Handler) FetchRecommendations(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	req, err := decodeFetchRequest(w, r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	settings, problems := h.applyOverrides(req)
	if len(problems) > 0 {
		rw.ValidationError("Invalid setting overrides", problems)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), fetchTimeout)
	defer cancel()

	items := h.engine.Fetch(ctx, settings)

	rw.Success(fetchResponse{
		Items: items,
		Count: len(items),
	})
}

// decodeFetchRequest parses the optional override body. An empty body is
// valid and means "use configured settings".
func decodeFetchRequest(w http.ResponseWriter, r *http.Request) (*fetchRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req fetchRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return &req, nil
		}
		return nil, fmt.Errorf("invalid request body: %v", err)
	}
	return &req, nil
}

// applyOverrides layers request overrides onto the configured settings,
// collecting a problem string per invalid field.
func (h *Handler) applyOverrides(req *fetchRequest) (models.Settings, []string) {
	settings := h.settings
	var problems []string

	if req.Provider != nil {
		p, err := models.ParseProvider(*req.Provider)
		if err != nil {
			problems = append(problems, err.Error())
		} else {
			settings.Provider = p
			// A provider switch invalidates the configured model unless
			// the request names one too.
			if req.Model == nil {
				settings.Model = ""
			}
		}
	}
	if req.Model != nil {
		settings.Model = *req.Model
	}
	if req.Mode != nil {
		m, err := models.ParseRecommendMode(*req.Mode)
		if err != nil {
			problems = append(problems, err.Error())
		} else {
			settings.Mode = m
		}
	}
	if req.Discovery != nil {
		d, err := models.ParseDiscoveryMode(*req.Discovery)
		if err != nil {
			problems = append(problems, err.Error())
		} else {
			settings.Discovery = d
		}
	}
	if req.Sampling != nil {
		s, err := models.ParseSamplingStrategy(*req.Sampling)
		if err != nil {
			problems = append(problems, err.Error())
		} else {
			settings.Sampling = s
		}
	}
	if req.MaxRecommendations != nil {
		n := *req.MaxRecommendations
		if n < 1 || n > 100 {
			problems = append(problems, fmt.Sprintf("max_recommendations must be between 1 and 100, got %d", n))
		} else {
			settings.MaxRecommendations = n
		}
	}
	if req.MinConfidence != nil {
		c := *req.MinConfidence
		if c < 0 || c > 1 {
			problems = append(problems, fmt.Sprintf("min_confidence must be between 0 and 1, got %g", c))
		} else {
			settings.MinConfidence = c
		}
	}
	if req.StyleFilters != nil {
		settings.StyleFilters = req.StyleFilters
	}
	if req.RequireMBIDs != nil {
		settings.RequireMBIDs = *req.RequireMBIDs
	}
	if req.Iterative != nil {
		settings.Iterative = *req.Iterative
	}

	return settings, problems
}

// providerInfo describes one supported provider in the catalog response.
type providerInfo struct {
	Name         string                 `json:"name"`
	Local        bool                   `json:"local"`
	DefaultModel string                 `json:"default_model"`
	Models       []provider.ModelOption `json:"models,omitempty"`
}

// Providers returns the static catalog of supported providers.
func (h *Handler) Providers(w http.ResponseWriter, r *http.Request) {
	infos := make([]providerInfo, 0, len(models.Providers))
	for _, p := range models.Providers {
		infos = append(infos, providerInfo{
			Name:         p.String(),
			Local:        p.IsLocal(),
			DefaultModel: provider.DefaultModel(p),
			Models:       provider.Catalog(p),
		})
	}

	NewResponseWriter(w, r).Success(map[string]interface{}{
		"providers": infos,
		"count":     len(infos),
	})
}

// ProviderModels returns the model catalog for a single provider.
func (h *Handler) ProviderModels(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	name := chi.URLParam(r, "provider")
	p, err := models.ParseProvider(name)
	if err != nil {
		rw.NotFound(fmt.Sprintf("Unknown provider: %s", name))
		return
	}

	rw.Success(map[string]interface{}{
		"provider":      p.String(),
		"local":         p.IsLocal(),
		"default_model": provider.DefaultModel(p),
		"models":        provider.Catalog(p),
	})
}

// defaultHistoryLimit bounds the history listing when no limit is given.
const defaultHistoryLimit = 50

// maxHistoryLimit is the largest history page a single request may ask for.
const maxHistoryLimit = 500

// History returns the most recent suggestion and decision records.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			rw.BadRequest(fmt.Sprintf("Invalid limit: %s", raw))
			return
		}
		if n > maxHistoryLimit {
			n = maxHistoryLimit
		}
		limit = n
	}

	records, err := h.history.Recent(r.Context(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("History listing failed")
		rw.InternalError("Failed to read history")
		return
	}

	rw.Success(map[string]interface{}{
		"records": records,
		"count":   len(records),
	})
}
