// Melodex - AI-Powered Music Discovery for Media Library Managers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router assembles the HTTP surface from the handler and middleware
// factories.
type Router struct {
	handler    *Handler
	middleware *Middleware
}

// NewRouter creates a router around the given handler and middleware.
func NewRouter(handler *Handler, middleware *Middleware) *Router {
	return &Router{
		handler:    handler,
		middleware: middleware,
	}
}

// Routes builds the chi mux. Request ID, real IP, panic recovery, request
// logging, and CORS are global; rate limits and security headers are
// applied per route group.
func (router *Router) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.middleware.RequestLogging())
	r.Use(router.middleware.CORS()) // global so OPTIONS preflight works everywhere

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.middleware.RateLimitHealth())
		r.Use(SecurityHeaders())
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.middleware.RateLimit())
		r.Use(SecurityHeaders())

		// The fetch endpoint gets a second, stricter limiter on top of
		// the group limit.
		r.Group(func(r chi.Router) {
			r.Use(router.middleware.RateLimitFetch())
			r.Post("/recommendations/fetch", router.handler.FetchRecommendations)
		})

		r.Get("/providers", router.handler.Providers)
		r.Get("/providers/{provider}/models", router.handler.ProviderModels)

		r.Route("/review", func(r chi.Router) {
			r.Get("/", router.handler.ReviewList)
			r.Get("/counts", router.handler.ReviewCounts)
			r.Post("/accept", router.handler.ReviewAccept)
			r.Post("/reject", router.handler.ReviewReject)
			r.Post("/never", router.handler.ReviewNever)
			r.Post("/{id}/status", router.handler.ReviewSetStatus)
		})

		r.Get("/history", router.handler.History)
		r.Get("/metrics/snapshot", router.handler.MetricsSnapshot)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
