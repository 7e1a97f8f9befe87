// Similaria - Catalog Similar-Items Recommendation Service
// Copyright 2026 Hondana Dev
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hondana-dev/similaria

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router wires handlers and middleware into a chi mux.
type Router struct {
	handler    *Handler
	middleware *Middleware
}

// NewRouter creates a router around the given handler and middleware.
func NewRouter(handler *Handler, middleware *Middleware) *Router {
	if middleware == nil {
		middleware = NewMiddleware(nil)
	}
	return &Router{
		handler:    handler,
		middleware: middleware,
	}
}

// Setup builds the HTTP handler tree.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to all routes in order. CORS is global
	// so OPTIONS preflight requests are answered before route matching.
	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.middleware.CORS())

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.middleware.RateLimitHealth())
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	r.Route("/api/v1/similar", func(r chi.Router) {
		r.Use(router.middleware.RateLimit())
		r.Use(PrometheusMetrics)

		r.Get("/config", router.handler.Config)
		r.Get("/{itemID}", router.handler.Similar)
		r.Get("/{itemID}/buckets", router.handler.Buckets)
		r.Get("/{itemID}/debug", router.handler.SeedDebug)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
