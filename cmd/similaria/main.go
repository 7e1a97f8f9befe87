// Similaria - Catalog Similar-Items Recommendation Service
// Copyright 2026 Hondana Dev
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hondana-dev/similaria

// Package main is the entry point for the Similaria server.
//
// Similaria recommends catalog items similar to a seed item by scoring
// shared metadata signals: subjects, creators, classification numbers,
// call-number shelves, and domain buckets derived from classification
// rules.
//
// Startup order:
//
//  1. Configuration: koanf layers defaults, an optional config.yaml,
//     and SIMILARIA_* environment variables.
//  2. Logging: zerolog, JSON or console per config.
//  3. Catalog client: HTTP client for the catalog API with a circuit
//     breaker.
//  4. Engine and HTTP API: chi router over the recommendation engine.
//  5. Supervisor: the HTTP server runs under a suture tree and restarts
//     with backoff on failure.
//
// The server shuts down gracefully on SIGINT and SIGTERM, draining
// in-flight requests within the configured timeout.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hondana-dev/similaria/internal/api"
	"github.com/hondana-dev/similaria/internal/catalog"
	"github.com/hondana-dev/similaria/internal/config"
	"github.com/hondana-dev/similaria/internal/logging"
	"github.com/hondana-dev/similaria/internal/similar"
	"github.com/hondana-dev/similaria/internal/supervisor"
)

func main() {
	loaded, err := config.Load()
	if err != nil {
		// Config is not available yet, use the default logger.
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	cfg := loaded.Config

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("catalog_url", cfg.Catalog.BaseURL).
		Str("environment", cfg.Server.Environment).
		Msg("Configuration loaded")

	store := catalog.NewClient(catalog.ClientConfig{
		BaseURL:       cfg.Catalog.BaseURL,
		KeyIdentity:   cfg.Catalog.KeyIdentity,
		KeyCredential: cfg.Catalog.KeyCredential,
		Timeout:       cfg.Catalog.Timeout,
	})

	engine := similar.NewEngine(store, loaded.SimilarSettings())

	handler := api.NewHandler(engine, store)
	middleware := api.NewMiddleware(&api.MiddlewareConfig{
		CORSAllowedOrigins: cfg.Security.CORSOrigins,
		RateLimitRequests:  cfg.Security.RateLimitPerMinute,
		RateLimitWindow:    time.Minute,
	})
	router := api.NewRouter(handler, middleware)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       120 * time.Second,
	}

	tree := supervisor.NewTree(logging.WithComponent("supervisor"), supervisor.DefaultConfig())
	tree.Add(supervisor.NewHTTPService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Similaria stopped gracefully")
}
