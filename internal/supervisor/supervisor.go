// Similaria - Catalog Similar-Items Recommendation Service
// Copyright 2026 Hondana Dev
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hondana-dev/similaria

// Package supervisor runs the service processes under a suture/v4
// supervision tree so a crashed component is restarted with backoff
// instead of taking the whole process down.
package supervisor

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"
)

// Config holds the restart parameters of the tree.
type Config struct {
	// FailureThreshold is the failure score that triggers backoff.
	FailureThreshold float64

	// FailureDecay is the half-life of the failure score in seconds.
	FailureDecay float64

	// FailureBackoff is how long the supervisor pauses once the
	// threshold is exceeded.
	FailureBackoff time.Duration

	// ShutdownTimeout bounds graceful shutdown of each service.
	ShutdownTimeout time.Duration
}

// DefaultConfig mirrors suture's own defaults.
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5.0,
		FailureDecay:     30.0,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

// Tree wraps the root supervisor.
type Tree struct {
	root   *suture.Supervisor
	config Config
}

// NewTree creates a supervision tree that reports events through the
// given zerolog logger.
func NewTree(logger zerolog.Logger, config Config) *Tree {
	if config.FailureThreshold == 0 {
		config.FailureThreshold = 5.0
	}
	if config.FailureDecay == 0 {
		config.FailureDecay = 30.0
	}
	if config.FailureBackoff == 0 {
		config.FailureBackoff = 15 * time.Second
	}
	if config.ShutdownTimeout == 0 {
		config.ShutdownTimeout = 10 * time.Second
	}

	root := suture.New("similaria", suture.Spec{
		EventHook:        zerologEventHook(logger),
		FailureThreshold: config.FailureThreshold,
		FailureDecay:     config.FailureDecay,
		FailureBackoff:   config.FailureBackoff,
		Timeout:          config.ShutdownTimeout,
	})

	return &Tree{
		root:   root,
		config: config,
	}
}

// Add registers a service with the tree.
func (t *Tree) Add(svc suture.Service) suture.ServiceToken {
	return t.root.Add(svc)
}

// Remove stops and removes a service by its token.
func (t *Tree) Remove(token suture.ServiceToken) error {
	return t.root.Remove(token)
}

// Serve runs the tree until the context is canceled.
func (t *Tree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}

// ServeBackground runs the tree in a goroutine; the returned channel
// yields the terminal error when the tree stops.
func (t *Tree) ServeBackground(ctx context.Context) <-chan error {
	return t.root.ServeBackground(ctx)
}

// UnstoppedServiceReport lists services that ignored the shutdown
// timeout, for post-shutdown diagnostics.
func (t *Tree) UnstoppedServiceReport() ([]suture.UnstoppedService, error) {
	return t.root.UnstoppedServiceReport()
}

// zerologEventHook translates suture lifecycle events into structured
// log lines. Backoff and failure events log at warn, the rest at debug.
func zerologEventHook(logger zerolog.Logger) suture.EventHook {
	return func(ev suture.Event) {
		switch e := ev.(type) {
		case suture.EventStopTimeout:
			logger.Warn().
				Str("supervisor", e.SupervisorName).
				Str("service", e.ServiceName).
				Msg("service failed to stop within timeout")
		case suture.EventServicePanic:
			logger.Error().
				Str("supervisor", e.SupervisorName).
				Str("service", e.ServiceName).
				Str("panic", e.PanicMsg).
				Bool("restarting", e.Restarting).
				Msg("service panicked")
		case suture.EventServiceTerminate:
			logger.Warn().
				Str("supervisor", e.SupervisorName).
				Str("service", e.ServiceName).
				Interface("error", e.Err).
				Bool("restarting", e.Restarting).
				Msg("service terminated")
		case suture.EventBackoff:
			logger.Warn().
				Str("supervisor", e.SupervisorName).
				Msg("supervisor entering backoff")
		case suture.EventResume:
			logger.Info().
				Str("supervisor", e.SupervisorName).
				Msg("supervisor resuming")
		default:
			logger.Debug().
				Str("event", ev.String()).
				Msg("supervisor event")
		}
	}
}
