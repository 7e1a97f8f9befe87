// Similaria - Catalog Similar-Items Recommendation Service
// Copyright 2026 Hondana Dev
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hondana-dev/similaria

// Package config loads the service configuration in three layers:
// struct defaults, an optional YAML file, and environment variables,
// each layer overriding the one before it.
//
// The similar section is deliberately left untyped here. The engine
// builds its own immutable weight configuration per request, with
// per-key fallback on malformed values, so config exposes that section
// as a flat key-value source instead of failing the whole load over a
// bad weight.
package config
