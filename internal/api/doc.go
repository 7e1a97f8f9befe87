// Similaria - Catalog Similar-Items Recommendation Service
// Copyright 2026 Hondana Dev
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hondana-dev/similaria

// Package api exposes the recommendation engine over HTTP using
// go-chi/chi.
//
// Routes:
//
//	GET /api/v1/similar/{itemID}          similar items for a seed item
//	GET /api/v1/similar/{itemID}/buckets  domain buckets of an item
//	GET /api/v1/similar/{itemID}/debug    resolved seed signals
//	GET /api/v1/similar/config            effective engine configuration
//	GET /api/v1/health                    health report
//	GET /api/v1/health/live               liveness probe
//	GET /api/v1/health/ready              readiness probe (catalog reachable)
//	GET /metrics                          Prometheus metrics
//
// All API responses share the APIResponse envelope with a status,
// payload, metadata block, and optional error. Responses are encoded
// with goccy/go-json and carry an FNV-1a ETag.
package api
