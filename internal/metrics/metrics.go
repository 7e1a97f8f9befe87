// Similaria - Catalog Similar-Items Recommendation Service
// Copyright 2026 Hondana Dev
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hondana-dev/similaria

// Package metrics provides Prometheus instrumentation for the
// recommendation pipeline and the catalog store client.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	// Recommendation Engine Metrics
	RecommendRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_requests_total",
			Help: "Total number of similar-items requests",
		},
		[]string{"outcome"}, // "ok", "not_found", "error"
	)

	RecommendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommend_duration_seconds",
			Help:    "End-to-end similar-items pipeline duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	RecommendCandidates = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommend_candidates",
			Help:    "Number of candidates collected before scoring",
			Buckets: []float64{0, 10, 25, 50, 100, 250, 500, 1000},
		},
	)

	RecommendResults = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommend_results",
			Help:    "Number of results returned per request",
			Buckets: []float64{0, 1, 3, 6, 12, 24, 50},
		},
	)

	// Catalog Store Metrics
	StoreRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_store_requests_total",
			Help: "Total number of catalog store calls",
		},
		[]string{"operation", "outcome"}, // operation: "get_item", "search_items", "count_items", "resolve_property"
	)

	StoreRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_store_request_duration_seconds",
			Help:    "Catalog store call duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	StoreCircuitOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_store_circuit_open",
			Help: "Whether the catalog store circuit breaker is open (1) or closed (0)",
		},
	)

	StorePropertyCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_store_property_cache_hits_total",
			Help: "Property term resolution cache hits",
		},
	)

	StorePropertyCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_store_property_cache_misses_total",
			Help: "Property term resolution cache misses",
		},
	)
)

// RecordAPIRequest records an API request with its status and duration.
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordStoreRequest records a catalog store call.
func RecordStoreRequest(operation string, err error, duration time.Duration) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	StoreRequestsTotal.WithLabelValues(operation, outcome).Inc()
	StoreRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordRecommendation records one engine run.
func RecordRecommendation(outcome string, candidates, results int, duration time.Duration) {
	RecommendRequestsTotal.WithLabelValues(outcome).Inc()
	RecommendDuration.Observe(duration.Seconds())
	RecommendCandidates.Observe(float64(candidates))
	RecommendResults.Observe(float64(results))
}
