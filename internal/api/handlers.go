// Similaria - Catalog Similar-Items Recommendation Service
// Copyright 2026 Hondana Dev
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hondana-dev/similaria

package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hondana-dev/similaria/internal/catalog"
	"github.com/hondana-dev/similaria/internal/similar"
	"github.com/hondana-dev/similaria/internal/validation"
)

// Version is reported by the health endpoint. Set at build time via
// -ldflags "-X github.com/hondana-dev/similaria/internal/api.Version=...".
var Version = "dev"

// Handler serves the HTTP API on top of the recommendation engine.
type Handler struct {
	engine    *similar.Engine
	store     catalog.Store
	startTime time.Time
}

// NewHandler creates the API handler. The store is probed by the
// readiness endpoint; pass the same store the engine uses.
func NewHandler(engine *similar.Engine, store catalog.Store) *Handler {
	return &Handler{
		engine:    engine,
		store:     store,
		startTime: time.Now(),
	}
}

// similarQuery holds the parsed query parameters of a similar-items
// request before validation.
type similarQuery struct {
	Limit            int     `validate:"gte=-1,lte=200"`
	SiteID           int64   `validate:"min=0"`
	TieBreak         string  `validate:"omitempty,oneof=none consensus strength identity"`
	Seed             int64   `validate:"min=0"`
	CollectionWeight float64 `validate:"gte=-1000,lte=1000"`
}

// Similar handles GET /api/v1/similar/{itemID}.
func (h *Handler) Similar(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	itemID, ok := parseItemID(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	query := similarQuery{
		TieBreak: q.Get("tiebreak"),
	}

	var parseErr string
	query.Limit, parseErr = parseIntParam(q.Get("limit"), parseErr, "limit")
	site, parseErr := parseInt64Param(q.Get("site"), parseErr, "site")
	seed, parseErr := parseInt64Param(q.Get("seed"), parseErr, "seed")
	query.SiteID, query.Seed = site, seed

	var collWeight *float64
	if raw := q.Get("collection_weight"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			parseErr = "collection_weight must be a number"
		} else {
			query.CollectionWeight = v
			collWeight = &v
		}
	}

	if parseErr != "" {
		respondError(w, http.StatusBadRequest, "INVALID_PARAMETER", parseErr, nil)
		return
	}

	if verr := validation.ValidateStruct(&query); verr != nil {
		apiErr := verr.ToAPIError()
		respondJSON(w, http.StatusBadRequest, &APIResponse{
			Status:   "error",
			Metadata: Metadata{Timestamp: time.Now()},
			Error: &APIError{
				Code:    apiErr.Code,
				Message: apiErr.Message,
				Details: apiErr.Details,
			},
		})
		return
	}

	req := similar.Request{
		ItemID:              itemID,
		Limit:               query.Limit,
		SiteID:              query.SiteID,
		TieBreak:            query.TieBreak,
		CollectionWeight:    collWeight,
		CollectionsSeedOnly: boolParam(q.Get("collections_seed_only")),
		Debug:               boolParam(q.Get("debug")),
		Seed:                query.Seed,
	}

	resp, err := h.engine.Recommend(r.Context(), req)
	if err != nil {
		respondEngineError(w, itemID, err)
		return
	}

	respondJSON(w, http.StatusOK, &APIResponse{
		Status: "success",
		Data:   resp,
		Metadata: Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

// Buckets handles GET /api/v1/similar/{itemID}/buckets.
func (h *Handler) Buckets(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	itemID, ok := parseItemID(w, r)
	if !ok {
		return
	}

	buckets, err := h.engine.BucketsFor(r.Context(), itemID)
	if err != nil {
		respondEngineError(w, itemID, err)
		return
	}
	if buckets == nil {
		buckets = []string{}
	}

	respondJSON(w, http.StatusOK, &APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"item_id": itemID,
			"buckets": buckets,
		},
		Metadata: Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

// SeedDebug handles GET /api/v1/similar/{itemID}/debug.
func (h *Handler) SeedDebug(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	itemID, ok := parseItemID(w, r)
	if !ok {
		return
	}

	debug, err := h.engine.DebugSeed(r.Context(), itemID)
	if err != nil {
		respondEngineError(w, itemID, err)
		return
	}

	respondJSON(w, http.StatusOK, &APIResponse{
		Status: "success",
		Data:   debug,
		Metadata: Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

// Config handles GET /api/v1/similar/config.
func (h *Handler) Config(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, &APIResponse{
		Status: "success",
		Data:   h.engine.ConfigSnapshot(),
		Metadata: Metadata{
			Timestamp: time.Now(),
		},
	})
}

// Health handles GET /api/v1/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	connected := h.catalogReachable(r)

	status := "healthy"
	if !connected {
		status = "degraded"
	}

	respondJSON(w, http.StatusOK, &APIResponse{
		Status: "success",
		Data: HealthStatus{
			Status:           status,
			Version:          Version,
			CatalogConnected: connected,
			Uptime:           time.Since(h.startTime).Seconds(),
		},
		Metadata: Metadata{
			Timestamp: time.Now(),
		},
	})
}

// HealthLive handles GET /api/v1/health/live. Always succeeds while the
// process serves requests.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, &APIResponse{
		Status:   "success",
		Data:     map[string]string{"status": "alive"},
		Metadata: Metadata{Timestamp: time.Now()},
	})
}

// HealthReady handles GET /api/v1/health/ready. Fails with 503 while the
// catalog is unreachable so load balancers route around this instance.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if !h.catalogReachable(r) {
		respondError(w, http.StatusServiceUnavailable, "NOT_READY", "Catalog is unreachable", nil)
		return
	}

	respondJSON(w, http.StatusOK, &APIResponse{
		Status:   "success",
		Data:     map[string]string{"status": "ready"},
		Metadata: Metadata{Timestamp: time.Now()},
	})
}

// catalogReachable probes the catalog with a minimal count query.
func (h *Handler) catalogReachable(r *http.Request) bool {
	if h.store == nil {
		return false
	}

	ctx, cancel := contextWithProbeTimeout(r)
	defer cancel()

	_, err := h.store.CountItems(ctx, catalog.Query{Page: 1, PerPage: 1})
	return err == nil
}

// contextWithProbeTimeout bounds health probes so a hung catalog cannot
// stall monitoring.
func contextWithProbeTimeout(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), 3*time.Second)
}

func parseItemID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "itemID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "INVALID_PARAMETER", "itemID must be a positive integer", nil)
		return 0, false
	}
	return id, true
}

func parseIntParam(raw, pending, name string) (int, string) {
	if raw == "" || pending != "" {
		return 0, pending
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, name + " must be an integer"
	}
	return v, ""
}

func parseInt64Param(raw, pending, name string) (int64, string) {
	if raw == "" || pending != "" {
		return 0, pending
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, name + " must be an integer"
	}
	return v, ""
}

func boolParam(raw string) bool {
	return raw == "1" || raw == "true"
}

func respondEngineError(w http.ResponseWriter, itemID int64, err error) {
	if errors.Is(err, catalog.ErrNotFound) {
		respondError(w, http.StatusNotFound, "ITEM_NOT_FOUND",
			"Item "+strconv.FormatInt(itemID, 10)+" does not exist", err)
		return
	}
	respondError(w, http.StatusBadGateway, "CATALOG_ERROR", "Catalog request failed", err)
}
