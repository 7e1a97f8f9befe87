// Similaria - Catalog Similar-Items Recommendation Service
// Copyright 2026 Hondana Dev
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hondana-dev/similaria

package similar

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/hondana-dev/similaria/internal/catalog"
	"github.com/hondana-dev/similaria/internal/logging"
	"github.com/hondana-dev/similaria/internal/metrics"
)

// Store is the catalog access the engine needs. catalog.Client satisfies
// it; tests provide in-memory fakes.
type Store interface {
	GetItem(ctx context.Context, id int64) (*catalog.Item, error)
	SearchItems(ctx context.Context, q catalog.Query) ([]catalog.Item, error)
	CountItems(ctx context.Context, q catalog.Query) (int, error)
}

// Engine computes similar-items recommendations. It is stateless across
// requests: each request assembles its own immutable Config and its own
// seeded RNG, so concurrent use needs no locks.
type Engine struct {
	store    Store
	settings Source
	logger   zerolog.Logger
}

// NewEngine creates an engine over the given store and settings source.
func NewEngine(store Store, settings Source) *Engine {
	return &Engine{
		store:    store,
		settings: settings,
		logger:   logging.WithComponent("engine"),
	}
}

// ConfigSnapshot returns the configuration a request would run with.
func (e *Engine) ConfigSnapshot() Config {
	return FromSource(e.settings)
}

// Recommend runs the full pipeline for one request. The only hard failure
// is an unreadable seed item; everything downstream degrades to smaller
// or empty result sets.
func (e *Engine) Recommend(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	cfg := FromSource(e.settings)

	limit := req.Limit
	switch {
	case limit == 0:
		limit = cfg.Limit
	case limit < 0:
		limit = 50
	}

	seedVal := req.Seed
	if seedVal == 0 {
		seedVal = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seedVal)) //nolint:gosec // jitter only, not security-sensitive

	logger := logging.Ctx(ctx).With().
		Str("component", "engine").
		Int64("item_id", req.ItemID).
		Int("limit", limit).
		Logger()

	seed, err := e.store.GetItem(ctx, req.ItemID)
	if err != nil {
		metrics.RecordRecommendation("not_found", 0, 0, time.Since(start))
		return nil, fmt.Errorf("load seed item %d: %w", req.ItemID, err)
	}

	siteID := int64(0)
	if cfg.ScopeSite && req.SiteID > 0 {
		siteID = req.SiteID
	}

	collWeight := cfg.CollectionWeight
	if req.CollectionWeight != nil {
		collWeight = *req.CollectionWeight
	}
	applyCollW := !req.CollectionsSeedOnly && collWeight != 0

	tiebreak := cfg.TieBreak
	if req.TieBreak != "" {
		tiebreak = ParseTieBreak(req.TieBreak)
	}

	sig := ExtractSignals(seed, cfg.Fields)
	rules := e.parseRules(cfg.BucketRules, &logger)
	var seedBuckets []string
	if rules != nil {
		seedBuckets = rules.Classify(sig.Call, sig.Class)
	}

	logger.Debug().
		Str("bibid", sig.BibID).
		Int("author_ids", len(sig.AuthorIDs)).
		Int("subjects", len(sig.Subjects)).
		Str("call", sig.Call).
		Strs("buckets", seedBuckets).
		Msg("seed signals extracted")

	gen := newGenerator(e.store, &cfg, rules, seed, sig, seedBuckets, siteID, limit, logger)
	pool := gen.run(ctx)
	poolSize := len(pool)

	sc := newScorer(&cfg, sig, rules, seed, seedBuckets, applyCollW, collWeight, req.Debug)
	for _, c := range pool {
		sc.score(c)
	}

	rankCandidates(pool, tiebreak, cfg.Jitter, rng)

	final := diversify(pool, sc.seedBase, cfg.SameTitleMode, limit)
	if cfg.Jitter && limit > 0 && len(final) > limit {
		final = jitterSample(final, limit, cfg.JitterPoolMultiplier, rng)
	} else if limit > 0 && len(final) > limit {
		final = final[:limit]
	}

	if len(final) == 0 && cfg.SameTitleMode == SameTitleExclude && limit > 0 {
		final = e.randomFallback(ctx, seed, siteID, limit, rng, &logger)
	}

	results := make([]Result, 0, len(final))
	for _, c := range final {
		results = append(results, Result{
			Item:      c.item,
			Score:     c.score,
			Signals:   c.signals,
			BaseTitle: c.baseTitle,
			Debug:     c.debug,
		})
	}

	resp := &Response{Results: results, Candidates: poolSize, Seed: seedVal}
	if req.Debug {
		resp.SeedItem = e.seedDebug(seed, seedBuckets, sc)
	}

	metrics.RecordRecommendation("ok", poolSize, len(results), time.Since(start))
	logger.Info().
		Int("candidates", poolSize).
		Int("results", len(results)).
		Dur("elapsed", time.Since(start)).
		Msg("recommendation computed")
	return resp, nil
}

// parseRules parses the bucket rule document, degrading to nil on any
// error so classification and expansion quietly shut off.
func (e *Engine) parseRules(raw string, logger *zerolog.Logger) *RuleDoc {
	rules, err := ParseRules(raw)
	if err != nil {
		logger.Warn().Err(err).Msg("bucket rules unusable, classification disabled")
		return nil
	}
	return rules
}

// randomFallback draws a random page of items so an exclude-mode request
// never renders an empty block. Site scoping is retried without the site
// filter when it yields nothing. All failures leave the result empty.
func (e *Engine) randomFallback(ctx context.Context, seed *catalog.Item, siteID int64, limit int, rng *rand.Rand, logger *zerolog.Logger) []*candidate {
	per := limit * 3
	if per > 200 {
		per = 200
	}
	if per < 20 {
		per = 20
	}

	pool := e.randomPage(ctx, seed, siteID, per, rng, logger)
	if len(pool) == 0 && siteID > 0 {
		logger.Debug().Msg("random fallback retry without site filter")
		pool = e.randomPage(ctx, seed, 0, per, rng, logger)
	}
	if len(pool) == 0 {
		return nil
	}
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	if len(pool) > limit {
		pool = pool[:limit]
	}
	return pool
}

func (e *Engine) randomPage(ctx context.Context, seed *catalog.Item, siteID int64, per int, rng *rand.Rand, logger *zerolog.Logger) []*candidate {
	total, err := e.store.CountItems(ctx, catalog.Query{SiteID: siteID})
	if err != nil {
		logger.Warn().Err(err).Msg("random fallback count failed")
		return nil
	}
	if total <= 0 {
		total = per
	}
	pages := int(math.Ceil(float64(total) / float64(per)))
	if pages < 1 {
		pages = 1
	}
	page := 1 + rng.Intn(pages)

	items, err := e.store.SearchItems(ctx, catalog.Query{SiteID: siteID, Page: page, PerPage: per})
	if err != nil {
		logger.Warn().Err(err).Msg("random fallback search failed")
		return nil
	}
	var pool []*candidate
	for _, it := range items {
		if it.ID == seed.ID {
			continue
		}
		c := newCandidate(it)
		c.addSignal(SignalRandomFallback, "", 0)
		pool = append(pool, c)
	}
	return pool
}

func (e *Engine) seedDebug(seed *catalog.Item, seedBuckets []string, sc *scorer) *SeedDebug {
	return &SeedDebug{
		ID:        seed.ID,
		Title:     seed.Title,
		BaseTitle: sc.seedBase,
		Buckets:   seedBuckets,
		Values:    sc.debugValues(seed, seedBuckets, sc.seedCC),
	}
}

// BucketsFor classifies a single item against the configured bucket rules.
func (e *Engine) BucketsFor(ctx context.Context, itemID int64) ([]string, error) {
	cfg := FromSource(e.settings)
	item, err := e.store.GetItem(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("load item %d: %w", itemID, err)
	}
	rules, err := ParseRules(cfg.BucketRules)
	if err != nil {
		return nil, nil
	}
	return rules.Classify(
		item.FirstValue(cfg.Fields.CallNumber),
		item.FirstValue(cfg.Fields.ClassNumber),
	), nil
}

// DebugSeed resolves the seed-side view of an item: its base title,
// buckets, and the mapped property values.
func (e *Engine) DebugSeed(ctx context.Context, itemID int64) (*SeedDebug, error) {
	cfg := FromSource(e.settings)
	item, err := e.store.GetItem(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("load item %d: %w", itemID, err)
	}
	sig := ExtractSignals(item, cfg.Fields)
	var seedBuckets []string
	if rules, rerr := ParseRules(cfg.BucketRules); rerr == nil {
		seedBuckets = rules.Classify(sig.Call, sig.Class)
	}
	sc := newScorer(&cfg, sig, nil, item, seedBuckets, false, 0, true)
	return e.seedDebug(item, seedBuckets, sc), nil
}
