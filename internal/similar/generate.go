// Similaria - Catalog Similar-Items Recommendation Service
// Copyright 2026 Hondana Dev
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hondana-dev/similaria

package similar

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/hondana-dev/similaria/internal/catalog"
)

// maxCandidates is the hard cap on the candidate pool.
const maxCandidates = 1000

// searchPageSize is the per-query fetch window during generation.
const searchPageSize = 200

// generator collects the candidate pool for one request. It owns the
// candidate map and the insertion order; all store access degrades to an
// empty result on error.
type generator struct {
	store  Store
	cfg    *Config
	rules  *RuleDoc // nil when the rule document is absent or malformed
	logger zerolog.Logger

	seed        *catalog.Item
	sig         Signals
	seedBuckets []string
	siteID      int64
	limit       int

	candidates map[int64]*candidate
	order      []int64
}

func newGenerator(store Store, cfg *Config, rules *RuleDoc, seed *catalog.Item, sig Signals, seedBuckets []string, siteID int64, limit int, logger zerolog.Logger) *generator {
	return &generator{
		store:       store,
		cfg:         cfg,
		rules:       rules,
		logger:      logger,
		seed:        seed,
		sig:         sig,
		seedBuckets: seedBuckets,
		siteID:      siteID,
		limit:       limit,
		candidates:  make(map[int64]*candidate),
	}
}

// run executes the generation strategies in their fixed order and returns
// the pool in insertion order.
func (g *generator) run(ctx context.Context) []*candidate {
	g.seedByCollections(ctx)
	g.expandByProperties(ctx)
	g.expandByBuckets(ctx)
	g.expandByShelf(ctx)
	g.lastChanceUnion(ctx)

	out := make([]*candidate, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.candidates[id])
	}
	return out
}

// add registers an item in the pool, returning its candidate and whether
// it is new. The seed item itself is never added.
func (g *generator) add(item catalog.Item) (*candidate, bool) {
	if item.ID == g.seed.ID {
		return nil, false
	}
	if c, ok := g.candidates[item.ID]; ok {
		return c, false
	}
	c := newCandidate(item)
	g.candidates[item.ID] = c
	g.order = append(g.order, item.ID)
	return c, true
}

func (g *generator) full() bool {
	return len(g.candidates) >= maxCandidates
}

// search wraps the store call with graceful degradation: a failed search
// contributes nothing to the pool.
func (g *generator) search(ctx context.Context, q catalog.Query) []catalog.Item {
	items, err := g.store.SearchItems(ctx, q)
	if err != nil {
		g.logger.Warn().Err(err).Msg("candidate search failed, continuing with empty result")
		return nil
	}
	return items
}

// seedByCollections pulls candidates from every collection the seed item
// belongs to. A collection that yields nothing under site scoping is
// retried without the site filter; if the whole pass stays empty under
// scoping, all collections are retried unscoped.
func (g *generator) seedByCollections(ctx context.Context) {
	if !g.cfg.UseCollections || len(g.seed.Collections) == 0 {
		return
	}
	for _, cid := range g.seed.Collections {
		before := len(g.candidates)
		q := catalog.Query{Collections: []int64{cid}, Limit: searchPageSize, SiteID: g.siteID}
		for _, it := range g.search(ctx, q) {
			g.add(it)
			if g.full() {
				return
			}
		}
		if len(g.candidates) == before && g.siteID > 0 {
			q.SiteID = 0
			for _, it := range g.search(ctx, q) {
				g.add(it)
				if g.full() {
					return
				}
			}
		}
	}
	if len(g.candidates) == 0 && g.siteID > 0 {
		for _, cid := range g.seed.Collections {
			q := catalog.Query{Collections: []int64{cid}, Limit: searchPageSize}
			for _, it := range g.search(ctx, q) {
				g.add(it)
				if g.full() {
					return
				}
			}
		}
	}
	g.logger.Debug().Int("candidates", len(g.candidates)).Msg("seeded from collections")
}

// propertySearch is one property-equality expansion, carrying the weight
// credited to every hit.
type propertySearch struct {
	kind   SignalKind
	term   string
	value  string
	weight float64
}

// propertySearches builds the expansion list in its fixed field order.
// Bib ID expansion is skipped entirely while same-bib demotion is on.
func (g *generator) propertySearches() []propertySearch {
	var searches []propertySearch
	f, w := g.cfg.Fields, g.cfg.Weights

	if !g.cfg.DemoteSameBib && f.BibID != "" && g.sig.BibID != "" {
		searches = append(searches, propertySearch{SignalBibID, f.BibID, g.sig.BibID, w.BibID})
	}
	if f.NCID != "" && w.NCID != 0 && g.sig.NCID != "" {
		searches = append(searches, propertySearch{SignalNCID, f.NCID, g.sig.NCID, w.NCID})
	}
	if f.AuthorID != "" && w.AuthorID != 0 {
		for _, v := range uniqueNonEmpty(g.sig.AuthorIDs) {
			searches = append(searches, propertySearch{SignalAuthorID, f.AuthorID, v, w.AuthorID})
		}
	}
	if f.AuthorizedName != "" && w.AuthorizedName != 0 {
		for _, v := range uniqueNonEmpty(g.sig.AuthorizedNames) {
			searches = append(searches, propertySearch{SignalAuthorizedName, f.AuthorizedName, v, w.AuthorizedName})
		}
	}
	if f.Subject != "" && w.Subject > 0 {
		for _, v := range g.sig.Subjects {
			searches = append(searches, propertySearch{SignalSubject, f.Subject, v, w.Subject})
		}
	}
	if f.SeriesTitle != "" && w.SeriesTitle != 0 {
		for _, v := range uniqueNonEmpty(g.sig.SeriesTitles) {
			searches = append(searches, propertySearch{SignalSeriesTitle, f.SeriesTitle, v, w.SeriesTitle})
		}
	}
	if f.Publisher != "" && w.Publisher != 0 {
		for _, v := range uniqueNonEmpty(g.sig.Publishers) {
			searches = append(searches, propertySearch{SignalPublisher, f.Publisher, v, w.Publisher})
		}
	}
	return searches
}

// expandByProperties runs the property-equality searches concurrently,
// then merges results sequentially in declaration order so crediting and
// the pool cap stay deterministic.
func (g *generator) expandByProperties(ctx context.Context) {
	searches := g.propertySearches()
	if len(searches) == 0 {
		return
	}

	results := make([][]catalog.Item, len(searches))
	var wg sync.WaitGroup
	for i, s := range searches {
		wg.Add(1)
		go func(i int, s propertySearch) {
			defer wg.Done()
			results[i] = g.search(ctx, catalog.Query{
				Properties: []catalog.PropertyFilter{{Term: s.term, Op: catalog.MatchEquals, Text: s.value}},
				Limit:      searchPageSize,
				SiteID:     g.siteID,
			})
		}(i, s)
	}
	wg.Wait()

	for i, s := range searches {
		for _, it := range results[i] {
			c, _ := g.add(it)
			if c == nil {
				continue
			}
			if g.full() {
				break
			}
			// Base weight once per property term; 2nd+ value matches are
			// the multi-match bonus's business.
			c.creditProperty(s.kind, s.term, s.weight)
		}
	}
	g.logger.Debug().Int("searches", len(searches)).Int("candidates", len(g.candidates)).Msg("expanded by properties")
}

// matchOpFor translates a rule op into a store match type.
func matchOpFor(op string) (catalog.MatchOp, bool) {
	switch op {
	case OpPrefix:
		return catalog.MatchStartsWith, true
	case OpContains:
		return catalog.MatchContains, true
	case OpEquals:
		return catalog.MatchEquals, true
	default:
		return "", false
	}
}

// ruleFieldTerm maps a rule context field to its property term.
func (g *generator) ruleFieldTerm(field string) string {
	switch field {
	case "call_number":
		return g.cfg.Fields.CallNumber
	case "class_number":
		return g.cfg.Fields.ClassNumber
	default:
		return ""
	}
}

// expandByBuckets widens a thin pool with items matching the seed's domain
// buckets. Conjunctive rules become one multi-filter query; disjunctive
// rules become one query per distinct condition. New candidates carry a
// zero-weight provenance marker; actual bucket weight is applied in
// scoring.
func (g *generator) expandByBuckets(ctx context.Context) {
	if g.cfg.Weights.Bucket <= 0 || len(g.seedBuckets) == 0 || g.rules == nil {
		return
	}
	if g.cfg.Fields.CallNumber == "" && g.cfg.Fields.ClassNumber == "" {
		return
	}
	targetPool := searchPageSize
	if t := g.limit * 10; t > targetPool {
		targetPool = t
	}
	if len(g.candidates) >= targetPool {
		return
	}

	matched := make(map[string]bool, len(g.seedBuckets))
	for _, k := range g.seedBuckets {
		matched[k] = true
	}
	for i := range g.rules.Buckets {
		b := &g.rules.Buckets[i]
		if b.Key == "" || !matched[b.Key] {
			continue
		}
		if len(b.All) > 0 {
			g.bucketQueryAll(ctx, b)
		} else if len(b.Any) > 0 {
			g.bucketQueryAny(ctx, b)
		}
		if g.full() {
			return
		}
	}
	g.logger.Debug().Int("candidates", len(g.candidates)).Msg("expanded by buckets")
}

func (g *generator) bucketQueryAll(ctx context.Context, b *Bucket) {
	var filters []catalog.PropertyFilter
	for _, cond := range leafConditions(b.All) {
		term := g.ruleFieldTerm(cond.Field)
		if term == "" {
			continue
		}
		op, ok := matchOpFor(cond.Op)
		if !ok {
			continue
		}
		filters = append(filters, catalog.PropertyFilter{Term: term, Op: op, Text: cond.Value})
	}
	if len(filters) == 0 {
		return
	}
	q := catalog.Query{Properties: filters, Limit: searchPageSize, SiteID: g.siteID}
	for _, it := range g.search(ctx, q) {
		if c, isNew := g.add(it); isNew {
			c.addSignal(SignalBucketExpand, b.Key, 0)
		}
		if g.full() {
			return
		}
	}
}

func (g *generator) bucketQueryAny(ctx context.Context, b *Bucket) {
	type filterKey struct{ field, op, value string }
	seen := make(map[filterKey]bool)
	for _, cond := range leafConditions(b.Any) {
		key := filterKey{cond.Field, cond.Op, cond.Value}
		if seen[key] {
			continue
		}
		seen[key] = true
		term := g.ruleFieldTerm(cond.Field)
		if term == "" {
			continue
		}
		op, ok := matchOpFor(cond.Op)
		if !ok {
			continue
		}
		if g.full() {
			return
		}
		q := catalog.Query{
			Properties: []catalog.PropertyFilter{{Term: term, Op: op, Text: cond.Value}},
			Limit:      searchPageSize,
			SiteID:     g.siteID,
		}
		for _, it := range g.search(ctx, q) {
			if c, isNew := g.add(it); isNew {
				c.addSignal(SignalBucketExpand, b.Key, 0)
			}
			if g.full() {
				return
			}
		}
	}
}

// expandByShelf widens the pool with call numbers sharing the seed's shelf.
// The prefix query is advisory only; each hit's parsed shelf must equal the
// seed's exactly, or an overmatch like "ハ2205" would ride in on "ハ220".
func (g *generator) expandByShelf(ctx context.Context) {
	if !g.cfg.ShelfExpand || g.cfg.Weights.Shelf == 0 || g.cfg.Fields.CallNumber == "" {
		return
	}
	shelf := parseShelf(g.sig.Call)
	if shelf == "" || g.full() {
		return
	}
	q := catalog.Query{
		Properties: []catalog.PropertyFilter{{Term: g.cfg.Fields.CallNumber, Op: catalog.MatchStartsWith, Text: shelf}},
		Limit:      g.cfg.ShelfExpandLimit,
		SiteID:     g.siteID,
	}
	for _, it := range g.search(ctx, q) {
		if parseShelf(it.FirstValue(g.cfg.Fields.CallNumber)) != shelf {
			continue
		}
		if c, isNew := g.add(it); isNew {
			c.addSignal(SignalShelfExpand, "", 0)
		}
		if g.full() {
			return
		}
	}
	g.logger.Debug().Str("shelf", shelf).Int("candidates", len(g.candidates)).Msg("expanded by shelf")
}

// lastChanceUnion fetches a small unscoped batch across all of the seed's
// collections when every other strategy came up empty, so collection
// overlap always yields something.
func (g *generator) lastChanceUnion(ctx context.Context) {
	if len(g.candidates) > 0 || !g.cfg.UseCollections || len(g.seed.Collections) == 0 {
		return
	}
	limit := g.limit * 4
	if limit > searchPageSize {
		limit = searchPageSize
	}
	if limit < 20 {
		limit = 20
	}
	q := catalog.Query{Collections: g.seed.Collections, Limit: limit}
	for _, it := range g.search(ctx, q) {
		g.add(it)
		if g.full() {
			return
		}
	}
	g.logger.Debug().Int("candidates", len(g.candidates)).Msg("last-chance union fetch")
}
