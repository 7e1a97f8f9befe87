// Similaria - Catalog Similar-Items Recommendation Service
// Copyright 2026 Hondana Dev
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hondana-dev/similaria

package similar

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/hondana-dev/similaria/internal/catalog"
	"github.com/hondana-dev/similaria/internal/logging"
)

// runGenerator wires a generator with sensible test defaults and runs it.
func runGenerator(t *testing.T, store *memStore, cfg *Config, seed catalog.Item, siteID int64, limit int) []*candidate {
	t.Helper()
	sig := ExtractSignals(&seed, cfg.Fields)
	var rules *RuleDoc
	var seedBuckets []string
	if cfg.BucketRules != "" {
		var err error
		rules, err = ParseRules(cfg.BucketRules)
		if err != nil {
			t.Fatalf("ParseRules failed: %v", err)
		}
		seedBuckets = rules.Classify(sig.Call, sig.Class)
	}
	g := newGenerator(store, cfg, rules, &seed, sig, seedBuckets, siteID, limit, logging.NewTestLogger(io.Discard))
	return g.run(context.Background())
}

func poolIDs(cands []*candidate) map[int64]*candidate {
	out := make(map[int64]*candidate, len(cands))
	for _, c := range cands {
		out[c.item.ID] = c
	}
	return out
}

func TestGeneratorSeedsFromCollections(t *testing.T) {
	t.Parallel()

	seed := mkItem(1, "seed", nil, 7)
	store := &memStore{items: []catalog.Item{
		seed,
		mkItem(2, "in collection", nil, 7),
		mkItem(3, "in collection", nil, 7),
		mkItem(4, "elsewhere", nil, 8),
	}}
	cfg := baseConfig()

	pool := runGenerator(t, store, &cfg, seed, 0, 6)
	got := poolIDs(pool)
	if len(got) != 2 || got[2] == nil || got[3] == nil {
		t.Errorf("pool = %v, want items 2 and 3", ids(pool))
	}
	if got[1] != nil {
		t.Error("seed item must never enter the pool")
	}
}

func TestGeneratorCollectionsDisabled(t *testing.T) {
	t.Parallel()

	seed := mkItem(1, "seed", nil, 7)
	store := &memStore{items: []catalog.Item{seed, mkItem(2, "x", nil, 7)}}
	cfg := baseConfig()
	cfg.UseCollections = false

	if pool := runGenerator(t, store, &cfg, seed, 0, 6); len(pool) != 0 {
		t.Errorf("pool = %v, want empty with collections off", ids(pool))
	}
}

func TestGeneratorPropertyExpansionCredits(t *testing.T) {
	t.Parallel()

	seed := mkItem(1, "seed", map[string][]string{
		"cat:authorId": {"A1"},
		"dc:subject":   {"歴史"},
	})
	store := &memStore{items: []catalog.Item{
		seed,
		mkItem(2, "same author", map[string][]string{"cat:authorId": {"A1"}}),
		mkItem(3, "same subject", map[string][]string{"dc:subject": {"歴史"}}),
		mkItem(4, "both", map[string][]string{"cat:authorId": {"A1"}, "dc:subject": {"歴史"}}),
	}}
	cfg := baseConfig()
	cfg.Weights.AuthorID = 6
	cfg.Weights.Subject = 4

	pool := runGenerator(t, store, &cfg, seed, 0, 6)
	got := poolIDs(pool)
	if len(got) != 3 {
		t.Fatalf("pool = %v, want items 2, 3, 4", ids(pool))
	}
	if got[2].score != 6 {
		t.Errorf("author match credited %v, want 6", got[2].score)
	}
	if got[3].score != 4 {
		t.Errorf("subject match credited %v, want 4", got[3].score)
	}
	// Item 4 matches both searches: each term credits once.
	if got[4].score != 10 {
		t.Errorf("double match credited %v, want 10", got[4].score)
	}
	if !got[4].credited["cat:authorId"] || !got[4].credited["dc:subject"] {
		t.Error("credit markers missing; scoring would double-pay the overlap")
	}
}

func TestGeneratorSkipsBibSearchWhileDemoting(t *testing.T) {
	t.Parallel()

	seed := mkItem(1, "seed", map[string][]string{"cat:bibid": {"BN01"}})
	store := &memStore{items: []catalog.Item{
		seed,
		mkItem(2, "same bib", map[string][]string{"cat:bibid": {"BN01"}}),
	}}

	cfg := baseConfig()
	cfg.DemoteSameBib = true
	cfg.Weights.BibID = 5
	if pool := runGenerator(t, store, &cfg, seed, 0, 6); len(pool) != 0 {
		t.Errorf("pool = %v, want empty (bib expansion off while demoting)", ids(pool))
	}

	cfg.DemoteSameBib = false
	pool := runGenerator(t, store, &cfg, seed, 0, 6)
	if got := poolIDs(pool); len(got) != 1 || got[2] == nil {
		t.Errorf("pool = %v, want item 2 via bib search", ids(pool))
	}
}

func TestGeneratorNegativeSubjectWeightSkipsSearch(t *testing.T) {
	t.Parallel()

	seed := mkItem(1, "seed", map[string][]string{"dc:subject": {"歴史"}})
	store := &memStore{items: []catalog.Item{
		seed,
		mkItem(2, "same subject", map[string][]string{"dc:subject": {"歴史"}}),
	}}
	cfg := baseConfig()
	cfg.Weights.Subject = -4

	if pool := runGenerator(t, store, &cfg, seed, 0, 6); len(pool) != 0 {
		t.Errorf("pool = %v, want empty (negative subject weight never seeds)", ids(pool))
	}
}

func TestGeneratorSiteRetry(t *testing.T) {
	t.Parallel()

	seed := mkItem(1, "seed", nil, 7)
	store := &memStore{
		items: []catalog.Item{seed, mkItem(2, "off-site", nil, 7)},
		sites: map[int64][]int64{1: {3}}, // item 2 is not on site 3
	}
	cfg := baseConfig()

	pool := runGenerator(t, store, &cfg, seed, 3, 6)
	if got := poolIDs(pool); len(got) != 1 || got[2] == nil {
		t.Errorf("pool = %v, want item 2 via unscoped retry", ids(pool))
	}
}

func TestGeneratorBucketExpansion(t *testing.T) {
	t.Parallel()

	seed := mkItem(1, "seed", map[string][]string{"dcndl:callNumber": {"913.6"}})
	store := &memStore{items: []catalog.Item{
		seed,
		mkItem(2, "also literature", map[string][]string{"dcndl:callNumber": {"910"}}),
		mkItem(3, "history", map[string][]string{"dcndl:callNumber": {"210"}}),
	}}
	cfg := baseConfig()
	cfg.Weights.Bucket = 3
	cfg.BucketRules = DefaultBucketRules

	pool := runGenerator(t, store, &cfg, seed, 0, 6)
	got := poolIDs(pool)
	if len(got) != 1 || got[2] == nil {
		t.Fatalf("pool = %v, want item 2 from the literature bucket", ids(pool))
	}
	c := got[2]
	if len(c.signals) != 1 || c.signals[0].Kind != SignalBucketExpand {
		t.Fatalf("signals = %v, want one bucket_expand marker", c.signals)
	}
	if c.signals[0].Detail != "literature" || c.signals[0].Delta != 0 {
		t.Errorf("marker = %+v, want zero-weight literature marker", c.signals[0])
	}
}

func TestGeneratorBucketExpansionGating(t *testing.T) {
	t.Parallel()

	seed := mkItem(1, "seed", map[string][]string{"dcndl:callNumber": {"913.6"}})
	store := &memStore{items: []catalog.Item{
		seed,
		mkItem(2, "literature", map[string][]string{"dcndl:callNumber": {"910"}}),
	}}
	cfg := baseConfig()
	cfg.BucketRules = DefaultBucketRules
	cfg.Weights.Bucket = 0 // weight off disables expansion

	if pool := runGenerator(t, store, &cfg, seed, 0, 6); len(pool) != 0 {
		t.Errorf("pool = %v, want empty with bucket weight 0", ids(pool))
	}
}

func TestGeneratorShelfExpansion(t *testing.T) {
	t.Parallel()

	// Item 4 prefix-matches the seed's shelf "ハ220" but parses to shelf
	// "ハ2205"; the equality check must keep it out of the pool.
	seed := mkItem(1, "seed", map[string][]string{"dcndl:callNumber": {"ハ220-186"}})
	store := &memStore{items: []catalog.Item{
		seed,
		mkItem(2, "same shelf", map[string][]string{"dcndl:callNumber": {"ハ220-42"}}),
		mkItem(3, "other shelf", map[string][]string{"dcndl:callNumber": {"ホ100"}}),
		mkItem(4, "longer shelf", map[string][]string{"dcndl:callNumber": {"ハ2205-1"}}),
	}}
	cfg := baseConfig()
	cfg.Weights.Shelf = 2
	cfg.ShelfExpand = true
	cfg.ShelfExpandLimit = 50

	pool := runGenerator(t, store, &cfg, seed, 0, 6)
	got := poolIDs(pool)
	if len(got) != 1 || got[2] == nil {
		t.Fatalf("pool = %v, want only item 2 via shelf expansion", ids(pool))
	}
	if got[4] != nil {
		t.Error("prefix overmatch ハ2205-1 admitted despite differing shelf")
	}
	if got[2].signals[0].Kind != SignalShelfExpand {
		t.Errorf("signals = %v, want shelf_expand marker", got[2].signals)
	}
}

func TestGeneratorLastChanceUnion(t *testing.T) {
	t.Parallel()

	seed := mkItem(1, "seed", nil, 7)
	store := &memStore{
		items:    []catalog.Item{seed, mkItem(2, "x", nil, 7), mkItem(3, "y", nil, 7)},
		failNext: 1, // the per-collection pass fails, the union fetch succeeds
	}
	cfg := baseConfig()

	pool := runGenerator(t, store, &cfg, seed, 0, 6)
	if got := poolIDs(pool); len(got) != 2 || got[2] == nil || got[3] == nil {
		t.Errorf("pool = %v, want items 2 and 3 from the union fetch", ids(pool))
	}
}

func TestGeneratorStoreFailureDegradesToEmpty(t *testing.T) {
	t.Parallel()

	seed := mkItem(1, "seed", nil, 7)
	store := &memStore{
		items:    []catalog.Item{seed, mkItem(2, "x", nil, 7)},
		failNext: 10,
	}
	cfg := baseConfig()

	if pool := runGenerator(t, store, &cfg, seed, 0, 6); len(pool) != 0 {
		t.Errorf("pool = %v, want empty when every search fails", ids(pool))
	}
}

func TestGeneratorCapBoundaryItemUncredited(t *testing.T) {
	t.Parallel()

	seed := mkItem(1, "seed", map[string][]string{"dc:subject": {"歴史"}})
	cfg := baseConfig()
	cfg.Weights.Subject = 4
	sig := ExtractSignals(&seed, cfg.Fields)
	g := newGenerator(&memStore{}, &cfg, nil, &seed, sig, nil, 0, 6, logging.NewTestLogger(io.Discard))

	// Fill the pool to one under the cap, then merge a two-item result.
	for i := int64(0); i < maxCandidates-1; i++ {
		g.add(mkItem(1000+i, fmt.Sprintf("filler %d", i), nil))
	}
	last := mkItem(5000, "boundary", map[string][]string{"dc:subject": {"歴史"}})
	for _, it := range []catalog.Item{last} {
		c, _ := g.add(it)
		if c == nil {
			continue
		}
		if g.full() {
			break
		}
		c.creditProperty(SignalSubject, cfg.Fields.Subject, cfg.Weights.Subject)
	}
	if !g.full() {
		t.Fatal("pool should be at the cap")
	}
	// The item that filled the last slot is kept but not credited;
	// scoring pays its overlap weight instead.
	if c := g.candidates[5000]; c == nil {
		t.Fatal("boundary item missing from pool")
	} else if c.score != 0 || c.credited[cfg.Fields.Subject] {
		t.Errorf("boundary item credited (score %v); credit must stop at the cap", c.score)
	}
}
