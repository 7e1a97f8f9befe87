// Similaria - Catalog Similar-Items Recommendation Service
// Copyright 2026 Hondana Dev
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hondana-dev/similaria

package similar

import (
	"math/rand"
	"testing"
)

// rankCand builds a candidate with explicit signals; the score is the sum
// of the deltas, as in real scoring.
func rankCand(id int64, signals ...Signal) *candidate {
	c := newCandidate(mkItem(id, "item", nil))
	for _, s := range signals {
		c.addSignal(s.Kind, s.Detail, s.Delta)
	}
	return c
}

func ids(cands []*candidate) []int64 {
	out := make([]int64, len(cands))
	for i, c := range cands {
		out[i] = c.item.ID
	}
	return out
}

func assertOrder(t *testing.T, cands []*candidate, want ...int64) {
	t.Helper()
	got := ids(cands)
	if len(got) != len(want) {
		t.Fatalf("got %d candidates, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestRankScoreDescending(t *testing.T) {
	t.Parallel()

	cands := []*candidate{
		rankCand(1, Signal{Kind: SignalSubject, Delta: 4}),
		rankCand(2, Signal{Kind: SignalAuthorID, Delta: 6}),
		rankCand(3, Signal{Kind: SignalShelf, Delta: 2}),
	}
	rankCandidates(cands, TieBreakNone, false, nil)
	assertOrder(t, cands, 2, 1, 3)
}

func TestRankTieStatsIgnorePenaltiesAndMarkers(t *testing.T) {
	t.Parallel()

	c := rankCand(1,
		Signal{Kind: SignalSubject, Delta: 4},
		Signal{Kind: SignalSubject, Delta: 4}, // duplicate label counts once
		Signal{Kind: SignalSameTitlePenalty, Delta: -150},
		Signal{Kind: SignalBucketExpand, Detail: "history", Delta: 0},
	)
	computeTieStats(c)
	if c.uniq != 1 {
		t.Errorf("uniq = %d, want 1", c.uniq)
	}
	if c.maxPos != 4 {
		t.Errorf("maxPos = %v, want 4", c.maxPos)
	}
	if c.tiers != [4]bool{false, true, false, false} {
		t.Errorf("tiers = %v, want topical only", c.tiers)
	}
}

func TestRankConsensusVersusStrength(t *testing.T) {
	t.Parallel()

	// Same total score 6: breadth has two distinct signals, depth one
	// strong signal.
	breadth := func(id int64) *candidate {
		return rankCand(id,
			Signal{Kind: SignalSubject, Delta: 4},
			Signal{Kind: SignalShelf, Delta: 2},
		)
	}
	depth := func(id int64) *candidate {
		return rankCand(id, Signal{Kind: SignalAuthorID, Delta: 6})
	}

	cands := []*candidate{depth(1), breadth(2)}
	rankCandidates(cands, TieBreakConsensus, false, nil)
	assertOrder(t, cands, 2, 1)

	cands = []*candidate{breadth(2), depth(1)}
	rankCandidates(cands, TieBreakStrength, false, nil)
	assertOrder(t, cands, 1, 2)
}

func TestRankIdentityPolicy(t *testing.T) {
	t.Parallel()

	// Equal scores; identity evidence outranks topical breadth.
	topical := rankCand(1,
		Signal{Kind: SignalSubject, Delta: 3},
		Signal{Kind: SignalBucket, Delta: 3},
	)
	identity := rankCand(2, Signal{Kind: SignalAuthorizedName, Delta: 6})

	cands := []*candidate{topical, identity}
	rankCandidates(cands, TieBreakIdentity, false, nil)
	assertOrder(t, cands, 2, 1)
}

func TestRankModifiedAndIDTail(t *testing.T) {
	t.Parallel()

	// Equal scores, no policy: newer modified time first; mkItem makes
	// higher IDs newer.
	cands := []*candidate{
		rankCand(3, Signal{Kind: SignalSubject, Delta: 4}),
		rankCand(9, Signal{Kind: SignalSubject, Delta: 4}),
		rankCand(5, Signal{Kind: SignalSubject, Delta: 4}),
	}
	rankCandidates(cands, TieBreakNone, false, nil)
	assertOrder(t, cands, 9, 5, 3)
}

func TestRankJitterOrdinalDeterministic(t *testing.T) {
	t.Parallel()

	build := func() []*candidate {
		return []*candidate{
			rankCand(1, Signal{Kind: SignalSubject, Delta: 4}),
			rankCand(2, Signal{Kind: SignalSubject, Delta: 4}),
			rankCand(3, Signal{Kind: SignalSubject, Delta: 4}),
			rankCand(4, Signal{Kind: SignalSubject, Delta: 4}),
		}
	}

	a := build()
	rankCandidates(a, TieBreakNone, true, rand.New(rand.NewSource(42)))
	b := build()
	rankCandidates(b, TieBreakNone, true, rand.New(rand.NewSource(42)))
	for i := range a {
		if a[i].item.ID != b[i].item.ID {
			t.Fatalf("same seed gave different orders: %v vs %v", ids(a), ids(b))
		}
	}

	// Jitter reorders ties but never outranks a higher score.
	c := append(build(), rankCand(5, Signal{Kind: SignalAuthorID, Delta: 6}))
	rankCandidates(c, TieBreakNone, true, rand.New(rand.NewSource(7)))
	if c[0].item.ID != 5 {
		t.Errorf("top candidate = %d, want 5 (highest score)", c[0].item.ID)
	}
}
