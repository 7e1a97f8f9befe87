// Similaria - Catalog Similar-Items Recommendation Service
// Copyright 2026 Hondana Dev
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hondana-dev/similaria

package similar

import (
	"math/rand"
	"testing"
)

func jitterPool(scores ...float64) []*candidate {
	out := make([]*candidate, len(scores))
	for i, s := range scores {
		c := newCandidate(mkItem(int64(i+1), "item", nil))
		c.score = s
		out[i] = c
	}
	return out
}

func TestJitterSamplePassthrough(t *testing.T) {
	t.Parallel()

	pool := jitterPool(5, 4, 3)
	if out := jitterSample(pool, 3, 1.5, rand.New(rand.NewSource(1))); len(out) != 3 {
		t.Errorf("pool at limit returned %d, want 3 unchanged", len(out))
	}
	if out := jitterSample(pool, 0, 1.5, rand.New(rand.NewSource(1))); len(out) != 3 {
		t.Errorf("zero limit returned %d, want passthrough", len(out))
	}
}

func TestJitterSampleSize(t *testing.T) {
	t.Parallel()

	pool := jitterPool(9, 8, 7, 6, 5, 4, 3, 2, 1, 0)
	out := jitterSample(pool, 4, 1.5, rand.New(rand.NewSource(3)))
	if len(out) != 4 {
		t.Fatalf("got %d picks, want 4", len(out))
	}
	seen := make(map[int64]bool)
	for _, c := range out {
		if seen[c.item.ID] {
			t.Fatalf("item %d picked twice", c.item.ID)
		}
		seen[c.item.ID] = true
	}
}

func TestJitterSampleRespectsPoolWindow(t *testing.T) {
	t.Parallel()

	// limit 4, multiplier 1.5: pool window is the top 6 candidates;
	// items 7-10 must never appear.
	pool := jitterPool(10, 9, 8, 7, 6, 5, 4, 3, 2, 1)
	for seed := int64(0); seed < 20; seed++ {
		out := jitterSample(pool, 4, 1.5, rand.New(rand.NewSource(seed)))
		for _, c := range out {
			if c.item.ID > 6 {
				t.Fatalf("seed %d picked item %d outside the pool window", seed, c.item.ID)
			}
		}
	}
}

func TestJitterSampleDeterministic(t *testing.T) {
	t.Parallel()

	a := jitterSample(jitterPool(9, 8, 7, 6, 5, 4), 3, 1.5, rand.New(rand.NewSource(99)))
	b := jitterSample(jitterPool(9, 8, 7, 6, 5, 4), 3, 1.5, rand.New(rand.NewSource(99)))
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].item.ID != b[i].item.ID {
			t.Fatalf("same seed gave different draws at %d: %d vs %d", i, a[i].item.ID, b[i].item.ID)
		}
	}
}

func TestJitterSampleFavorsHighScores(t *testing.T) {
	t.Parallel()

	// One candidate dwarfs the rest; over many draws it should be picked
	// far more often than a uniform draw would.
	hits := 0
	const trials = 200
	for seed := int64(0); seed < trials; seed++ {
		out := jitterSample(jitterPool(100, 0, 0, 0), 1, 4, rand.New(rand.NewSource(seed)))
		if len(out) == 1 && out[0].item.ID == 1 {
			hits++
		}
	}
	if hits < trials*3/4 {
		t.Errorf("top candidate picked %d/%d times, want a strong majority", hits, trials)
	}
}

func TestJitterSampleNegativeScores(t *testing.T) {
	t.Parallel()

	// Weights stay positive even with negative scores, so sampling
	// terminates with the full pick count.
	out := jitterSample(jitterPool(-140, -150, -160), 2, 1.5, rand.New(rand.NewSource(5)))
	if len(out) != 2 {
		t.Fatalf("got %d picks, want 2", len(out))
	}
}
