// Similaria - Catalog Similar-Items Recommendation Service
// Copyright 2026 Hondana Dev
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hondana-dev/similaria

package similar

import (
	"math/rand"
	"sort"
)

// computeTieStats fills the tie-break metadata of a candidate: the number
// of distinct positive signal labels, the strongest positive component,
// and which tiers contributed. Penalties and zero-weight markers never
// count.
func computeTieStats(c *candidate) {
	uniq := make(map[string]bool)
	c.maxPos = 0
	c.tiers = [4]bool{}
	for _, sig := range c.signals {
		if sig.Delta <= 0 {
			continue
		}
		uniq[sig.Label()] = true
		if sig.Delta > c.maxPos {
			c.maxPos = sig.Delta
		}
		switch sig.Kind.Tier() {
		case TierIdentity:
			c.tiers[0] = true
		case TierTopical:
			c.tiers[1] = true
		case TierShelving:
			c.tiers[2] = true
		case TierWeak:
			c.tiers[3] = true
		}
	}
	c.uniq = len(uniq)
}

// rankCandidates orders the pool: score descending, then the tie-break
// policy, then the jitter ordinal (when ordering jitter is on), then
// modified descending, and finally item ID for a strict total order.
func rankCandidates(cands []*candidate, policy TieBreakPolicy, jitterOn bool, rng *rand.Rand) {
	for _, c := range cands {
		computeTieStats(c)
		if jitterOn {
			c.rand = rng.Float64()
		}
	}
	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if cmp := compareTieBreak(a, b, policy); cmp != 0 {
			return cmp < 0
		}
		if jitterOn && a.rand != b.rand {
			return a.rand > b.rand
		}
		am, bm := a.item.Modified.UnixMilli(), b.item.Modified.UnixMilli()
		if am != bm {
			return am > bm
		}
		return a.item.ID < b.item.ID
	})
}

// compareTieBreak applies the policy on equal scores. Negative means a
// ranks first.
func compareTieBreak(a, b *candidate, policy TieBreakPolicy) int {
	switch policy {
	case TieBreakConsensus:
		if a.uniq != b.uniq {
			return descInt(a.uniq, b.uniq)
		}
		return descFloat(a.maxPos, b.maxPos)
	case TieBreakStrength:
		if a.maxPos != b.maxPos {
			return descFloat(a.maxPos, b.maxPos)
		}
		return descInt(a.uniq, b.uniq)
	case TieBreakIdentity:
		for t := 0; t < 4; t++ {
			if a.tiers[t] != b.tiers[t] {
				if a.tiers[t] {
					return -1
				}
				return 1
			}
		}
		if a.uniq != b.uniq {
			return descInt(a.uniq, b.uniq)
		}
		return descFloat(a.maxPos, b.maxPos)
	default:
		return 0
	}
}

func descInt(a, b int) int {
	switch {
	case a > b:
		return -1
	case a < b:
		return 1
	default:
		return 0
	}
}

func descFloat(a, b float64) int {
	switch {
	case a > b:
		return -1
	case a < b:
		return 1
	default:
		return 0
	}
}
