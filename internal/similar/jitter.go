// Similaria - Catalog Similar-Items Recommendation Service
// Copyright 2026 Hondana Dev
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hondana-dev/similaria

package similar

import (
	"math"
	"math/rand"
)

// jitterSample draws limit candidates from the top of the ranked list by
// weighted sampling without replacement.
//
// The pool holds the top min(len, max(limit, ceil(limit*poolMul)))
// candidates. Each weight is (score - min) + 1.0 where min starts at zero
// and only ever decreases, so every weight is at least 1.0 and negatively
// scored stragglers still have a chance. A degenerate weight sum falls
// back to a uniform draw.
func jitterSample(cands []*candidate, limit int, poolMul float64, rng *rand.Rand) []*candidate {
	if limit <= 0 || len(cands) <= limit {
		return cands
	}
	poolSize := limit
	if p := int(math.Ceil(float64(limit) * poolMul)); p > poolSize {
		poolSize = p
	}
	if poolSize > len(cands) {
		poolSize = len(cands)
	}

	pool := make([]*candidate, poolSize)
	copy(pool, cands[:poolSize])

	minScore := 0.0
	for _, c := range pool {
		if c.score < minScore {
			minScore = c.score
		}
	}
	weights := make([]float64, len(pool))
	for i, c := range pool {
		weights[i] = (c.score - minScore) + 1.0
	}

	picked := make([]*candidate, 0, limit)
	for i := 0; i < limit && len(pool) > 0; i++ {
		sum := 0.0
		for _, w := range weights {
			sum += w
		}
		var chosen int
		if sum <= 0 {
			chosen = rng.Intn(len(pool))
		} else {
			r := rng.Float64() * sum
			acc := 0.0
			for idx, w := range weights {
				acc += w
				if acc >= r {
					chosen = idx
					break
				}
			}
		}
		picked = append(picked, pool[chosen])
		pool = append(pool[:chosen], pool[chosen+1:]...)
		weights = append(weights[:chosen], weights[chosen+1:]...)
	}
	return picked
}
