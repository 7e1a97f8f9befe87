// Similaria - Catalog Similar-Items Recommendation Service
// Copyright 2026 Hondana Dev
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hondana-dev/similaria

package similar

// diversify applies the same-title policy to the ranked pool.
//
// Allow keeps the pool untouched. The exclude modes first drop every
// candidate sharing the seed's base title, then pick one candidate per
// base title up to the limit, then backfill with the remaining candidates
// when the limit is not reached. Candidates without a base title always
// pass the one-per-title rule.
func diversify(cands []*candidate, seedBase string, mode SameTitleMode, limit int) []*candidate {
	if mode == SameTitleAllow {
		return cands
	}

	preferred := make([]*candidate, 0, len(cands))
	for _, c := range cands {
		if seedBase != "" && c.baseTitle != "" && c.baseTitle == seedBase {
			continue
		}
		preferred = append(preferred, c)
	}

	out := make([]*candidate, 0, limit)
	seenBases := make(map[string]bool)
	for _, c := range preferred {
		if limit > 0 && len(out) >= limit {
			break
		}
		if c.baseTitle != "" {
			if seenBases[c.baseTitle] {
				continue
			}
			seenBases[c.baseTitle] = true
		}
		out = append(out, c)
	}

	if limit <= 0 || len(out) < limit {
		taken := make(map[int64]bool, len(out))
		for _, c := range out {
			taken[c.item.ID] = true
		}
		for _, c := range preferred {
			if limit > 0 && len(out) >= limit {
				break
			}
			if taken[c.item.ID] {
				continue
			}
			taken[c.item.ID] = true
			out = append(out, c)
		}
	}
	return out
}
