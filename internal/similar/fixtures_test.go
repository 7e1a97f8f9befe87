// Similaria - Catalog Similar-Items Recommendation Service
// Copyright 2026 Hondana Dev
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hondana-dev/similaria

package similar

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/hondana-dev/similaria/internal/catalog"
)

// testFields maps every signal to a distinct term so tests never see
// cross-talk between, say, subject overlap and class parsing.
func testFields() FieldMap {
	return FieldMap{
		BibID:          "cat:bibid",
		NCID:           "cat:ncid",
		AuthorID:       "cat:authorId",
		AuthorizedName: "dcndl:creator",
		Subject:        "dc:subject",
		SeriesTitle:    "dcndl:seriesTitle",
		Publisher:      "dc:publisher",
		CallNumber:     "dcndl:callNumber",
		ClassNumber:    "cat:class",
		Location:       "dcndl:location",
		Issued:         "dcterms:issued",
		MaterialType:   "dcndl:materialType",
	}
}

// mkItem builds a catalog item with a modified time that increases with
// the ID, so recency tie-breaks are predictable.
func mkItem(id int64, title string, props map[string][]string, colls ...int64) catalog.Item {
	return catalog.Item{
		ID:          id,
		Title:       title,
		Modified:    time.Unix(1700000000+id, 0),
		Collections: colls,
		Properties:  props,
	}
}

// memStore is an in-memory Store that understands the query shapes the
// generator and engine emit. Site membership is opt-in: with a non-empty
// sites map, site-scoped queries only return listed items.
type memStore struct {
	mu      sync.Mutex
	items   []catalog.Item
	sites   map[int64][]int64 // item ID -> site IDs
	queries []catalog.Query

	getErr   error
	failNext int // number of SearchItems calls to fail before succeeding
}

func (s *memStore) GetItem(_ context.Context, id int64) (*catalog.Item, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	for i := range s.items {
		if s.items[i].ID == id {
			it := s.items[i]
			return &it, nil
		}
	}
	return nil, context.Canceled
}

func (s *memStore) SearchItems(_ context.Context, q catalog.Query) ([]catalog.Item, error) {
	s.mu.Lock()
	s.queries = append(s.queries, q)
	fail := s.failNext > 0
	if fail {
		s.failNext--
	}
	s.mu.Unlock()
	if fail {
		return nil, context.DeadlineExceeded
	}

	var out []catalog.Item
	for _, it := range s.items {
		if s.matches(it, q) {
			out = append(out, it)
		}
	}
	if q.PerPage > 0 {
		page := q.Page
		if page < 1 {
			page = 1
		}
		start := (page - 1) * q.PerPage
		if start >= len(out) {
			return nil, nil
		}
		end := start + q.PerPage
		if end > len(out) {
			end = len(out)
		}
		out = out[start:end]
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (s *memStore) CountItems(_ context.Context, q catalog.Query) (int, error) {
	n := 0
	for _, it := range s.items {
		if s.matches(it, q) {
			n++
		}
	}
	return n, nil
}

func (s *memStore) matches(it catalog.Item, q catalog.Query) bool {
	if q.SiteID > 0 && len(s.sites) > 0 {
		ok := false
		for _, sid := range s.sites[it.ID] {
			if sid == q.SiteID {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if len(q.Collections) > 0 {
		ok := false
		for _, want := range q.Collections {
			if it.InCollection(want) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	for _, f := range q.Properties {
		if !matchesFilter(it, f) {
			return false
		}
	}
	return true
}

func matchesFilter(it catalog.Item, f catalog.PropertyFilter) bool {
	for _, v := range it.Values(f.Term) {
		switch f.Op {
		case catalog.MatchEquals:
			if v == f.Text {
				return true
			}
		case catalog.MatchStartsWith:
			if strings.HasPrefix(v, f.Text) {
				return true
			}
		case catalog.MatchContains:
			if strings.Contains(v, f.Text) {
				return true
			}
		}
	}
	return false
}

func (s *memStore) searchCalls() []catalog.Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]catalog.Query, len(s.queries))
	copy(out, s.queries)
	return out
}
