// Similaria - Catalog Similar-Items Recommendation Service
// Copyright 2026 Hondana Dev
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hondana-dev/similaria

package catalog

import (
	"strings"
	"time"
)

// Item is a catalog record with its descriptive metadata.
//
// Properties maps a property term (e.g. "dcterms:subject") to the raw
// string values recorded for it, in catalog order. Values are stored as
// received; trimming happens on access.
type Item struct {
	ID          int64               `json:"id"`
	Title       string              `json:"title"`
	Modified    time.Time           `json:"modified"`
	Collections []int64             `json:"collections,omitempty"`
	Properties  map[string][]string `json:"properties,omitempty"`
}

// FirstValue returns the first value of the term, trimmed.
// Returns "" when the term is unmapped, absent, or blank.
func (it *Item) FirstValue(term string) string {
	if term == "" {
		return ""
	}
	vals := it.Properties[term]
	if len(vals) == 0 {
		return ""
	}
	return strings.TrimSpace(vals[0])
}

// Values returns all non-empty trimmed values of the term.
func (it *Item) Values(term string) []string {
	if term == "" {
		return nil
	}
	raw := it.Properties[term]
	if len(raw) == 0 {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s := strings.TrimSpace(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// InCollection reports whether the item belongs to the given collection.
func (it *Item) InCollection(id int64) bool {
	for _, c := range it.Collections {
		if c == id {
			return true
		}
	}
	return false
}

// SharesCollection reports whether the item belongs to any collection in ids.
func (it *Item) SharesCollection(ids map[int64]bool) bool {
	for _, c := range it.Collections {
		if ids[c] {
			return true
		}
	}
	return false
}
