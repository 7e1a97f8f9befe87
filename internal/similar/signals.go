// Similaria - Catalog Similar-Items Recommendation Service
// Copyright 2026 Hondana Dev
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hondana-dev/similaria

package similar

import (
	"github.com/hondana-dev/similaria/internal/catalog"
)

// Signals are the metadata facets extracted from the seed item. Unmapped
// fields stay zero-valued and drop out of every later stage.
type Signals struct {
	BibID string
	NCID  string

	AuthorIDs       []string
	AuthorizedNames []string
	Subjects        []string
	SeriesTitles    []string
	Publishers      []string

	Call     string
	Class    string
	Location string
	Issued   string
	Material string
	Viewing  string
}

// ExtractSignals reads the mapped property values off an item.
// Single-valued signals take the first value; multi-valued signals take
// all non-empty values in catalog order.
func ExtractSignals(item *catalog.Item, fields FieldMap) Signals {
	return Signals{
		BibID:           item.FirstValue(fields.BibID),
		NCID:            item.FirstValue(fields.NCID),
		AuthorIDs:       item.Values(fields.AuthorID),
		AuthorizedNames: item.Values(fields.AuthorizedName),
		Subjects:        item.Values(fields.Subject),
		SeriesTitles:    item.Values(fields.SeriesTitle),
		Publishers:      item.Values(fields.Publisher),
		Call:            item.FirstValue(fields.CallNumber),
		Class:           item.FirstValue(fields.ClassNumber),
		Location:        item.FirstValue(fields.Location),
		Issued:          item.FirstValue(fields.Issued),
		Material:        item.FirstValue(fields.MaterialType),
		Viewing:         item.FirstValue(fields.ViewingDirection),
	}
}

// uniqueNonEmpty dedupes a value list preserving order, dropping empties.
func uniqueNonEmpty(vals []string) []string {
	seen := make(map[string]bool, len(vals))
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// intersectCount counts the distinct values shared by two lists after
// deduplication.
func intersectCount(a, b []string) int {
	set := make(map[string]bool, len(a))
	for _, v := range uniqueNonEmpty(a) {
		set[v] = true
	}
	n := 0
	for _, v := range uniqueNonEmpty(b) {
		if set[v] {
			n++
		}
	}
	return n
}
