// Similaria - Catalog Similar-Items Recommendation Service
// Copyright 2026 Hondana Dev
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hondana-dev/similaria

package catalog

// MatchOp is a property comparison operator understood by the store.
// The values are the Omeka-S query types.
type MatchOp string

const (
	// MatchEquals matches the exact property value.
	MatchEquals MatchOp = "eq"

	// MatchStartsWith matches values beginning with the text.
	MatchStartsWith MatchOp = "sw"

	// MatchContains matches values containing the text.
	MatchContains MatchOp = "in"
)

// PropertyFilter restricts a search to items whose property matches.
// Filters within a query are AND-combined.
type PropertyFilter struct {
	Term string
	Op   MatchOp
	Text string
}

// Query describes an item search against the store.
// Zero values mean "unrestricted" for their dimension.
type Query struct {
	Properties  []PropertyFilter
	Collections []int64
	SiteID      int64

	// Limit caps the number of returned items. Page/PerPage select a
	// result window instead; the two styles are mutually exclusive.
	Limit   int
	Page    int
	PerPage int
}
