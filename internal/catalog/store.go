// Similaria - Catalog Similar-Items Recommendation Service
// Copyright 2026 Hondana Dev
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hondana-dev/similaria

package catalog

import (
	"context"
	"errors"
)

// ErrNotFound reports that the catalog has no item with the requested ID.
var ErrNotFound = errors.New("item not found")

// Store is the read-only boundary to the catalog.
//
// Implementations must treat all methods as safe for concurrent use.
type Store interface {
	// GetItem fetches a single item by ID.
	GetItem(ctx context.Context, id int64) (*Item, error)

	// SearchItems returns items matching the query.
	SearchItems(ctx context.Context, q Query) ([]Item, error)

	// CountItems returns the total number of items matching the query,
	// ignoring any Limit/Page/PerPage window.
	CountItems(ctx context.Context, q Query) (int, error)
}
