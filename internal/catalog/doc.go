// Similaria - Catalog Similar-Items Recommendation Service
// Copyright 2026 Hondana Dev
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hondana-dev/similaria

// Package catalog defines the item model and the read-only boundary to the
// external catalog store, plus an HTTP client for Omeka-S-compatible APIs.
//
// The engine never talks to the store directly; it goes through the Store
// interface so tests can substitute an in-memory implementation.
package catalog
