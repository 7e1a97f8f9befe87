// Similaria - Catalog Similar-Items Recommendation Service
// Copyright 2026 Hondana Dev
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hondana-dev/similaria

// Package similar implements the similar-items recommendation engine.
//
// Given a seed item, the engine extracts metadata signals, collects a
// candidate pool from the catalog store, scores candidates by weighted
// signal overlap, ranks them with configurable tie-breaking, diversifies
// by normalized base title, and optionally jitters the final order with
// weighted sampling. Every stage degrades gracefully: store failures
// shrink the pool instead of failing the request.
package similar
