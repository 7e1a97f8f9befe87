// Similaria - Catalog Similar-Items Recommendation Service
// Copyright 2026 Hondana Dev
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hondana-dev/similaria

// Package validation wraps go-playground/validator v10 behind a small,
// thread-safe API for validating inbound request structs.
//
// The validator instance is a lazily initialized singleton so compiled
// struct metadata is cached across requests. Validation failures are
// translated into the API's VALIDATION_ERROR shape via
// RequestValidationError.ToAPIError, keeping handler code to a single
// call:
//
//	type SimilarRequest struct {
//	    Limit    int    `validate:"min=0,max=200"`
//	    TieBreak string `validate:"omitempty,oneof=none consensus strength identity"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
//	    return
//	}
//
// Error messages are produced by a local translation table rather than
// the library's universal translator. The table covers the tags used by
// this service's request structs; unknown tags fall back to a generic
// "failed <tag> validation" message.
package validation
