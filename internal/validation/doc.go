// Retention - Mobile Analytics Retention Pipeline and Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retention

// Package validation wraps go-playground/validator v10 for API requests.
//
// A single validator instance is shared; it caches struct metadata and is
// safe for concurrent use. Fields are reported by their `query` tag name so
// messages match the request parameters.
//
// Custom tags:
//
//	isodate   YYYY-MM-DD or RFC3339 (see ParseDate)
//
// Usage:
//
//	type RetentionRequest struct {
//	    DateFrom  string   `query:"dateFrom" validate:"omitempty,isodate"`
//	    Platforms []string `query:"platforms" validate:"max=50,dive,min=1,max=64"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
//	}
package validation
