// Retention - Mobile Analytics Retention Pipeline and Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retention

package api

import (
	"net/http"

	"github.com/tomtom215/retention/internal/cache"
	"github.com/tomtom215/retention/internal/models"
	"github.com/tomtom215/retention/internal/validation"
)

// Retention handles GET /api/v1/retention.
//
// Query parameters: dateFrom, dateTo (YYYY-MM-DD or RFC3339, install date,
// inclusive), platforms, countries (repeated or comma separated).
// Responds with total-users followed by D1, D7, D14, D21 and D30 retention.
func (h *Handler) Retention(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	req := parseRetentionRequest(r.URL.Query())
	if verr := validation.ValidateStruct(&req); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}
	q, msg := req.Query()
	if msg != "" {
		rw.ValidationError(msg, nil)
		return
	}

	key := cache.GenerateKey("retention", cacheKeyFor(q))
	metrics, hit, err := cached(h, key, func() ([]models.RetentionMetric, error) {
		return h.store.RetentionMetrics(r.Context(), q)
	})
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	respond(rw, metrics, hit)
}

// Filters handles GET /api/v1/filters.
func (h *Handler) Filters(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	facets, hit, err := cached(h, "filters", func() (*models.FilterFacets, error) {
		return h.store.UniqueFilters(r.Context())
	})
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	respond(rw, facets, hit)
}

// SessionDateRange handles GET /api/v1/sessions/date-range.
func (h *Handler) SessionDateRange(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	rng, hit, err := cached(h, "session_date_range", func() (*models.SessionDateRange, error) {
		return h.store.SessionDateRange(r.Context())
	})
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	respond(rw, rng, hit)
}

func respond(rw *ResponseWriter, data any, hit bool) {
	if hit {
		rw.Cached(data)
		return
	}
	rw.Success(data)
}
