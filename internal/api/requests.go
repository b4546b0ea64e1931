// Retention - Mobile Analytics Retention Pipeline and Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retention

package api

import (
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/tomtom215/retention/internal/models"
	"github.com/tomtom215/retention/internal/pipeline"
	"github.com/tomtom215/retention/internal/validation"
)

// RetentionRequest holds the query parameters of GET /api/v1/retention.
type RetentionRequest struct {
	DateFrom  string   `query:"dateFrom" validate:"omitempty,isodate"`
	DateTo    string   `query:"dateTo" validate:"omitempty,isodate"`
	Platforms []string `query:"platforms" validate:"max=50,dive,min=1,max=64"`
	Countries []string `query:"countries" validate:"max=250,dive,min=1,max=128"`
}

// retentionCacheKey is the normalized form used for cache keys.
type retentionCacheKey struct {
	From      string   `json:"from"`
	To        string   `json:"to"`
	Platforms []string `json:"platforms"`
	Countries []string `json:"countries"`
}

// parseRetentionRequest reads the query parameters. List parameters may be
// repeated (platforms=ios&platforms=android), comma separated, or both.
func parseRetentionRequest(q url.Values) RetentionRequest {
	return RetentionRequest{
		DateFrom:  strings.TrimSpace(q.Get("dateFrom")),
		DateTo:    strings.TrimSpace(q.Get("dateTo")),
		Platforms: listParam(q, "platforms"),
		Countries: listParam(q, "countries"),
	}
}

// listParam merges repeated and comma-separated values, trimmed, sorted and
// deduplicated. Empty items are dropped.
func listParam(q url.Values, key string) []string {
	var out []string
	for _, raw := range q[key] {
		for _, part := range strings.Split(raw, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// Query converts a validated request into a store query. Returns a
// user-facing message when dateFrom is after dateTo.
func (req RetentionRequest) Query() (models.RetentionQuery, string) {
	var q models.RetentionQuery
	if req.DateFrom != "" {
		q.DateFrom, _ = validation.ParseDate(req.DateFrom)
	}
	if req.DateTo != "" {
		q.DateTo, _ = validation.ParseDate(req.DateTo)
	}
	if !q.DateFrom.IsZero() && !q.DateTo.IsZero() && q.DateFrom.After(q.DateTo) {
		return q, "dateFrom must not be after dateTo"
	}
	q.Platforms = req.Platforms
	q.Countries = req.Countries
	return q, ""
}

func cacheKeyFor(q models.RetentionQuery) retentionCacheKey {
	k := retentionCacheKey{Platforms: q.Platforms, Countries: q.Countries}
	if !q.DateFrom.IsZero() {
		k.From = q.DateFrom.Format(validation.DateLayout)
	}
	if !q.DateTo.IsZero() {
		k.To = q.DateTo.Format(validation.DateLayout)
	}
	return k
}

// PipelineRunRequest is the optional JSON body of POST /api/v1/pipeline/run.
type PipelineRunRequest struct {
	Table  string `json:"table" validate:"omitempty,max=64"`
	DryRun bool   `json:"dry_run"`
}

func (req PipelineRunRequest) options() pipeline.RunOptions {
	return pipeline.RunOptions{Table: req.Table, DryRun: req.DryRun}
}

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 4 << 10

func limitBody(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
}
