// Retention - Mobile Analytics Retention Pipeline and Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retention

package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/retention/internal/pipeline"
	"github.com/tomtom215/retention/internal/validation"
)

// PipelineRun handles POST /api/v1/pipeline/run. The body is optional:
// {"table": "events_20240101", "dry_run": true}. A run is started in the
// background and 202 is returned; 409 if a run is already active.
func (h *Handler) PipelineRun(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.runner == nil {
		rw.ServiceUnavailable("Pipeline control is not enabled")
		return
	}

	var req PipelineRunRequest
	limitBody(w, r)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		rw.BadRequest("Request body must be a JSON object")
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	if err := h.runner.Start(req.options()); err != nil {
		if errors.Is(err, pipeline.ErrRunInProgress) {
			rw.Conflict("A pipeline run is already in progress")
			return
		}
		rw.Unavailable(err)
		return
	}

	h.logger.Info().
		Str("table", req.Table).
		Bool("dry_run", req.DryRun).
		Msg("Pipeline run started via API")
	rw.Accepted(h.runner.Status())
}

// PipelineStatus handles GET /api/v1/pipeline/status.
func (h *Handler) PipelineStatus(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.runner == nil {
		rw.ServiceUnavailable("Pipeline control is not enabled")
		return
	}
	rw.Success(h.runner.Status())
}
