// Retention - Mobile Analytics Retention Pipeline and Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retention

package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// LivenessResponse is the body of /health/live.
type LivenessResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// ReadinessResponse is the body of /health/ready.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// HealthLive handles GET /api/v1/health/live. It only reports that the
// process serves HTTP.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(LivenessResponse{
		Status:        "alive",
		UptimeSeconds: time.Since(h.startTime).Seconds(),
	})
}

// HealthReady handles GET /api/v1/health/ready. The store and, when
// configured, the warehouse are pinged concurrently; any failure yields 503.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	ctx, cancel := context.WithTimeout(r.Context(), h.readyTimeout)
	defer cancel()

	var mu sync.Mutex
	checks := map[string]string{}
	record := func(name string, err error) error {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			checks[name] = "unavailable"
			return fmt.Errorf("%s: %w", name, err)
		}
		checks[name] = "ok"
		return nil
	}

	// Plain Group: every probe runs to completion so all checks are reported.
	var g errgroup.Group
	g.Go(func() error { return record("database", h.store.Ping(ctx)) })
	if h.warehouse != nil {
		g.Go(func() error { return record("warehouse", h.warehouse.Ping(ctx)) })
	}

	if err := g.Wait(); err != nil {
		h.logger.Warn().Err(err).Msg("Readiness check failed")
		rw.ErrorWithDetails(http.StatusServiceUnavailable, ErrCodeServiceUnavailable,
			"Service not ready", ReadinessResponse{Status: "not_ready", Checks: checks})
		return
	}
	rw.Success(ReadinessResponse{Status: "ready", Checks: checks})
}
