// Retention - Mobile Analytics Retention Pipeline and Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retention

package api

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/retention/internal/cache"
	"github.com/tomtom215/retention/internal/models"
	"github.com/tomtom215/retention/internal/pipeline"
)

// Store is the read side of the relational store used by the API.
type Store interface {
	RetentionMetrics(ctx context.Context, q models.RetentionQuery) ([]models.RetentionMetric, error)
	UniqueFilters(ctx context.Context) (*models.FilterFacets, error)
	SessionDateRange(ctx context.Context) (*models.SessionDateRange, error)
	Ping(ctx context.Context) error
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PipelineRunner starts runs and reports their status. *pipeline.Runner
// implements it.
type PipelineRunner interface {
	Start(opts pipeline.RunOptions) error
	Status() pipeline.Status
	OnComplete(fn func(*pipeline.RunSummary))
}

// Handler serves the API endpoints.
type Handler struct {
	store     Store
	warehouse Pinger
	runner    PipelineRunner
	cache     *cache.Cache
	logger    zerolog.Logger

	readyTimeout time.Duration
	startTime    time.Time
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithWarehouse adds the warehouse to the readiness check.
func WithWarehouse(p Pinger) HandlerOption {
	return func(h *Handler) { h.warehouse = p }
}

// WithRunner enables the pipeline endpoints.
func WithRunner(r PipelineRunner) HandlerOption {
	return func(h *Handler) { h.runner = r }
}

// WithCache enables response caching. The cache is cleared after every
// completed pipeline run when a runner is also configured.
func WithCache(c *cache.Cache) HandlerOption {
	return func(h *Handler) { h.cache = c }
}

// WithReadyTimeout bounds each readiness probe.
func WithReadyTimeout(d time.Duration) HandlerOption {
	return func(h *Handler) { h.readyTimeout = d }
}

// NewHandler creates a handler over store.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewHandler(store Store, logger zerolog.Logger, opts ...HandlerOption) *Handler {
	h := &Handler{
		store:        store,
		logger:       logger,
		readyTimeout: 5 * time.Second,
		startTime:    time.Now(),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.runner != nil && h.cache != nil {
		h.runner.OnComplete(h.invalidateCache)
	}
	return h
}

func (h *Handler) invalidateCache(summary *pipeline.RunSummary) {
	h.cache.Clear()
	h.logger.Debug().Str("run_id", summary.RunID).Msg("Response cache cleared after pipeline run")
}

// cached returns the cached value of key, or computes, caches and returns it.
// hit reports whether the value came from the cache.
func cached[T any](h *Handler, key string, fn func() (T, error)) (value T, hit bool, err error) {
	if h.cache != nil {
		if v, ok := h.cache.Get(key); ok {
			if typed, ok := v.(T); ok {
				return typed, true, nil
			}
		}
	}
	value, err = fn()
	if err != nil {
		return value, false, err
	}
	if h.cache != nil {
		h.cache.Set(key, value)
	}
	return value, false, nil
}
