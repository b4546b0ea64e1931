// Retention - Mobile Analytics Retention Pipeline and Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retention

package logging

import (
	"context"

	"github.com/rs/zerolog"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	runIDKey
	tableKey
	loggerKey
)

// Log field names shared by HTTP handlers and pipeline stages.
const (
	FieldRequestID = "request_id"
	FieldRunID     = "run_id"
	FieldTable     = "table"
)

// ContextWithRequestID tags ctx with the id of the HTTP request being served.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the request id of ctx, or "".
func RequestIDFromContext(ctx context.Context) string {
	return stringValue(ctx, requestIDKey)
}

// ContextWithRunID tags ctx with a pipeline run id.
//
//	ctx = logging.ContextWithRunID(ctx, summary.RunID)
func ContextWithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext returns the pipeline run id of ctx, or "".
func RunIDFromContext(ctx context.Context) string {
	return stringValue(ctx, runIDKey)
}

// ContextWithTable tags ctx with the warehouse table being processed.
func ContextWithTable(ctx context.Context, table string) context.Context {
	return context.WithValue(ctx, tableKey, table)
}

// TableFromContext returns the table of ctx, or "".
func TableFromContext(ctx context.Context) string {
	return stringValue(ctx, tableKey)
}

func stringValue(ctx context.Context, key ctxKey) string {
	s, _ := ctx.Value(key).(string)
	return s
}

// ContextWithLogger stores logger in ctx for Ctx to pick up.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func ContextWithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// LoggerFromContext returns the logger stored in ctx, falling back to the
// global logger.
func LoggerFromContext(ctx context.Context) zerolog.Logger {
	if logger, ok := ctx.Value(loggerKey).(zerolog.Logger); ok {
		return logger
	}
	return Logger()
}

// Ctx returns the context logger with every id tag of ctx attached.
//
//	logging.Ctx(r.Context()).Error().Err(err).Msg("Query failed")
func Ctx(ctx context.Context) *zerolog.Logger {
	lc := LoggerFromContext(ctx).With()
	for _, f := range []struct {
		key   ctxKey
		field string
	}{
		{requestIDKey, FieldRequestID},
		{runIDKey, FieldRunID},
		{tableKey, FieldTable},
	} {
		if v := stringValue(ctx, f.key); v != "" {
			lc = lc.Str(f.field, v)
		}
	}
	l := lc.Logger()
	return &l
}
