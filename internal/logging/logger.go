// Retention - Mobile Analytics Retention Pipeline and Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retention

// Package logging provides centralized zerolog-based logging for the retention
// pipeline and API.
//
// The package provides:
//
//   - Structured JSON output for production, console output for development
//   - Component loggers that are injected into pipeline stages
//   - Context loggers tagged with request, run and table ids
//   - A per-run file sink that mirrors pipeline diagnostics to disk
//
// # Quick Start
//
//	logging.Init(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	logger := logging.WithComponent("pipeline")
//	logger.Info().Str("table", id).Msg("Scanning table")
//	logging.Success(&logger).Int("inserted", n).Msg("Table reconciled")
//
// # Levels
//
// Run diagnostics use five levels: info, success, warning, error and debug.
// success is emitted at info level with outcome=success so that it survives
// any level filter that keeps info.
package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logging configuration.
type Config struct {
	// Level is the minimum level name; see ValidLevel. Default: info
	Level string

	// Format is json or console. Default: json
	Format string

	// Caller adds file:line to every entry.
	Caller bool

	// Timestamp adds the time field. Default: true
	Timestamp bool

	// Output defaults to os.Stderr.
	Output io.Writer
}

// DefaultConfig returns JSON output at info level on stderr.
func DefaultConfig() Config {
	return Config{Level: "info", Format: "json", Timestamp: true, Output: os.Stderr}
}

// levels maps accepted level names, including the run-log aliases
// "success" and "warning", to zerolog levels.
var levels = map[string]zerolog.Level{
	"trace":    zerolog.TraceLevel,
	"debug":    zerolog.DebugLevel,
	"info":     zerolog.InfoLevel,
	"success":  zerolog.InfoLevel,
	"warn":     zerolog.WarnLevel,
	"warning":  zerolog.WarnLevel,
	"error":    zerolog.ErrorLevel,
	"fatal":    zerolog.FatalLevel,
	"panic":    zerolog.PanicLevel,
	"disabled": zerolog.Disabled,
}

const consoleTimeFormat = "15:04:05"

var (
	mu     sync.RWMutex
	global zerolog.Logger
	// output is the writer under the global logger, after console
	// formatting. Run sinks tee against it.
	output io.Writer
)

//nolint:gochecknoinits // logging works before Init is called
func init() {
	configure(DefaultConfig())
}

// Init (re)configures the global logger.
func Init(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	configure(cfg)
}

// configure requires mu held.
func configure(cfg Config) {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	zerolog.SetGlobalLevel(parseLevel(cfg.Level))
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.TimestampFieldName = "time"
	zerolog.MessageFieldName = "message"

	output = cfg.Output
	if cfg.Format == "console" {
		output = zerolog.ConsoleWriter{Out: cfg.Output, TimeFormat: consoleTimeFormat}
	}

	lc := zerolog.New(output).With()
	if cfg.Timestamp {
		lc = lc.Timestamp()
	}
	if cfg.Caller {
		lc = lc.Caller()
	}
	global = lc.Logger()
}

// parseLevel falls back to info for unknown names.
func parseLevel(name string) zerolog.Level {
	if lvl, ok := levels[strings.ToLower(name)]; ok {
		return lvl
	}
	return zerolog.InfoLevel
}

// ValidLevel reports whether name is accepted by Init.
func ValidLevel(name string) bool {
	_, ok := levels[strings.ToLower(name)]
	return ok
}

// Logger returns a copy of the global logger.
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}

// SetLogger replaces the global logger. Tests use it to capture output.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func SetLogger(l zerolog.Logger) {
	mu.Lock()
	defer mu.Unlock()
	global = l
}

// WithComponent returns a child of the global logger tagged with component.
//
//	logger := logging.WithComponent("reconcile")
func WithComponent(component string) zerolog.Logger {
	l := Logger()
	return l.With().Str("component", component).Logger()
}

func event(level zerolog.Level) *zerolog.Event {
	l := Logger()
	return l.WithLevel(level)
}

// Debug starts a debug entry on the global logger.
func Debug() *zerolog.Event { return event(zerolog.DebugLevel) }

// Info starts an info entry on the global logger.
func Info() *zerolog.Event { return event(zerolog.InfoLevel) }

// Warn starts a warning entry on the global logger.
func Warn() *zerolog.Event { return event(zerolog.WarnLevel) }

// Error starts an error entry on the global logger.
func Error() *zerolog.Event { return event(zerolog.ErrorLevel) }

// Fatal logs at fatal level and exits the process once Msg is called.
func Fatal() *zerolog.Event {
	l := Logger()
	return l.Fatal()
}

// Success starts an info entry marked outcome=success, the run log's
// success level.
//
//	logging.Success(&logger).Int("inserted", n).Msg("=> installs reconciled")
func Success(l *zerolog.Logger) *zerolog.Event {
	return l.Info().Str("outcome", "success")
}

// NewTestLogger returns a JSON logger writing to w.
func NewTestLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Logger()
}
