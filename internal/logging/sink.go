// Retention - Mobile Analytics Retention Pipeline and Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retention

package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// RunSink is a per-run log file. Every pipeline run that opens one must close
// it on all exit paths; Close is idempotent.
type RunSink struct {
	mu     sync.Mutex
	file   *os.File
	path   string
	closed bool
}

// OpenRunSink creates <dir>/<prefix>_<timestamp>.log. The timestamp is UTC
// RFC3339 with colons replaced so the name is portable.
func OpenRunSink(dir, prefix string, now time.Time) (*RunSink, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create log dir %s: %w", dir, err)
	}
	stamp := strings.ReplaceAll(now.UTC().Format(time.RFC3339), ":", "-")
	path := filepath.Join(dir, fmt.Sprintf("%s_%s.log", prefix, stamp))

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640) //nolint:gosec // path built from config dir
	if err != nil {
		return nil, fmt.Errorf("open run log %s: %w", path, err)
	}
	return &RunSink{file: f, path: path}, nil
}

// Path returns the file path of the sink.
func (s *RunSink) Path() string {
	return s.path
}

// Write implements io.Writer. Writes after Close are dropped.
func (s *RunSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return len(p), nil
	}
	return s.file.Write(p)
}

// Close flushes and closes the file.
func (s *RunSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.file.Sync(); err != nil {
		_ = s.file.Close()
		return fmt.Errorf("sync run log: %w", err)
	}
	return s.file.Close()
}

// Tee returns a copy of logger that also writes to w. The sink receives plain
// JSON lines regardless of the console format of the global logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func Tee(logger zerolog.Logger, w io.Writer) zerolog.Logger {
	if w == nil {
		return logger
	}
	mu.RLock()
	primary := output
	mu.RUnlock()
	if primary == nil {
		primary = os.Stderr
	}
	return logger.Output(zerolog.MultiLevelWriter(primary, w))
}
