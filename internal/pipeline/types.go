// Retention - Mobile Analytics Retention Pipeline and Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retention

package pipeline

import (
	"time"

	"github.com/tomtom215/retention/internal/reconcile"
)

// Run status values.
const (
	StatusRunning = "running"
	StatusSuccess = "success"
	StatusPartial = "partial"
	StatusFailed  = "failed"
)

// RunOptions restricts a single run.
type RunOptions struct {
	// Table limits the run to one discovered table id.
	Table string `json:"table,omitempty"`

	// DryRun projects and reconciles against an in-memory overlay of the
	// store; nothing is written.
	DryRun bool `json:"dry_run"`
}

// TableStats is the outcome of one table.
type TableStats struct {
	Table string `json:"table"`

	Pages       int   `json:"pages"`
	RowsScanned int64 `json:"rows_scanned"`

	Installs   int   `json:"installs"`
	Sessions   int   `json:"sessions"`
	Incomplete int64 `json:"incomplete"`

	Reconcile reconcile.Stats `json:"reconcile"`

	Duration time.Duration `json:"duration_ns"`
	Skipped  bool          `json:"skipped,omitempty"`
	Err      string        `json:"error,omitempty"`

	MemoryBefore MemorySnapshot `json:"memory_before"`
	MemoryAfter  MemorySnapshot `json:"memory_after"`
}

// Failed reports whether the table ended with an error.
func (t TableStats) Failed() bool {
	return t.Err != ""
}

// RunSummary is the outcome of one run.
type RunSummary struct {
	RunID      string       `json:"run_id"`
	Status     string       `json:"status"`
	Options    RunOptions   `json:"options"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at,omitempty"`
	Tables     []TableStats `json:"tables"`

	Discovered  int             `json:"tables_discovered"`
	RowsScanned int64           `json:"rows_scanned"`
	Totals      reconcile.Stats `json:"totals"`

	LogFile string `json:"log_file,omitempty"`
	Err     string `json:"error,omitempty"`
}

// Duration returns the wall-clock time of the run so far.
func (s *RunSummary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return time.Since(s.StartedAt)
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// FailedTables returns the number of tables that ended with an error.
func (s *RunSummary) FailedTables() int {
	n := 0
	for _, t := range s.Tables {
		if t.Failed() {
			n++
		}
	}
	return n
}

// finish sets the final status from the table outcomes.
func (s *RunSummary) finish(now time.Time) {
	s.FinishedAt = now
	switch {
	case s.Err != "":
		s.Status = StatusFailed
	case s.FailedTables() > 0 || s.Totals.Failures() > 0:
		s.Status = StatusPartial
	default:
		s.Status = StatusSuccess
	}
}
