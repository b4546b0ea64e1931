// Retention - Mobile Analytics Retention Pipeline and Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retention

// Package pipeline runs the warehouse-to-store ETL.
//
// One run:
//
//	ping the store, discover tables (prefix + length filter, listing order)
//	for each table, sequentially:
//	    scan pages -> project installs/sessions
//	    reconcile installs of each page immediately
//	    buffer projected sessions, reconcile them after the last page
//	    record TableStats, mark the table completed in the Checkpoint
//	    unless a record failed
//	finish: status, metrics, persist RunSummary
//
// A failed table is recorded and the run moves on unless
// Options.AbortOnTableError is set. Sessions of a table whose scan failed
// are not reconciled; the next run rescans the whole table.
//
// Runner serializes runs from the scheduler and the HTTP API. Only one run
// is active per process; a concurrent request gets ErrRunInProgress.
//
// Example:
//
//	orch := pipeline.NewOrchestrator(client, db, checkpoint, opts, logger)
//	runner := pipeline.NewRunner(orch, last, logger)
//	summary, err := runner.Run(ctx, pipeline.RunOptions{})
package pipeline
