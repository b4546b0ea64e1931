// Retention - Mobile Analytics Retention Pipeline and Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retention

// Package main runs the pipeline once and exits.
//
// It discovers the daily event tables of the configured BigQuery dataset,
// reconciles installs and sessions into the relational store and writes a
// run log to pipeline.log_dir when set.
//
// Usage:
//
//	retention-pipeline [-config path] [-table events_20240101] [-dry-run] [-migrate-only]
//
// Exit status is 0 when every table succeeded, 2 when some tables or records
// failed and 1 when the run could not complete.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/retention/internal/app"
	"github.com/tomtom215/retention/internal/config"
	"github.com/tomtom215/retention/internal/database"
	"github.com/tomtom215/retention/internal/logging"
	"github.com/tomtom215/retention/internal/pipeline"
)

const (
	exitFailed  = 1
	exitPartial = 2
)

// errPartial marks a run that finished with failed tables or records.
var errPartial = errors.New("run finished with failures")

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (overrides CONFIG_PATH)")
	table := flag.String("table", "", "process only this table id")
	dryRun := flag.Bool("dry-run", false, "project and reconcile without writing to the store")
	migrateOnly := flag.Bool("migrate-only", false, "apply schema migrations and exit")
	flag.Parse()

	err := run(*configPath, pipeline.RunOptions{Table: *table, DryRun: *dryRun}, *migrateOnly)
	switch {
	case err == nil:
	case errors.Is(err, errPartial):
		logging.Warn().Err(err).Msg("Pipeline finished with failures")
		os.Exit(exitPartial)
	default:
		logging.Error().Err(err).Msg("Pipeline failed")
		os.Exit(exitFailed)
	}
}

func run(configPath string, opts pipeline.RunOptions, migrateOnly bool) error {
	cfg, err := app.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	app.InitLogging(cfg)

	if migrateOnly {
		return migrate(&cfg.Database)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p, err := app.OpenPipeline(ctx, cfg, logging.WithComponent("pipeline"))
	if err != nil {
		return err
	}
	defer func() {
		if err := p.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing pipeline resources")
		}
	}()

	summary, err := p.Orchestrator.Run(ctx, opts)
	if err != nil {
		return err
	}

	logging.Info().
		Str("run_id", summary.RunID).
		Str("status", summary.Status).
		Int("tables", len(summary.Tables)).
		Int64("rows_scanned", summary.RowsScanned).
		Int64("installs_inserted", summary.Totals.InstallsInserted).
		Int64("sessions_inserted", summary.Totals.SessionsInserted).
		Dur("duration", summary.Duration()).
		Str("log_file", summary.LogFile).
		Msg("Pipeline run complete")

	return partialError(summary)
}

// partialError returns nil for a successful run and errPartial, with table
// and record failure counts, otherwise.
func partialError(summary *pipeline.RunSummary) error {
	if summary.Status == pipeline.StatusSuccess {
		return nil
	}
	return fmt.Errorf("%w: %d of %d tables failed, %d records failed",
		errPartial, summary.FailedTables(), len(summary.Tables), summary.Totals.Failures())
}

func migrate(cfg *config.DatabaseConfig) error {
	db, err := database.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	version, err := db.GetCurrentSchemaVersion(context.Background())
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	logging.Info().Str("driver", db.Driver()).Int("schema_version", version).Msg("Migrations applied")
	return nil
}
