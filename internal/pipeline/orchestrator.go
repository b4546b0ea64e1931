// Retention - Mobile Analytics Retention Pipeline and Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retention

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/retention/internal/config"
	"github.com/tomtom215/retention/internal/events"
	"github.com/tomtom215/retention/internal/logging"
	"github.com/tomtom215/retention/internal/metrics"
	"github.com/tomtom215/retention/internal/models"
	"github.com/tomtom215/retention/internal/reconcile"
	"github.com/tomtom215/retention/internal/warehouse"
)

// RunLogPrefix names the per-run log files.
const RunLogPrefix = "process_bq_data"

// ErrTableNotFound is returned when RunOptions.Table is not among the
// discovered tables.
var ErrTableNotFound = errors.New("table not found in dataset")

// Options tunes the orchestrator.
type Options struct {
	PageSize          int
	Filter            warehouse.TableFilter
	InstallUnit       events.TimeUnit
	SessionUnit       events.TimeUnit
	ForceGC           bool
	LogDir            string
	SkipCompleted     bool
	AbortOnTableError bool
	Timeout           time.Duration
}

// OptionsFromConfig builds Options from the warehouse and pipeline sections.
func OptionsFromConfig(w *config.WarehouseConfig, p *config.PipelineConfig) (Options, error) {
	installUnit, err := events.ParseTimeUnit(p.InstallTimestampUnit)
	if err != nil {
		return Options{}, fmt.Errorf("install timestamp unit: %w", err)
	}
	sessionUnit, err := events.ParseTimeUnit(p.SessionTimestampUnit)
	if err != nil {
		return Options{}, fmt.Errorf("session timestamp unit: %w", err)
	}
	return Options{
		PageSize:          w.PageSize,
		Filter:            warehouse.TableFilter{Prefix: p.TablePrefix, Length: p.TableIDLength},
		InstallUnit:       installUnit,
		SessionUnit:       sessionUnit,
		ForceGC:           p.ForceGC,
		LogDir:            p.LogDir,
		SkipCompleted:     p.SkipCompleted,
		AbortOnTableError: p.AbortOnTableError,
		Timeout:           p.Timeout,
	}, nil
}

// Orchestrator sequences discovery, scanning, projection and reconciliation.
type Orchestrator struct {
	client     warehouse.Client
	store      reconcile.Store
	checkpoint Checkpoint
	opts       Options
	logger     zerolog.Logger
	now        func() time.Time
}

// NewOrchestrator creates an orchestrator. checkpoint may be nil.
func NewOrchestrator(client warehouse.Client, store reconcile.Store, checkpoint Checkpoint, opts Options, logger zerolog.Logger) *Orchestrator {
	if opts.PageSize <= 0 {
		opts.PageSize = 10000
	}
	if opts.Filter.Prefix == "" {
		opts.Filter = warehouse.DefaultTableFilter
	}
	if opts.InstallUnit == "" {
		opts.InstallUnit = events.Milliseconds
	}
	if opts.SessionUnit == "" {
		opts.SessionUnit = events.Microseconds
	}
	return &Orchestrator{
		client:     client,
		store:      store,
		checkpoint: checkpoint,
		opts:       opts,
		logger:     logger,
		now:        time.Now,
	}
}

// pinger is implemented by stores that can report reachability.
type pinger interface {
	Ping(ctx context.Context) error
}

// runDeps are the per-run collaborators.
type runDeps struct {
	logger    zerolog.Logger
	scanner   *warehouse.Scanner
	projector *events.Projector
	engine    *reconcile.Engine
	dryRun    bool
}

// Run executes one pipeline run. Table-level failures are recorded in the
// summary and the run continues unless AbortOnTableError is set. The error
// return is set only for run-level failures; the summary is always returned.
func (o *Orchestrator) Run(ctx context.Context, ro RunOptions) (*RunSummary, error) {
	start := o.now()
	summary := &RunSummary{
		RunID:     uuid.NewString(),
		Status:    StatusRunning,
		Options:   ro,
		StartedAt: start,
	}

	ctx = logging.ContextWithRunID(ctx, summary.RunID)
	logger := o.logger.With().
		Str(logging.FieldRunID, summary.RunID).
		Bool("dry_run", ro.DryRun).
		Logger()

	if o.opts.LogDir != "" {
		sink, err := logging.OpenRunSink(o.opts.LogDir, RunLogPrefix, start)
		if err != nil {
			logger.Warn().Err(err).Msg("Run log disabled")
		} else {
			defer func() {
				if err := sink.Close(); err != nil {
					o.logger.Warn().Err(err).Str("path", sink.Path()).Msg("Failed to close run log")
				}
			}()
			logger = logging.Tee(logger, sink)
			summary.LogFile = sink.Path()
		}
	}

	if o.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.opts.Timeout)
		defer cancel()
	}

	defer o.finish(ctx, logger, summary)

	logger.Info().Msg("=> process_bq_data run started")

	var store reconcile.Store = o.store
	if ro.DryRun {
		store = reconcile.NewDryRunStore(o.store)
	}
	deps := runDeps{
		logger:    logger,
		scanner:   warehouse.NewScanner(o.client, o.opts.PageSize, warehouse.EventColumns, logger),
		projector: events.NewProjector(logger, o.opts.InstallUnit, o.opts.SessionUnit),
		engine:    reconcile.NewEngine(store, logger.With().Str("component", "reconcile").Logger()),
		dryRun:    ro.DryRun,
	}

	if p, ok := o.store.(pinger); ok {
		if err := p.Ping(ctx); err != nil {
			err = fmt.Errorf("store unreachable: %w", err)
			logger.Error().Err(err).Msg("Store ping failed")
			summary.Err = err.Error()
			return summary, err
		}
	}

	tables, err := o.discover(ctx, logger, ro)
	if err != nil {
		summary.Err = err.Error()
		return summary, err
	}
	summary.Discovered = len(tables)

	for _, table := range tables {
		if err := ctx.Err(); err != nil {
			summary.Err = fmt.Sprintf("run interrupted before %s: %v", table, err)
			return summary, err
		}

		ts := o.processTable(ctx, deps, table)
		summary.Tables = append(summary.Tables, ts)
		summary.RowsScanned += ts.RowsScanned
		summary.Totals.Merge(ts.Reconcile)

		if ts.Failed() && o.opts.AbortOnTableError {
			err := fmt.Errorf("table %s: %s", table, ts.Err)
			summary.Err = err.Error()
			return summary, err
		}
	}

	return summary, nil
}

func (o *Orchestrator) discover(ctx context.Context, logger zerolog.Logger, ro RunOptions) ([]string, error) {
	logger.Info().Msg("=> starting to fetch all available tables")
	tables, err := warehouse.DiscoverTables(ctx, o.client, o.opts.Filter)
	if err != nil {
		logger.Error().Err(err).Msg("Table discovery failed")
		return nil, err
	}
	logging.Success(&logger).Int("tables", len(tables)).Msg("=> tables filtered")

	if ro.Table == "" {
		return tables, nil
	}
	for _, t := range tables {
		if t == ro.Table {
			return []string{t}, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrTableNotFound, ro.Table)
}

// processTable scans one table. Installs are reconciled page by page;
// sessions are buffered as projected records and reconciled after the last
// page so every install of the table is committed first.
func (o *Orchestrator) processTable(ctx context.Context, deps runDeps, table string) TableStats {
	log := deps.logger.With().Str(logging.FieldTable, table).Logger()
	ctx = logging.ContextWithTable(ctx, table)
	ts := TableStats{Table: table}

	if o.opts.SkipCompleted && o.checkpoint != nil && !deps.dryRun {
		done, err := o.checkpoint.IsCompleted(ctx, table)
		if err != nil {
			log.Warn().Err(err).Msg("Checkpoint lookup failed, processing table")
		} else if done {
			ts.Skipped = true
			log.Info().Msg("Table completed by an earlier run, skipping")
			metrics.RecordTable("skipped", 0, 0)
			return ts
		}
	}

	start := o.now()
	ts.MemoryBefore = ReadMemory(false)
	log.Info().Msgf("=> table => %s fetching data", table)

	var sessions []models.SessionStart
	scan, err := deps.scanner.Scan(ctx, table, func(ctx context.Context, page *warehouse.Page) error {
		installs := deps.projector.ProjectInstalls(page.Rows)
		starts := deps.projector.ProjectSessions(page.Rows)
		ts.Incomplete += countIncomplete(installs) + countIncomplete(starts)

		for _, in := range events.Complete(installs) {
			ts.Installs++
			ts.Reconcile.AddInstall(deps.engine.ReconcileInstall(ctx, in))
		}
		complete := events.Complete(starts)
		ts.Sessions += len(complete)
		sessions = append(sessions, complete...)
		return nil
	})
	ts.Pages = scan.Pages
	ts.RowsScanned = scan.Rows

	if err == nil {
		logging.Success(&log).Msgf("=> table => %s data filtered, extracted user records %d, extracted session records %d",
			table, ts.Installs, ts.Sessions)
		for _, s := range sessions {
			ts.Reconcile.AddSession(deps.engine.ReconcileSession(ctx, s))
		}
	}
	sessions = nil

	ts.MemoryAfter = ReadMemory(o.opts.ForceGC)
	ts.Duration = o.now().Sub(start)
	log.Debug().
		Object("before", ts.MemoryBefore).
		Object("after", ts.MemoryAfter).
		Bool("forced_gc", o.opts.ForceGC).
		Msg("Memory usage")

	if err != nil {
		ts.Err = err.Error()
		log.Error().Err(err).Dur("duration", ts.Duration).Msg("Table failed, continuing with next table")
		metrics.RecordTable("failed", ts.Duration, ts.RowsScanned)
		return ts
	}

	logging.Success(&log).
		Int("pages", ts.Pages).
		Int64("rows", ts.RowsScanned).
		Int64("incomplete", ts.Incomplete).
		Interface("reconcile", ts.Reconcile).
		Dur("duration", ts.Duration).
		Msg("Table processed")
	metrics.RecordTable("success", ts.Duration, ts.RowsScanned)

	if o.checkpoint != nil && !deps.dryRun {
		// Failed records are only retried when the table is scanned again.
		if n := ts.Reconcile.Failures(); n > 0 {
			log.Warn().Int64("failures", n).Msg("Table has failed records, not checkpointed")
			return ts
		}
		if err := o.checkpoint.MarkCompleted(ctx, ts); err != nil {
			log.Warn().Err(err).Msg("Failed to record checkpoint")
		}
	}
	return ts
}

// finish finalizes the summary, records metrics and persists the summary.
func (o *Orchestrator) finish(ctx context.Context, logger zerolog.Logger, summary *RunSummary) {
	summary.finish(o.now())
	metrics.RecordPipelineRun(summary.Status, summary.Duration())

	event := logger.Info()
	if summary.Status == StatusFailed {
		event = logger.Error().Str("error", summary.Err)
	}
	event.
		Str("status", summary.Status).
		Int("tables", len(summary.Tables)).
		Int("failed_tables", summary.FailedTables()).
		Int64("rows", summary.RowsScanned).
		Interface("totals", summary.Totals).
		Dur("duration", summary.Duration()).
		Msg("=> process_bq_data run finished")

	if o.checkpoint != nil {
		if err := o.checkpoint.SaveSummary(context.WithoutCancel(ctx), summary); err != nil {
			logger.Warn().Err(err).Msg("Failed to persist run summary")
		}
	}
}

func countIncomplete[T any](in []events.Projected[T]) int64 {
	var n int64
	for i := range in {
		if in[i].Incomplete {
			n++
		}
	}
	return n
}
