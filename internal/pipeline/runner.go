// Retention - Mobile Analytics Retention Pipeline and Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retention

package pipeline

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/retention/internal/metrics"
)

// ErrRunInProgress is returned when a run is requested while one is active.
var ErrRunInProgress = errors.New("pipeline run already in progress")

// Executor runs the pipeline once. *Orchestrator implements it.
type Executor interface {
	Run(ctx context.Context, opts RunOptions) (*RunSummary, error)
}

// Status is a point-in-time view of the runner.
type Status struct {
	Running bool        `json:"running"`
	Current *RunSummary `json:"current,omitempty"`
	Last    *RunSummary `json:"last,omitempty"`
}

// Runner allows at most one run at a time across the scheduler and the API.
type Runner struct {
	exec   Executor
	logger zerolog.Logger

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu         sync.Mutex
	current    *RunSummary
	last       *RunSummary
	onComplete []func(*RunSummary)
}

// NewRunner wraps exec. last seeds Status().Last, typically from
// Checkpoint.LastSummary; it may be nil.
func NewRunner(exec Executor, last *RunSummary, logger zerolog.Logger) *Runner {
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		exec:    exec,
		logger:  logger,
		baseCtx: ctx,
		cancel:  cancel,
		last:    last,
	}
}

// OnComplete registers fn to be called after every finished run.
func (r *Runner) OnComplete(fn func(*RunSummary)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onComplete = append(r.onComplete, fn)
}

func (r *Runner) acquire(opts RunOptions) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current != nil {
		return ErrRunInProgress
	}
	r.current = &RunSummary{Status: StatusRunning, Options: opts, StartedAt: time.Now()}
	metrics.SetRunInProgress(true)
	return nil
}

func (r *Runner) release(summary *RunSummary) {
	r.mu.Lock()
	r.current = nil
	if summary != nil {
		r.last = summary
	}
	hooks := slices.Clone(r.onComplete)
	r.mu.Unlock()

	metrics.SetRunInProgress(false)
	if summary == nil {
		return
	}
	for _, fn := range hooks {
		fn(summary)
	}
}

// Run executes synchronously. Returns ErrRunInProgress if a run is active.
func (r *Runner) Run(ctx context.Context, opts RunOptions) (*RunSummary, error) {
	if err := r.acquire(opts); err != nil {
		return nil, err
	}
	summary, err := r.exec.Run(ctx, opts)
	r.release(summary)
	return summary, err
}

// Start executes in the background under the runner's own context, so the
// run outlives the caller. Returns ErrRunInProgress if a run is active.
func (r *Runner) Start(opts RunOptions) error {
	if err := r.acquire(opts); err != nil {
		return err
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		summary, err := r.exec.Run(r.baseCtx, opts)
		if err != nil {
			r.logger.Error().Err(err).Msg("Background pipeline run failed")
		}
		r.release(summary)
	}()
	return nil
}

// Status returns the current and last run.
func (r *Runner) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Status{
		Running: r.current != nil,
		Current: r.current,
		Last:    r.last,
	}
}

// Close cancels background runs and waits for them to return.
func (r *Runner) Close() {
	r.cancel()
	r.wg.Wait()
}
