// Retention - Mobile Analytics Retention Pipeline and Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retention

package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/retention/internal/pipeline"
)

// PipelineRunner runs the pipeline synchronously. *pipeline.Runner
// implements it.
type PipelineRunner interface {
	Run(ctx context.Context, opts pipeline.RunOptions) (*pipeline.RunSummary, error)
}

// ScheduleConfig controls when scheduled runs happen.
type ScheduleConfig struct {
	// Interval between the starts of scheduled runs. 0 disables the schedule.
	Interval time.Duration

	// RunOnStartup runs once as soon as the service starts.
	RunOnStartup bool
}

// PipelineScheduleService runs the pipeline on a fixed interval under
// suture. A failed run is logged and the schedule continues; a tick that
// finds a run already active (for example one started over the API) is
// skipped. Canceling the Serve context cancels the active run.
type PipelineScheduleService struct {
	runner PipelineRunner
	config ScheduleConfig
	logger zerolog.Logger
	name   string
}

// NewPipelineScheduleService creates the schedule service.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewPipelineScheduleService(runner PipelineRunner, config ScheduleConfig, logger zerolog.Logger) *PipelineScheduleService {
	return &PipelineScheduleService{
		runner: runner,
		config: config,
		logger: logger.With().Str("service", "pipeline-scheduler").Logger(),
		name:   "pipeline-scheduler",
	}
}

// Serve implements suture.Service.
func (s *PipelineScheduleService) Serve(ctx context.Context) error {
	if s.config.RunOnStartup {
		s.runOnce(ctx, "startup")
	}

	if s.config.Interval <= 0 {
		s.logger.Info().Msg("Pipeline schedule disabled")
		<-ctx.Done()
		return ctx.Err()
	}

	s.logger.Info().Dur("interval", s.config.Interval).Msg("Pipeline schedule started")
	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runOnce(ctx, "schedule")
		}
	}
}

func (s *PipelineScheduleService) runOnce(ctx context.Context, trigger string) {
	if ctx.Err() != nil {
		return
	}
	summary, err := s.runner.Run(ctx, pipeline.RunOptions{})
	switch {
	case errors.Is(err, pipeline.ErrRunInProgress):
		s.logger.Info().Str("trigger", trigger).Msg("Skipping scheduled run, a run is already in progress")
	case err != nil && ctx.Err() != nil:
		s.logger.Warn().Str("trigger", trigger).Msg("Scheduled run canceled by shutdown")
	case err != nil:
		ev := s.logger.Error().Err(err).Str("trigger", trigger)
		if summary != nil {
			ev = ev.Str("run_id", summary.RunID)
		}
		ev.Msg("Scheduled pipeline run failed")
	default:
		s.logger.Info().
			Str("trigger", trigger).
			Str("run_id", summary.RunID).
			Str("status", summary.Status).
			Dur("duration", summary.Duration()).
			Msg("Scheduled pipeline run finished")
	}
}

// String names the service in supervisor events.
func (s *PipelineScheduleService) String() string {
	return s.name
}
