// Retention - Mobile Analytics Retention Pipeline and Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retention

package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/tomtom215/retention/internal/config"
	"github.com/tomtom215/retention/internal/database"
	"github.com/tomtom215/retention/internal/logging"
	"github.com/tomtom215/retention/internal/pipeline"
	"github.com/tomtom215/retention/internal/warehouse"
)

// DotEnvFile is loaded, when present, before the configuration. Variables
// already set in the environment win.
const DotEnvFile = ".env"

// LoadConfig loads the .env file and then the layered configuration.
// configPath, when set, must name an existing YAML file and takes
// precedence over CONFIG_PATH.
func LoadConfig(configPath string) (*config.Config, error) {
	if err := godotenv.Load(DotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", DotEnvFile, err)
	}

	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		if err := os.Setenv(config.ConfigPathEnvVar, configPath); err != nil {
			return nil, fmt.Errorf("failed to set %s: %w", config.ConfigPathEnvVar, err)
		}
	}

	return config.Load()
}

// InitLogging configures the global logger from cfg.
func InitLogging(cfg *config.Config) {
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
}

// Pipeline holds the collaborators of pipeline runs. Close releases them in
// reverse order of creation.
type Pipeline struct {
	DB           *database.DB
	Warehouse    *warehouse.ResilientClient
	Checkpoint   pipeline.Checkpoint
	Orchestrator *pipeline.Orchestrator

	closers []func() error
}

// OpenPipeline connects the store (running migrations), the warehouse and
// the optional checkpoint store, and builds the orchestrator.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func OpenPipeline(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Pipeline, error) {
	opts, err := pipeline.OptionsFromConfig(&cfg.Warehouse, &cfg.Pipeline)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{}

	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	p.DB = db
	p.closers = append(p.closers, db.Close)

	bq, err := warehouse.NewBigQueryClient(ctx, &cfg.Warehouse)
	if err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("failed to initialize warehouse client: %w", err)
	}
	p.closers = append(p.closers, bq.Close)
	p.Warehouse = warehouse.NewResilientClient(bq, cfg.Warehouse.RequestsPerSecond)

	if cfg.Pipeline.CheckpointPath != "" {
		cp, err := pipeline.OpenBadgerCheckpoint(cfg.Pipeline.CheckpointPath)
		if err != nil {
			_ = p.Close()
			return nil, fmt.Errorf("failed to open checkpoint store: %w", err)
		}
		p.Checkpoint = cp
		p.closers = append(p.closers, cp.Close)
	}

	p.Orchestrator = pipeline.NewOrchestrator(p.Warehouse, db, p.Checkpoint, opts, logger)

	logger.Info().
		Str("driver", db.Driver()).
		Str("project", cfg.Warehouse.ProjectID).
		Str("dataset", cfg.Warehouse.Dataset).
		Bool("checkpoint", p.Checkpoint != nil).
		Msg("Pipeline initialized")
	return p, nil
}

// LastSummary returns the persisted summary of the previous run, or nil.
func (p *Pipeline) LastSummary(ctx context.Context) *pipeline.RunSummary {
	if p.Checkpoint == nil {
		return nil
	}
	summary, err := p.Checkpoint.LastSummary(ctx)
	if err != nil {
		logging.Warn().Err(err).Msg("Failed to load last run summary")
		return nil
	}
	return summary
}

// Close releases every opened resource and joins their errors.
func (p *Pipeline) Close() error {
	var errs []error
	for i := len(p.closers) - 1; i >= 0; i-- {
		if err := p.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	p.closers = nil
	return errors.Join(errs...)
}
