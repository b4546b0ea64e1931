// Retention - Mobile Analytics Retention Pipeline and Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retention

// Package config loads and validates application configuration.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in defaults for all optional settings
//  2. Config File: Optional YAML config file (config.yaml) for persistent settings
//  3. Environment Variables: Override any setting via environment variables
//
// Configuration Categories:
//
//   - Warehouse: BigQuery project, dataset, credentials and paging
//   - Database: destination store driver (duckdb or postgres) and connection
//   - Pipeline: schedule, checkpoints, run log directory, timestamp units
//   - Server: HTTP listener, CORS, rate limiting, response cache
//   - Logging: log level and output format
//
// Example:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    logging.Fatal().Err(err).Msg("Failed to load config")
//	}
//	db, err := database.New(&cfg.Database)
package config

import (
	"time"
)

// Config holds all application configuration.
type Config struct {
	Warehouse WarehouseConfig `koanf:"warehouse"`
	Database  DatabaseConfig  `koanf:"database"`
	Pipeline  PipelineConfig  `koanf:"pipeline"`
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// WarehouseConfig configures the BigQuery analytics export source.
type WarehouseConfig struct {
	ProjectID string `koanf:"project_id"`
	Dataset   string `koanf:"dataset"`

	// CredentialsFile is a service-account JSON key. A leading "~/" is
	// expanded to the user's home directory.
	CredentialsFile string `koanf:"credentials_file"`

	// Endpoint overrides the BigQuery API base URL (emulators, tests).
	// When set, credentials are optional.
	Endpoint string `koanf:"endpoint"`

	// PageSize is the maximum number of rows requested per page.
	PageSize int `koanf:"page_size"`

	// RequestsPerSecond limits warehouse calls. 0 disables limiting.
	RequestsPerSecond float64 `koanf:"requests_per_second"`

	// Timeout bounds each individual warehouse request.
	Timeout time.Duration `koanf:"timeout"`
}

// DatabaseConfig configures the destination relational store.
type DatabaseConfig struct {
	// Driver is "duckdb" (embedded) or "postgres".
	Driver string `koanf:"driver"`

	// URL is the PostgreSQL connection string (postgres driver).
	URL string `koanf:"url"`

	// Path is the DuckDB database file, or ":memory:" (duckdb driver).
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // Number of DuckDB threads (0 = use NumCPU)

	MaxOpenConns int `koanf:"max_open_conns"` // 0 = driver-specific default
}

// PipelineConfig configures ETL runs.
type PipelineConfig struct {
	// Interval between scheduled runs in the server process. 0 disables the
	// schedule; runs can still be triggered through the API.
	Interval     time.Duration `koanf:"interval"`
	RunOnStartup bool          `koanf:"run_on_startup"`

	// ForceGC requests a collection between tables and logs heap usage
	// before and after it.
	ForceGC bool `koanf:"force_gc"`

	// LogDir receives one log file per run. Empty disables the run log.
	LogDir string `koanf:"log_dir"`

	// CheckpointPath is a BadgerDB directory recording completed tables and
	// the last run summary. Empty disables checkpointing.
	CheckpointPath string `koanf:"checkpoint_path"`

	// SkipCompleted skips tables an earlier run finished without failed records.
	SkipCompleted bool `koanf:"skip_completed"`

	// AbortOnTableError stops the run at the first failed table instead of
	// continuing with the next one.
	AbortOnTableError bool `koanf:"abort_on_table_error"`

	// InstallTimestampUnit is the unit of the first_open_time attribute.
	InstallTimestampUnit string `koanf:"install_timestamp_unit"`

	// SessionTimestampUnit is the unit of event_timestamp on session_start.
	SessionTimestampUnit string `koanf:"session_timestamp_unit"`

	// TablePrefix and TableIDLength select daily event tables.
	TablePrefix   string `koanf:"table_prefix"`
	TableIDLength int    `koanf:"table_id_length"`

	// Timeout bounds a whole run. 0 means no limit.
	Timeout time.Duration `koanf:"timeout"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port    int           `koanf:"port"`
	Host    string        `koanf:"host"`
	Timeout time.Duration `koanf:"timeout"`

	CORSOrigins []string `koanf:"cors_origins"`

	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`

	// CacheTTL is how long query responses are cached. 0 disables caching.
	CacheTTL time.Duration `koanf:"cache_ttl"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error.
	// Default: info
	Level string `koanf:"level"`

	// Format is the output format: json or console.
	// Default: json
	Format string `koanf:"format"`

	// Caller includes caller file and line number in logs.
	// Default: false
	Caller bool `koanf:"caller"`
}

// Load loads configuration from defaults, config file and environment.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
