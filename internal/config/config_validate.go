// Retention - Mobile Analytics Retention Pipeline and Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retention

package config

import (
	"fmt"
	"strings"

	"github.com/tomtom215/retention/internal/logging"
)

// Supported database drivers.
const (
	DriverDuckDB   = "duckdb"
	DriverPostgres = "postgres"
)

// validTimestampUnits are the accepted values for *_timestamp_unit settings.
var validTimestampUnits = map[string]bool{
	"seconds":      true,
	"milliseconds": true,
	"microseconds": true,
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if err := c.validateWarehouse(); err != nil {
		return err
	}
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateWarehouse() error {
	w := &c.Warehouse
	if w.Dataset == "" {
		return fmt.Errorf("BIGQUERY_DATASET_NAME is required")
	}
	// An endpoint override points at an emulator that needs neither a
	// project-scoped key nor credentials.
	if w.Endpoint == "" {
		if w.ProjectID == "" {
			return fmt.Errorf("BIGQUERY_PROJECT_ID is required")
		}
		if w.CredentialsFile == "" {
			return fmt.Errorf("BIGQUERY_CREDENTIALS_JSON is required")
		}
	}
	if w.PageSize < 1 || w.PageSize > 100000 {
		return fmt.Errorf("BIGQUERY_PAGE_SIZE must be between 1 and 100000")
	}
	if w.RequestsPerSecond < 0 {
		return fmt.Errorf("BIGQUERY_REQUESTS_PER_SECOND must be non-negative")
	}
	if w.Timeout < 0 {
		return fmt.Errorf("BIGQUERY_TIMEOUT must be non-negative")
	}
	return nil
}

func (c *Config) validateDatabase() error {
	d := &c.Database
	switch d.Driver {
	case DriverPostgres:
		if d.URL == "" {
			return fmt.Errorf("POSTGRESQL_DATABASE_URL is required when DATABASE_DRIVER=postgres")
		}
	case DriverDuckDB:
		if d.Path == "" {
			return fmt.Errorf("DUCKDB_PATH is required when DATABASE_DRIVER=duckdb")
		}
	default:
		return fmt.Errorf("DATABASE_DRIVER must be one of: duckdb, postgres (got %q)", d.Driver)
	}
	if d.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must be non-negative")
	}
	if d.MaxOpenConns < 0 {
		return fmt.Errorf("DATABASE_MAX_OPEN_CONNS must be non-negative")
	}
	return nil
}

func (c *Config) validatePipeline() error {
	p := &c.Pipeline
	if p.Interval < 0 {
		return fmt.Errorf("PIPELINE_SCHEDULE_INTERVAL must be non-negative")
	}
	if !validTimestampUnits[p.InstallTimestampUnit] {
		return fmt.Errorf("PIPELINE_INSTALL_TS_UNIT must be one of: seconds, milliseconds, microseconds (got %q)", p.InstallTimestampUnit)
	}
	if !validTimestampUnits[p.SessionTimestampUnit] {
		return fmt.Errorf("PIPELINE_SESSION_TS_UNIT must be one of: seconds, milliseconds, microseconds (got %q)", p.SessionTimestampUnit)
	}
	if strings.TrimSpace(p.TablePrefix) == "" {
		return fmt.Errorf("PIPELINE_TABLE_PREFIX is required")
	}
	if p.TableIDLength < len(p.TablePrefix) {
		return fmt.Errorf("PIPELINE_TABLE_ID_LENGTH must be at least the prefix length (%d)", len(p.TablePrefix))
	}
	if p.SkipCompleted && p.CheckpointPath == "" {
		return fmt.Errorf("PIPELINE_SKIP_COMPLETED requires PIPELINE_CHECKPOINT_PATH")
	}
	if p.Timeout < 0 {
		return fmt.Errorf("PIPELINE_TIMEOUT must be non-negative")
	}
	return nil
}

func (c *Config) validateServer() error {
	s := &c.Server
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("HTTP_SERVER_PORT must be between 1 and 65535")
	}
	if s.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	if !s.RateLimitDisabled {
		if s.RateLimitReqs < 1 {
			return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1")
		}
		if s.RateLimitWindow <= 0 {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
		}
	}
	if s.CacheTTL < 0 {
		return fmt.Errorf("API_CACHE_TTL must be non-negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error (got %q)", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console (got %q)", c.Logging.Format)
	}
	return nil
}
