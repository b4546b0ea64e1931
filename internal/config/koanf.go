// Retention - Mobile Analytics Retention Pipeline and Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retention

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/retention/config.yaml",
	"/etc/retention/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Warehouse: WarehouseConfig{
			PageSize:          10000,
			RequestsPerSecond: 10,
			Timeout:           60 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:    "duckdb",
			Path:      "/data/retention.duckdb",
			MaxMemory: "1GB",
		},
		Pipeline: PipelineConfig{
			Interval:             24 * time.Hour,
			RunOnStartup:         false,
			ForceGC:              true,
			LogDir:               "",
			CheckpointPath:       "",
			SkipCompleted:        false,
			AbortOnTableError:    false,
			InstallTimestampUnit: "milliseconds",
			SessionTimestampUnit: "microseconds",
			TablePrefix:          "events",
			TableIDLength:        15,
		},
		Server: ServerConfig{
			Port:            3000,
			Host:            "0.0.0.0",
			Timeout:         30 * time.Second,
			CORSOrigins:     []string{},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			CacheTTL:        5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	// BIGQUERY_DATASET_NAME -> warehouse.dataset
	// POSTGRESQL_DATABASE_URL -> database.url
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	cfg.Warehouse.CredentialsFile = expandHome(cfg.Warehouse.CredentialsFile)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the config file to load, or "" if none exists.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths are koanf paths that accept comma-separated env values.
var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields splits comma-separated string values into slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps lower-cased environment variable names to koanf paths.
// The BIGQUERY_* and POSTGRESQL_* names match the original deployment.
var envMappings = map[string]string{
	// Warehouse
	"bigquery_project_id":          "warehouse.project_id",
	"bigquery_dataset_name":        "warehouse.dataset",
	"bigquery_credentials_json":    "warehouse.credentials_file",
	"bigquery_endpoint":            "warehouse.endpoint",
	"bigquery_page_size":           "warehouse.page_size",
	"bigquery_requests_per_second": "warehouse.requests_per_second",
	"bigquery_timeout":             "warehouse.timeout",

	// Database
	"database_driver":         "database.driver",
	"postgresql_database_url": "database.url",
	"duckdb_path":             "database.path",
	"duckdb_max_memory":       "database.max_memory",
	"duckdb_threads":          "database.threads",
	"database_max_open_conns": "database.max_open_conns",

	// Pipeline
	"pipeline_schedule_interval":    "pipeline.interval",
	"pipeline_run_on_startup":       "pipeline.run_on_startup",
	"pipeline_force_gc":             "pipeline.force_gc",
	"pipeline_log_dir":              "pipeline.log_dir",
	"pipeline_checkpoint_path":      "pipeline.checkpoint_path",
	"pipeline_skip_completed":       "pipeline.skip_completed",
	"pipeline_abort_on_table_error": "pipeline.abort_on_table_error",
	"pipeline_install_ts_unit":      "pipeline.install_timestamp_unit",
	"pipeline_session_ts_unit":      "pipeline.session_timestamp_unit",
	"pipeline_table_prefix":         "pipeline.table_prefix",
	"pipeline_table_id_length":      "pipeline.table_id_length",
	"pipeline_timeout":              "pipeline.timeout",

	// Server
	"http_server_port":    "server.port",
	"http_host":           "server.host",
	"http_timeout":        "server.timeout",
	"cors_origins":        "server.cors_origins",
	"rate_limit_requests": "server.rate_limit_reqs",
	"rate_limit_window":   "server.rate_limit_window",
	"disable_rate_limit":  "server.rate_limit_disabled",
	"api_cache_ttl":       "server.cache_ttl",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config paths.
// Unmapped keys return "" so unrelated environment variables are ignored.
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}

// expandHome expands a leading "~/" to the current user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
