// Retention - Mobile Analytics Retention Pipeline and Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retention

/*
Package main is the entry point for the retention server.

The server serves the retention dashboard API and runs the BigQuery to
relational-store pipeline on a schedule, under Suture v4 supervision:

	RootSupervisor ("retention")
	├── PipelineSupervisor ("pipeline-layer")
	│   └── Pipeline schedule (pipeline.interval, pipeline.run_on_startup)
	└── APISupervisor ("api-layer")
	    └── HTTP Server (chi router)

Component initialization order:

 1. Configuration: .env (godotenv), then Koanf v2 defaults, config file, environment
 2. Logging: zerolog with JSON or console output
 3. Database: DuckDB or PostgreSQL, with versioned migrations
 4. Warehouse: BigQuery client behind a circuit breaker and rate limiter
 5. Checkpoints: BadgerDB (optional, pipeline.checkpoint_path)
 6. Runner: single-flight pipeline runs shared by the schedule and the API
 7. Supervisor Tree: HTTP server and pipeline schedule services

# Configuration

Priority: environment variables > .env > config file > defaults

	# Warehouse
	BIGQUERY_PROJECT_ID=analytics-prod
	BIGQUERY_DATASET_NAME=analytics_123456
	BIGQUERY_CREDENTIALS_JSON=~/secrets/bigquery.json

	# Store
	DATABASE_DRIVER=postgres            # or duckdb (default)
	POSTGRESQL_DATABASE_URL=postgres://retention:secret@db:5432/retention

	# Pipeline
	PIPELINE_SCHEDULE_INTERVAL=24h      # 0 disables the schedule
	PIPELINE_RUN_ON_STARTUP=true
	PIPELINE_LOG_DIR=/var/log/retention # one process_bq_data_<timestamp>.log per run

	# Server
	HTTP_SERVER_PORT=3000
	LOG_LEVEL=info
	LOG_FORMAT=json

# Signal Handling

SIGINT and SIGTERM cancel the root context. The HTTP server drains for up to
10s, an active pipeline run is canceled, and the store, warehouse client and
checkpoint store are closed.

# Example Usage

	./retention-server -config /etc/retention/config.yaml

	curl 'localhost:3000/api/v1/retention?dateFrom=2024-01-01&dateTo=2024-01-31&platforms=ios'
	curl -X POST localhost:3000/api/v1/pipeline/run -d '{"dry_run": true}'
*/
package main
