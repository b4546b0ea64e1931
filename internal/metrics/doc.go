// Retention - Mobile Analytics Retention Pipeline and Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retention

/*
Package metrics provides Prometheus metrics collection and export for observability.

All collectors are registered on the default registry through promauto and
exposed by the API at /metrics.

# Available Metrics

Pipeline Metrics:
  - pipeline_runs_total: Completed runs (counter)
    Labels: status (success, partial, failed)
  - pipeline_run_duration_seconds: Run wall-clock time (histogram)
  - pipeline_table_duration_seconds: Per-table wall-clock time (histogram)
  - pipeline_tables_processed_total: Tables processed (counter)
    Labels: result (success, failed, skipped)
  - pipeline_rows_scanned_total: Warehouse rows read (counter)
  - pipeline_last_success_timestamp: Unix time of the last successful run (gauge)
  - pipeline_run_in_progress: 1 while a run is executing (gauge)
  - pipeline_heap_alloc_bytes: Heap in use at the last diagnostic point (gauge)

Reconciliation Metrics:
  - reconcile_outcomes_total: Per-record reconciliation outcomes (counter)
    Labels: entity (install, session), outcome

Warehouse Metrics:
  - warehouse_requests_total: Warehouse API calls (counter)
    Labels: operation, result
  - warehouse_request_duration_seconds: Warehouse API latency (histogram)
    Labels: operation

Database Metrics:
  - db_query_duration_seconds: Query execution time (histogram)
    Labels: operation, table
  - db_query_errors_total: Failed queries (counter)
    Labels: operation, table, error_type

HTTP Metrics:
  - api_requests_total, api_request_duration_seconds, api_active_requests

Cache Metrics:
  - cache_hits_total, cache_misses_total, cache_entries, cache_evictions_total
    Labels: cache_type

Circuit Breaker Metrics:
  - circuit_breaker_state: 0=closed, 1=half-open, 2=open
  - circuit_breaker_requests_total, circuit_breaker_consecutive_failures,
    circuit_breaker_state_transitions_total

# Example Queries

	# Reconciliation drift corrections per hour
	sum(increase(reconcile_outcomes_total{outcome="updated"}[1h]))

	# P95 table duration
	histogram_quantile(0.95, rate(pipeline_table_duration_seconds_bucket[1d]))
*/
package metrics
