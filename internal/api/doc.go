// Retention - Mobile Analytics Retention Pipeline and Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retention

/*
Package api provides the HTTP REST API for the retention dashboard.

Endpoints (all under /api/v1):

  - GET  /retention            total users and D1/D7/D14/D21/D30 retention
  - GET  /filters              distinct platforms and countries
  - GET  /sessions/date-range  earliest and latest session date
  - GET  /health/live          liveness probe
  - GET  /health/ready         store and warehouse reachability
  - POST /pipeline/run         start a pipeline run (202, or 409 if one is active)
  - GET  /pipeline/status      current and last run summary

Prometheus metrics are served at /metrics.

Retention query parameters:

	dateFrom   install date lower bound, YYYY-MM-DD or RFC3339 (inclusive)
	dateTo     install date upper bound (inclusive)
	platforms  repeated or comma separated, e.g. platforms=ios,android
	countries  repeated or comma separated

Every response uses the same envelope:

	{
	  "success": true,
	  "data": [...],
	  "meta": {"request_id": "...", "timestamp": "...", "duration_ms": 3, "cached": true}
	}

Errors carry a code and a generic message; store errors never leak into the
response body:

	{"success": false, "error": {"code": "DATABASE_ERROR", "message": "A database error occurred"}}

Query responses are cached per normalized filter set when a cache is
configured, and the cache is cleared after every finished pipeline run.

Usage Example:

	handler := api.NewHandler(db, logging.Logger(),
	    api.WithWarehouse(client),
	    api.WithRunner(runner),
	    api.WithCache(cache.New("api", cfg.Server.CacheTTL)),
	)
	srv := &http.Server{Handler: api.NewRouter(handler, &cfg.Server)}
*/
package api
