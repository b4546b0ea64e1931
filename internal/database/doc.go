// Retention - Mobile Analytics Retention Pipeline and Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retention

/*
Package database is the destination store for installs and sessions.

Two drivers are supported through database/sql:

  - duckdb (default): embedded file or ":memory:" database via duckdb-go
  - postgres: a PostgreSQL server via the pgx stdlib driver

Tables:

	users    (user_pseudo_id PK, install_date, install_timestamp, platform, country)
	sessions (session_id PK, user_pseudo_id, session_date, session_timestamp)

Write operations are single-statement point operations (lookup, insert,
partial update) with no transaction spanning records. Read operations back the
retention dashboard: RetentionMetrics, UniqueFilters and SessionDateRange.

Schema changes are applied by versioned migrations recorded in
schema_migrations. Timestamps are epoch milliseconds.

Errors:

  - ErrNotFound: a point lookup matched no row
  - ErrDuplicate: an insert hit an existing primary key
*/
package database
