// Retention - Mobile Analytics Retention Pipeline and Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retention

/*
Package models defines data structures shared by the retention pipeline and the
dashboard API.

Key Components:

  - RawEventRow: an analytics-export event row as read from the warehouse.
    Ephemeral; consumed by the projector and never persisted.
  - Install: one row of the users table, created from a first_open event.
  - Session / SessionStart: one row of the sessions table, created from a
    session_start event. SessionStart also carries the platform/country
    evidence used for install drift correction.
  - RetentionMetric, FilterFacets, SessionDateRange: read models served by the
    dashboard API.

All timestamps on Install and Session are epoch milliseconds.
*/
package models
