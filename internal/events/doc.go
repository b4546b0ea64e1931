// Retention - Mobile Analytics Retention Pipeline and Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retention

/*
Package events turns raw analytics export rows into installs and sessions.

Two pieces live here:

  - Extract looks up a key in a sparse attribute list (user_properties or
    event_params) and returns an explicit Value that may be absent.
  - Projector filters rows by event_name and projects first_open rows into
    models.Install and session_start rows into models.SessionStart.

Rows that lack a required attribute are returned as incomplete with a reason
instead of failing the page. Every other event_name is dropped.

Timestamps are normalized to epoch milliseconds at projection time. The source
units are configurable because the export emits first_open_time in
milliseconds but event_timestamp in microseconds.

Projection is a pure transform over one page of rows and holds no state
between pages.
*/
package events
