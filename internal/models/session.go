// Retention - Mobile Analytics Retention Pipeline and Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retention

package models

import "time"

// Session is one session-start record (sessions table). Sessions are
// append-only; an existing row is never modified.
type Session struct {
	SessionID        string    `json:"session_id"`
	UserID           string    `json:"user_pseudo_id"`
	SessionDate      time.Time `json:"session_date"`
	SessionTimestamp int64     `json:"session_timestamp"`
}

// SessionStart is a projected session together with the platform and country
// observed on the event. The observation is not persisted on the session row;
// it feeds drift correction of the owning Install.
type SessionStart struct {
	Session
	Platform string `json:"platform"`
	Country  string `json:"country"`
}
