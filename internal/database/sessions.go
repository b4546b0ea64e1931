// Retention - Mobile Analytics Retention Pipeline and Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retention

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/retention/internal/metrics"
	"github.com/tomtom215/retention/internal/models"
)

// GetSession looks up a session by id. Returns ErrNotFound when absent.
func (db *DB) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	start := time.Now()

	var s models.Session
	err := db.conn.QueryRowContext(ctx, `
		SELECT session_id, user_pseudo_id, session_date, session_timestamp
		FROM sessions WHERE session_id = $1`, sessionID).
		Scan(&s.SessionID, &s.UserID, &s.SessionDate, &s.SessionTimestamp)

	if errors.Is(err, sql.ErrNoRows) {
		metrics.RecordDBQuery("get_session", "sessions", time.Since(start), nil)
		return nil, ErrNotFound
	}
	metrics.RecordDBQuery("get_session", "sessions", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to get session %s: %w", sessionID, err)
	}

	s.SessionDate = s.SessionDate.UTC()
	return &s, nil
}

// InsertSession appends a session. Returns ErrDuplicate if the session id
// already exists and ErrMissingReference if the user does not.
func (db *DB) InsertSession(ctx context.Context, s *models.Session) error {
	start := time.Now()

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO sessions (session_id, user_pseudo_id, session_date, session_timestamp)
		VALUES ($1, $2, $3, $4)`,
		s.SessionID, s.UserID, dateOnly(s.SessionDate), s.SessionTimestamp)

	switch {
	case isUniqueConstraintError(err):
		metrics.RecordDBQuery("insert_session", "sessions", time.Since(start), nil)
		return ErrDuplicate
	case isForeignKeyError(err):
		metrics.RecordDBQuery("insert_session", "sessions", time.Since(start), nil)
		return ErrMissingReference
	}
	metrics.RecordDBQuery("insert_session", "sessions", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to insert session %s: %w", s.SessionID, err)
	}
	return nil
}
