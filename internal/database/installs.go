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
	"strings"
	"time"

	"github.com/tomtom215/retention/internal/metrics"
	"github.com/tomtom215/retention/internal/models"
)

// GetInstall looks up an install by user id. Returns ErrNotFound when absent.
func (db *DB) GetInstall(ctx context.Context, userID string) (*models.Install, error) {
	start := time.Now()

	var in models.Install
	err := db.conn.QueryRowContext(ctx, `
		SELECT user_pseudo_id, install_date, install_timestamp, platform, country
		FROM users WHERE user_pseudo_id = $1`, userID).
		Scan(&in.UserID, &in.InstallDate, &in.InstallTimestamp, &in.Platform, &in.Country)

	if errors.Is(err, sql.ErrNoRows) {
		metrics.RecordDBQuery("get_install", "users", time.Since(start), nil)
		return nil, ErrNotFound
	}
	metrics.RecordDBQuery("get_install", "users", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to get install %s: %w", userID, err)
	}

	in.InstallDate = in.InstallDate.UTC()
	return &in, nil
}

// InsertInstall inserts a new install. Returns ErrDuplicate if the user id
// already exists.
func (db *DB) InsertInstall(ctx context.Context, in *models.Install) error {
	start := time.Now()

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO users (user_pseudo_id, install_date, install_timestamp, platform, country)
		VALUES ($1, $2, $3, $4, $5)`,
		in.UserID, dateOnly(in.InstallDate), in.InstallTimestamp, in.Platform, in.Country)

	if isUniqueConstraintError(err) {
		metrics.RecordDBQuery("insert_install", "users", time.Since(start), nil)
		return ErrDuplicate
	}
	metrics.RecordDBQuery("insert_install", "users", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to insert install %s: %w", in.UserID, err)
	}
	return nil
}

// UpdateInstallFields applies a partial update to the mutable install
// columns. Only the fields set on f are written. Returns ErrNotFound when no
// row matched.
func (db *DB) UpdateInstallFields(ctx context.Context, userID string, f models.InstallFields) error {
	if f.Empty() {
		return nil
	}

	sets := make([]string, 0, 2)
	args := make([]any, 0, 3)
	if f.Platform != nil {
		args = append(args, *f.Platform)
		sets = append(sets, fmt.Sprintf("platform = $%d", len(args)))
	}
	if f.Country != nil {
		args = append(args, *f.Country)
		sets = append(sets, fmt.Sprintf("country = $%d", len(args)))
	}
	args = append(args, userID)

	query := fmt.Sprintf("UPDATE users SET %s WHERE user_pseudo_id = $%d", strings.Join(sets, ", "), len(args))

	start := time.Now()
	res, err := db.conn.ExecContext(ctx, query, args...)
	metrics.RecordDBQuery("update_install", "users", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to update install %s: %w", userID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected for %s: %w", userID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// dateOnly truncates t to its UTC calendar date.
func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
