// Retention - Mobile Analytics Retention Pipeline and Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retention

package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/retention/internal/database/query"
	"github.com/tomtom215/retention/internal/metrics"
	"github.com/tomtom215/retention/internal/models"
)

const hourMillis int64 = 3600 * 1000

// retentionWindowExpr counts distinct cohort users with a session in
// [24*day, 24*day+24) hours after install.
func retentionWindowExpr(day int) string {
	lo := int64(24*day) * hourMillis
	hi := lo + 24*hourMillis
	return fmt.Sprintf(`COUNT(DISTINCT CASE
		WHEN s.session_timestamp > u.install_timestamp
		 AND s.session_timestamp - u.install_timestamp >= %d
		 AND s.session_timestamp - u.install_timestamp < %d
		THEN u.user_pseudo_id END)`, lo, hi)
}

func retentionWhere(q models.RetentionQuery) (string, []any) {
	wb := query.NewWhereBuilder()
	var from, to time.Time
	if !q.DateFrom.IsZero() {
		from = dateOnly(q.DateFrom)
	}
	if !q.DateTo.IsZero() {
		to = dateOnly(q.DateTo)
	}
	wb.AddDateRange("u.install_date", from, to)
	wb.AddIn("u.platform", q.Platforms)
	wb.AddIn("u.country", q.Countries)
	return wb.BuildWithPrefix()
}

// RetentionCounts computes the cohort size and the D1/D7/D14/D21/D30
// retained-user counts for installs matching q.
func (db *DB) RetentionCounts(ctx context.Context, q models.RetentionQuery) (models.RetentionCounts, error) {
	days := models.RetentionDays()
	cols := make([]string, 0, len(days)+1)
	cols = append(cols, "COUNT(DISTINCT u.user_pseudo_id)")
	for _, d := range days {
		cols = append(cols, retentionWindowExpr(d))
	}

	where, args := retentionWhere(q)
	stmt := fmt.Sprintf(`SELECT %s
		FROM users u
		LEFT JOIN sessions s ON s.user_pseudo_id = u.user_pseudo_id
		%s`, strings.Join(cols, ",\n\t\t"), where)

	start := time.Now()
	var total int64
	retained := make([]int64, len(days))
	dest := make([]any, 0, len(days)+1)
	dest = append(dest, &total)
	for i := range retained {
		dest = append(dest, &retained[i])
	}

	err := db.conn.QueryRowContext(ctx, stmt, args...).Scan(dest...)
	metrics.RecordDBQuery("retention_counts", "users", time.Since(start), err)
	if err != nil {
		return models.RetentionCounts{}, fmt.Errorf("failed to compute retention: %w", err)
	}

	counts := models.RetentionCounts{TotalUsers: total}
	for i, d := range days {
		counts.SetRetained(d, retained[i])
	}
	return counts, nil
}

// RetentionMetrics returns the dashboard tiles for installs matching q.
func (db *DB) RetentionMetrics(ctx context.Context, q models.RetentionQuery) ([]models.RetentionMetric, error) {
	counts, err := db.RetentionCounts(ctx, q)
	if err != nil {
		return nil, err
	}
	return counts.Metrics(), nil
}

// UniqueFilters returns the distinct platforms and countries in
// ascending order.
func (db *DB) UniqueFilters(ctx context.Context) (*models.FilterFacets, error) {
	platforms, err := db.distinctValues(ctx, "platform")
	if err != nil {
		return nil, err
	}
	countries, err := db.distinctValues(ctx, "country")
	if err != nil {
		return nil, err
	}
	return &models.FilterFacets{Platforms: platforms, Countries: countries}, nil
}

// distinctValues lists every distinct value of a users column, including ""
// left behind by drift correction. column is always one of the fixed facet
// names.
func (db *DB) distinctValues(ctx context.Context, column string) ([]string, error) {
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, fmt.Sprintf(
		`SELECT DISTINCT %[1]s FROM users ORDER BY %[1]s`, column))
	if err != nil {
		metrics.RecordDBQuery("distinct_"+column, "users", time.Since(start), err)
		return nil, fmt.Errorf("failed to list %s values: %w", column, err)
	}
	defer closeQuietly(rows)

	values := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan %s value: %w", column, err)
		}
		values = append(values, v)
	}
	err = rows.Err()
	metrics.RecordDBQuery("distinct_"+column, "users", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s values: %w", column, err)
	}
	return values, nil
}

// SessionDateRange returns the earliest and latest session_date. Both are nil
// when there are no sessions.
func (db *DB) SessionDateRange(ctx context.Context) (*models.SessionDateRange, error) {
	start := time.Now()

	var earliest, latest sql.NullTime
	err := db.conn.QueryRowContext(ctx,
		`SELECT MIN(session_date), MAX(session_date) FROM sessions`).Scan(&earliest, &latest)
	metrics.RecordDBQuery("session_date_range", "sessions", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to get session date range: %w", err)
	}

	out := &models.SessionDateRange{}
	if earliest.Valid {
		e := earliest.Time.UTC()
		out.EarliestDate = &e
	}
	if latest.Valid {
		l := latest.Time.UTC()
		out.LatestDate = &l
	}
	return out, nil
}
