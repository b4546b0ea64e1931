// Retention - Mobile Analytics Retention Pipeline and Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retention

// Package query provides SQL query building utilities for the database package.
//
// The WhereBuilder constructs parameterized WHERE clauses with numbered
// placeholders ($1, $2, ...), which both DuckDB and PostgreSQL accept:
//
//	wb := query.NewWhereBuilder()
//	wb.AddDateRange("u.install_date", from, to)
//	wb.AddIn("u.platform", []string{"ios", "android"})
//	whereClause, args := wb.Build()
//	// Result: "u.install_date >= $1 AND u.install_date <= $2 AND u.platform IN ($3, $4)"
//
// Column names are never taken from user input; only values are bound.
package query
