// Retention - Mobile Analytics Retention Pipeline and Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retention

package query

import (
	"fmt"
	"strings"
	"time"
)

// WhereBuilder accumulates AND-joined clauses and their bound arguments.
type WhereBuilder struct {
	clauses []string
	args    []any
}

// NewWhereBuilder creates an empty builder.
func NewWhereBuilder() *WhereBuilder {
	return &WhereBuilder{
		clauses: make([]string, 0, 4),
		args:    make([]any, 0, 8),
	}
}

// next binds value and returns its placeholder.
func (wb *WhereBuilder) next(value any) string {
	wb.args = append(wb.args, value)
	return fmt.Sprintf("$%d", len(wb.args))
}

// AddClause adds a clause with a single bound value: clause must contain one
// "%s" where the placeholder goes.
func (wb *WhereBuilder) AddClause(clause string, value any) *WhereBuilder {
	wb.clauses = append(wb.clauses, fmt.Sprintf(clause, wb.next(value)))
	return wb
}

// AddDateRange adds inclusive bounds on column. Zero times are skipped.
func (wb *WhereBuilder) AddDateRange(column string, from, to time.Time) *WhereBuilder {
	if !from.IsZero() {
		wb.clauses = append(wb.clauses, fmt.Sprintf("%s >= %s", column, wb.next(from)))
	}
	if !to.IsZero() {
		wb.clauses = append(wb.clauses, fmt.Sprintf("%s <= %s", column, wb.next(to)))
	}
	return wb
}

// AddIn adds "column IN (...)" for a non-empty values list.
func (wb *WhereBuilder) AddIn(column string, values []string) *WhereBuilder {
	if len(values) == 0 {
		return wb
	}
	placeholders := make([]string, len(values))
	for i, v := range values {
		placeholders[i] = wb.next(v)
	}
	wb.clauses = append(wb.clauses, fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ", ")))
	return wb
}

// Build returns the clauses joined with AND, or "1=1" when empty.
func (wb *WhereBuilder) Build() (string, []any) {
	if len(wb.clauses) == 0 {
		return "1=1", []any{}
	}
	return strings.Join(wb.clauses, " AND "), wb.args
}

// BuildWithPrefix returns the WHERE clause with "WHERE " prefix.
func (wb *WhereBuilder) BuildWithPrefix() (string, []any) {
	whereClause, args := wb.Build()
	return "WHERE " + whereClause, args
}

// Count returns the number of clauses added to the builder.
func (wb *WhereBuilder) Count() int {
	return len(wb.clauses)
}

// IsEmpty returns true if no clauses have been added.
func (wb *WhereBuilder) IsEmpty() bool {
	return len(wb.clauses) == 0
}
