// Retention - Mobile Analytics Retention Pipeline and Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retention

package warehouse

import (
	"context"
	"errors"

	"github.com/tomtom215/retention/internal/models"
)

// ErrCircuitOpen is returned by ResilientClient while the breaker rejects calls.
var ErrCircuitOpen = errors.New("warehouse circuit breaker open")

// EventColumns are the top-level columns the projector reads.
var EventColumns = []string{
	"event_name",
	"user_pseudo_id",
	"user_properties",
	"event_date",
	"platform",
	"geo",
	"event_params",
	"event_timestamp",
}

// Client is the warehouse contract consumed by the pipeline.
type Client interface {
	// ListTables returns table ids of the dataset in listing order.
	ListTables(ctx context.Context) ([]string, error)

	// Schema returns the column schema of a table.
	Schema(ctx context.Context, table string) (Schema, error)

	// ReadPage reads at most req.Size rows starting at req.Token.
	ReadPage(ctx context.Context, table string, req PageRequest) (*Page, error)

	// Ping verifies the dataset is reachable.
	Ping(ctx context.Context) error
}

// PageRequest selects one page of rows. An empty Token reads the first page.
type PageRequest struct {
	Token   string
	Size    int
	Columns []string
}

// Page is one page of decoded rows. NextToken is empty on the last page.
type Page struct {
	Token     string
	Rows      []models.RawEventRow
	NextToken string
}

// Field describes one column. Fields is set for RECORD columns.
type Field struct {
	Name     string
	Type     string
	Repeated bool
	Fields   Schema
}

// Schema is an ordered list of columns.
type Schema []Field

// Select returns the top-level fields named in columns, in schema order.
// An empty columns list selects every field.
func (s Schema) Select(columns []string) Schema {
	if len(columns) == 0 {
		return s
	}
	want := make(map[string]bool, len(columns))
	for _, c := range columns {
		want[c] = true
	}
	out := make(Schema, 0, len(columns))
	for _, f := range s {
		if want[f.Name] {
			out = append(out, f)
		}
	}
	return out
}
