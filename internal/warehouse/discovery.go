// Retention - Mobile Analytics Retention Pipeline and Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retention

package warehouse

import (
	"context"
	"fmt"
	"strings"
)

// TableFilter selects daily event tables from a dataset listing.
type TableFilter struct {
	Prefix string
	Length int
}

// DefaultTableFilter matches events_YYYYMMDD and excludes events_intraday_*.
var DefaultTableFilter = TableFilter{Prefix: "events", Length: 15}

// Match reports whether id is a daily event table.
func (f TableFilter) Match(id string) bool {
	if f.Length > 0 && len(id) != f.Length {
		return false
	}
	return strings.HasPrefix(id, f.Prefix)
}

// Filter keeps matching ids in their original order.
func (f TableFilter) Filter(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if f.Match(id) {
			out = append(out, id)
		}
	}
	return out
}

// DiscoverTables lists the dataset and returns the matching table ids in
// listing order. An empty result is not an error.
func DiscoverTables(ctx context.Context, client Client, f TableFilter) ([]string, error) {
	ids, err := client.ListTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("table discovery: %w", err)
	}
	return f.Filter(ids), nil
}
