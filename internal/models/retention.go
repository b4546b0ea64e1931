// Retention - Mobile Analytics Retention Pipeline and Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retention

package models

import (
	"math"
	"time"
)

// RetentionQuery filters the install cohort of a retention calculation.
// Zero dates and empty slices mean no filter on that dimension.
type RetentionQuery struct {
	DateFrom  time.Time
	DateTo    time.Time
	Platforms []string
	Countries []string
}

// RetentionCounts are the raw cohort counts behind the retention metrics.
type RetentionCounts struct {
	TotalUsers int64
	Day1       int64
	Day7       int64
	Day14      int64
	Day21      int64
	Day30      int64
}

// RetentionMetric is one dashboard tile. Ratio is a percentage rounded to two
// decimals, nil for total-users and whenever the cohort is empty.
type RetentionMetric struct {
	ID    string   `json:"id"`
	Value int64    `json:"value"`
	Label string   `json:"label"`
	Ratio *float64 `json:"ratio,omitempty"`
}

// FilterFacets lists the distinct filter values present in the users table.
type FilterFacets struct {
	Platforms []string `json:"platforms"`
	Countries []string `json:"countries"`
}

// SessionDateRange is the earliest and latest session_date. Both are nil when
// no sessions exist.
type SessionDateRange struct {
	EarliestDate *time.Time `json:"earliestDate"`
	LatestDate   *time.Time `json:"latestDate"`
}

// retentionWindows pairs the dashboard id and label of each retention day.
var retentionWindows = []struct {
	id    string
	label string
	day   int
}{
	{"d1-retention", "Day 1 Retention", 1},
	{"d7-retention", "Day 7 Retention", 7},
	{"d14-retention", "Day 14 Retention", 14},
	{"d21-retention", "Day 21 Retention", 21},
	{"d30-retention", "Day 30 Retention", 30},
}

// RetentionDays lists the retention day offsets, in dashboard order.
func RetentionDays() []int {
	days := make([]int, len(retentionWindows))
	for i, w := range retentionWindows {
		days[i] = w.day
	}
	return days
}

// Retained returns the retained-user count for the given day offset.
func (c RetentionCounts) Retained(day int) int64 {
	switch day {
	case 1:
		return c.Day1
	case 7:
		return c.Day7
	case 14:
		return c.Day14
	case 21:
		return c.Day21
	case 30:
		return c.Day30
	default:
		return 0
	}
}

// SetRetained stores the retained-user count for the given day offset.
// Unknown offsets are ignored.
func (c *RetentionCounts) SetRetained(day int, n int64) {
	switch day {
	case 1:
		c.Day1 = n
	case 7:
		c.Day7 = n
	case 14:
		c.Day14 = n
	case 21:
		c.Day21 = n
	case 30:
		c.Day30 = n
	}
}

// Metrics converts the counts into dashboard tiles: total-users followed by
// D1, D7, D14, D21 and D30 retention.
func (c RetentionCounts) Metrics() []RetentionMetric {
	out := make([]RetentionMetric, 0, len(retentionWindows)+1)
	out = append(out, RetentionMetric{
		ID:    "total-users",
		Value: c.TotalUsers,
		Label: "Total Users",
	})
	for _, w := range retentionWindows {
		retained := c.Retained(w.day)
		out = append(out, RetentionMetric{
			ID:    w.id,
			Value: retained,
			Label: w.label,
			Ratio: RetentionRatio(retained, c.TotalUsers),
		})
	}
	return out
}

// RetentionRatio returns round(100*retained/total, 2), or nil when total is 0.
func RetentionRatio(retained, total int64) *float64 {
	if total == 0 {
		return nil
	}
	pct := float64(retained) * 100 / float64(total)
	rounded := math.Round(pct*100) / 100
	return &rounded
}
