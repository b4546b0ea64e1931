// Retention - Mobile Analytics Retention Pipeline and Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retention

package query

import (
	"testing"
	"time"
)

func TestWhereBuilder_Empty(t *testing.T) {
	wb := NewWhereBuilder()

	if !wb.IsEmpty() {
		t.Error("Expected new builder to be empty")
	}
	if wb.Count() != 0 {
		t.Errorf("Expected count 0, got %d", wb.Count())
	}

	whereClause, args := wb.Build()
	if whereClause != "1=1" {
		t.Errorf("Expected '1=1' for empty builder, got %q", whereClause)
	}
	if len(args) != 0 {
		t.Errorf("Expected 0 args, got %d", len(args))
	}
}

func TestWhereBuilder_AddDateRange(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		from, to time.Time
		want     string
		wantArgs int
	}{
		{"both bounds", from, to, "install_date >= $1 AND install_date <= $2", 2},
		{"from only", from, time.Time{}, "install_date >= $1", 1},
		{"to only", time.Time{}, to, "install_date <= $1", 1},
		{"neither", time.Time{}, time.Time{}, "1=1", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, args := NewWhereBuilder().AddDateRange("install_date", tt.from, tt.to).Build()
			if got != tt.want {
				t.Errorf("Build() = %q, want %q", got, tt.want)
			}
			if len(args) != tt.wantArgs {
				t.Errorf("len(args) = %d, want %d", len(args), tt.wantArgs)
			}
		})
	}
}

func TestWhereBuilder_AddIn(t *testing.T) {
	wb := NewWhereBuilder()
	wb.AddIn("platform", []string{"ios", "android"})
	wb.AddIn("country", nil)
	wb.AddIn("country", []string{"US"})

	got, args := wb.Build()
	want := "platform IN ($1, $2) AND country IN ($3)"
	if got != want {
		t.Errorf("Build() = %q, want %q", got, want)
	}
	if len(args) != 3 || args[0] != "ios" || args[2] != "US" {
		t.Errorf("args = %v", args)
	}
	if wb.Count() != 2 {
		t.Errorf("Count() = %d, want 2", wb.Count())
	}
}

func TestWhereBuilder_NumberingAcrossClauses(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	wb := NewWhereBuilder()
	wb.AddClause("user_pseudo_id = %s", "U1")
	wb.AddDateRange("install_date", from, time.Time{})
	wb.AddIn("platform", []string{"ios"})

	got, args := wb.BuildWithPrefix()
	want := "WHERE user_pseudo_id = $1 AND install_date >= $2 AND platform IN ($3)"
	if got != want {
		t.Errorf("BuildWithPrefix() = %q, want %q", got, want)
	}
	if len(args) != 3 {
		t.Errorf("len(args) = %d, want 3", len(args))
	}
}
