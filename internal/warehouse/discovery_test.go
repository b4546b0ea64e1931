// Retention - Mobile Analytics Retention Pipeline and Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retention

package warehouse

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func TestTableFilterMatch(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"events_20240101", true},
		{"events_20231231", true},
		{"events_intraday_20240101", false},
		{"events_2024010", false},
		{"pseudonymous_users_20240101", false},
		{"xevents_2024010", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if got := DefaultTableFilter.Match(tt.id); got != tt.want {
				t.Errorf("Match(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

func TestDiscoverTablesPreservesOrder(t *testing.T) {
	fc := newFakeClient()
	fc.addTable("events_20240105", nil)
	fc.addTable("events_intraday_20240106", nil)
	fc.addTable("events_20240101", nil)
	fc.addTable("users_20240101", nil)
	fc.addTable("events_20240103", nil)

	got, err := DiscoverTables(context.Background(), fc, DefaultTableFilter)
	if err != nil {
		t.Fatalf("DiscoverTables() error = %v", err)
	}

	want := []string{"events_20240105", "events_20240101", "events_20240103"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DiscoverTables() = %v, want %v", got, want)
	}
}

func TestDiscoverTablesEmpty(t *testing.T) {
	got, err := DiscoverTables(context.Background(), newFakeClient(), DefaultTableFilter)
	if err != nil {
		t.Fatalf("DiscoverTables() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("DiscoverTables() = %v, want empty", got)
	}
}

func TestDiscoverTablesError(t *testing.T) {
	fc := newFakeClient()
	fc.listErr = errors.New("permission denied")

	if _, err := DiscoverTables(context.Background(), fc, DefaultTableFilter); err == nil {
		t.Error("DiscoverTables() error = nil, want error")
	}
}
