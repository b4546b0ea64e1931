// Retention - Mobile Analytics Retention Pipeline and Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retention

package models

import "testing"

func TestRetentionRatio(t *testing.T) {
	tests := []struct {
		name     string
		retained int64
		total    int64
		want     *float64
	}{
		{"zero total is null", 0, 0, nil},
		{"forty of hundred", 40, 100, ptr(40.00)},
		{"one third rounds to two decimals", 1, 3, ptr(33.33)},
		{"two thirds rounds half up", 2, 3, ptr(66.67)},
		{"nothing retained", 0, 7, ptr(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RetentionRatio(tt.retained, tt.total)
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("RetentionRatio(%d, %d) = %v, want nil", tt.retained, tt.total, *got)
			case tt.want != nil && got == nil:
				t.Errorf("RetentionRatio(%d, %d) = nil, want %v", tt.retained, tt.total, *tt.want)
			case tt.want != nil && *got != *tt.want:
				t.Errorf("RetentionRatio(%d, %d) = %v, want %v", tt.retained, tt.total, *got, *tt.want)
			}
		})
	}
}

func TestRetentionCountsMetrics(t *testing.T) {
	counts := RetentionCounts{TotalUsers: 100, Day1: 40, Day7: 20, Day14: 10, Day21: 5, Day30: 1}
	metrics := counts.Metrics()

	wantIDs := []string{"total-users", "d1-retention", "d7-retention", "d14-retention", "d21-retention", "d30-retention"}
	if len(metrics) != len(wantIDs) {
		t.Fatalf("len(metrics) = %d, want %d", len(metrics), len(wantIDs))
	}
	for i, id := range wantIDs {
		if metrics[i].ID != id {
			t.Errorf("metrics[%d].ID = %q, want %q", i, metrics[i].ID, id)
		}
	}

	if metrics[0].Ratio != nil {
		t.Errorf("total-users ratio = %v, want nil", *metrics[0].Ratio)
	}
	if metrics[0].Label != "Total Users" {
		t.Errorf("total-users label = %q", metrics[0].Label)
	}
	if metrics[1].Value != 40 || metrics[1].Ratio == nil || *metrics[1].Ratio != 40.00 {
		t.Errorf("d1 = %+v, want value 40 ratio 40.00", metrics[1])
	}
	if metrics[1].Label != "Day 1 Retention" {
		t.Errorf("d1 label = %q", metrics[1].Label)
	}
	if metrics[5].Value != 1 || *metrics[5].Ratio != 1.00 {
		t.Errorf("d30 = %+v, want value 1 ratio 1.00", metrics[5])
	}
}

func TestRetentionCountsMetricsEmptyCohort(t *testing.T) {
	for _, m := range (RetentionCounts{}).Metrics() {
		if m.Ratio != nil {
			t.Errorf("%s ratio = %v, want nil for empty cohort", m.ID, *m.Ratio)
		}
	}
}

func TestInstallFields(t *testing.T) {
	android := "android"
	f := InstallFields{Platform: &android}
	if f.Empty() {
		t.Fatal("Empty() = true, want false")
	}
	if names := f.Names(); len(names) != 1 || names[0] != "platform" {
		t.Errorf("Names() = %v, want [platform]", names)
	}

	in := Install{UserID: "U1", InstallTimestamp: 1704067200000, Platform: "ios", Country: "US"}
	out := f.Apply(in)
	if out.Platform != "android" || out.Country != "US" || out.InstallTimestamp != in.InstallTimestamp {
		t.Errorf("Apply() = %+v", out)
	}
	if !(InstallFields{}).Empty() {
		t.Error("zero InstallFields should be empty")
	}
}

func ptr(f float64) *float64 { return &f }
