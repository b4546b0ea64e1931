// Retention - Mobile Analytics Retention Pipeline and Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retention

package main

import (
	"errors"
	"testing"

	"github.com/tomtom215/retention/internal/pipeline"
	"github.com/tomtom215/retention/internal/reconcile"
)

func TestPartialError(t *testing.T) {
	tests := []struct {
		name    string
		summary *pipeline.RunSummary
		want    string
	}{
		{
			name:    "success",
			summary: &pipeline.RunSummary{Status: pipeline.StatusSuccess},
		},
		{
			name: "record failures only",
			summary: &pipeline.RunSummary{
				Status: pipeline.StatusPartial,
				Tables: []pipeline.TableStats{{Table: "events_20240101"}, {Table: "events_20240102"}},
				Totals: reconcile.Stats{InstallsFailed: 2, SessionsFailed: 1},
			},
			want: "run finished with failures: 0 of 2 tables failed, 3 records failed",
		},
		{
			name: "table failure",
			summary: &pipeline.RunSummary{
				Status: pipeline.StatusPartial,
				Tables: []pipeline.TableStats{{Table: "events_20240101", Err: "read page: timeout"}, {Table: "events_20240102"}},
			},
			want: "run finished with failures: 1 of 2 tables failed, 0 records failed",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := partialError(tt.summary)
			if tt.want == "" {
				if err != nil {
					t.Errorf("partialError() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, errPartial) {
				t.Fatalf("partialError() = %v, want errPartial", err)
			}
			if err.Error() != tt.want {
				t.Errorf("partialError() = %q, want %q", err.Error(), tt.want)
			}
		})
	}
}
