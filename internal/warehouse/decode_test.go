// Retention - Mobile Analytics Retention Pipeline and Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retention

package warehouse

import (
	"testing"
)

func TestSchemaSelect(t *testing.T) {
	got := ga4Schema.Select(EventColumns)
	want := []string{"event_date", "event_timestamp", "event_name", "event_params", "user_pseudo_id", "user_properties", "geo", "platform"}

	if len(got) != len(want) {
		t.Fatalf("Select() = %d fields, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Name != want[i] {
			t.Errorf("field %d = %s, want %s", i, got[i].Name, want[i])
		}
	}

	if all := ga4Schema.Select(nil); len(all) != len(ga4Schema) {
		t.Errorf("Select(nil) = %d fields, want all %d", len(all), len(ga4Schema))
	}
}

func TestDecodeRowShapeMismatch(t *testing.T) {
	fields := ga4Schema.Select(EventColumns)
	cells := []any{
		float64(20240101),           // event_date as number: not a string
		"not-a-number",              // event_timestamp
		"session_start",             // event_name
		map[string]any{"f": "oops"}, // event_params: not a list
		nil,                         // user_pseudo_id
	}

	row := decodeRow(fields, cells)
	if row.EventName != "session_start" {
		t.Errorf("EventName = %q, want session_start", row.EventName)
	}
	if row.EventDate != "" || row.EventTimestamp != nil || row.EventParams != nil || row.UserPseudoID != "" {
		t.Errorf("mismatched cells should decode as absent, got %+v", row)
	}
}

func TestDecodeAttributeFloat(t *testing.T) {
	item := map[string]any{"v": map[string]any{"f": []any{
		map[string]any{"v": "engagement_time_msec"},
		map[string]any{"v": map[string]any{"f": []any{
			map[string]any{"v": nil},
			map[string]any{"v": nil},
			map[string]any{"v": nil},
			map[string]any{"v": "12.5"},
		}}},
	}}}

	attrs := decodeAttributes(attributeSchema, []any{item})
	if len(attrs) != 1 {
		t.Fatalf("attrs = %+v", attrs)
	}
	v := attrs[0].Value
	if v == nil || v.DoubleValue == nil || *v.DoubleValue != 12.5 {
		t.Errorf("double_value = %+v, want 12.5", v)
	}
	if v.IntValue != nil || v.StringValue != nil {
		t.Errorf("unset slots should be nil, got %+v", v)
	}
}
