// Retention - Mobile Analytics Retention Pipeline and Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retention

package warehouse

import (
	"strconv"

	"github.com/tomtom215/retention/internal/models"
)

// tabledata.list encodes every row as {"f":[{"v":...}, ...]}. Scalars arrive
// as strings (INT64 and FLOAT64 included), NULL as nil, RECORD as a nested
// {"f":[...]} and REPEATED as [{"v":...}, ...].

// decodeRow decodes the cell values of one row against the selected schema.
// Cells that do not match their expected shape decode as absent.
func decodeRow(fields Schema, cells []any) models.RawEventRow {
	var row models.RawEventRow
	for i, f := range fields {
		if i >= len(cells) {
			break
		}
		v := cells[i]
		switch f.Name {
		case "event_name":
			row.EventName, _ = cellString(v)
		case "user_pseudo_id":
			row.UserPseudoID, _ = cellString(v)
		case "event_date":
			row.EventDate, _ = cellString(v)
		case "event_timestamp":
			row.EventTimestamp = cellInt(v)
		case "platform":
			row.Platform, _ = cellString(v)
		case "geo":
			row.Geo = decodeGeo(f.Fields, v)
		case "user_properties":
			row.UserProperties = decodeAttributes(f.Fields, v)
		case "event_params":
			row.EventParams = decodeAttributes(f.Fields, v)
		}
	}
	return row
}

func decodeGeo(fields Schema, v any) *models.Geo {
	rec := recordMap(fields, v)
	if rec == nil {
		return nil
	}
	geo := &models.Geo{}
	geo.Country, _ = cellString(rec["country"])
	geo.Region, _ = cellString(rec["region"])
	geo.City, _ = cellString(rec["city"])
	return geo
}

func decodeAttributes(fields Schema, v any) []models.Attribute {
	items := repeated(v)
	if items == nil {
		return nil
	}
	valueFields := fields.field("value").Fields

	attrs := make([]models.Attribute, 0, len(items))
	for _, item := range items {
		rec := recordMap(fields, item)
		if rec == nil {
			continue
		}
		key, _ := cellString(rec["key"])
		attr := models.Attribute{Key: key}
		if val := recordMap(valueFields, rec["value"]); val != nil {
			attr.Value = &models.AttributeValue{
				IntValue:    cellInt(val["int_value"]),
				FloatValue:  cellFloat(val["float_value"]),
				DoubleValue: cellFloat(val["double_value"]),
			}
			if s, ok := cellString(val["string_value"]); ok {
				attr.Value.StringValue = &s
			}
		}
		attrs = append(attrs, attr)
	}
	return attrs
}

func (s Schema) field(name string) Field {
	for _, f := range s {
		if f.Name == name {
			return f
		}
	}
	return Field{}
}

// recordMap maps the sub-field names of a RECORD cell to their raw values.
func recordMap(fields Schema, v any) map[string]any {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	cells, ok := m["f"].([]any)
	if !ok {
		return nil
	}
	out := make(map[string]any, len(fields))
	for i, f := range fields {
		if i >= len(cells) {
			break
		}
		out[f.Name] = cellValue(cells[i])
	}
	return out
}

// repeated returns the element values of a REPEATED cell.
func repeated(v any) []any {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]any, 0, len(list))
	for _, item := range list {
		out = append(out, cellValue(item))
	}
	return out
}

// cellValue unwraps {"v": x} to x.
func cellValue(c any) any {
	if m, ok := c.(map[string]any); ok {
		if v, ok := m["v"]; ok {
			return v
		}
	}
	return nil
}

func cellString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func cellInt(v any) *int64 {
	switch t := v.(type) {
	case string:
		n, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			return nil
		}
		return &n
	case float64:
		n := int64(t)
		return &n
	}
	return nil
}

func cellFloat(v any) *float64 {
	switch t := v.(type) {
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return nil
		}
		return &f
	case float64:
		return &t
	}
	return nil
}
