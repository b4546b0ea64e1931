// Retention - Mobile Analytics Retention Pipeline and Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retention

package models

// Event names the pipeline projects. Every other event_name is ignored.
const (
	EventFirstOpen    = "first_open"
	EventSessionStart = "session_start"
)

// Attribute keys read from the nested attribute lists.
const (
	AttrFirstOpenTime = "first_open_time"
	AttrGASessionID   = "ga_session_id"
)

// RawEventRow is a warehouse-native event row restricted to the columns the
// projector needs. Nil slices and pointers mean the column was absent or NULL.
type RawEventRow struct {
	EventName      string
	UserPseudoID   string
	EventDate      string // YYYYMMDD
	EventTimestamp *int64 // as emitted by the export (microseconds for GA4)
	Platform       string
	Geo            *Geo
	UserProperties []Attribute
	EventParams    []Attribute
}

// Geo is the geo sub-record of an event row.
type Geo struct {
	Country string
	Region  string
	City    string
}

// Attribute is one {key, value} pair of user_properties or event_params.
type Attribute struct {
	Key   string
	Value *AttributeValue
}

// AttributeValue holds the typed value slots of an attribute. At most one is
// normally set by the export.
type AttributeValue struct {
	StringValue *string
	IntValue    *int64
	FloatValue  *float64
	DoubleValue *float64
}
