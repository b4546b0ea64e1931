// Retention - Mobile Analytics Retention Pipeline and Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retention

package events

import (
	"math"
	"strconv"
	"strings"

	"github.com/tomtom215/retention/internal/models"
)

// Value is the result of an attribute lookup. The zero Value is absent.
type Value struct {
	v       *models.AttributeValue
	present bool
}

// Extract returns the value of the first attribute whose key matches.
// A nil list, a missing key and a nil value slot all yield an absent Value.
func Extract(attrs []models.Attribute, key string) Value {
	for i := range attrs {
		if attrs[i].Key != key {
			continue
		}
		if attrs[i].Value == nil {
			return Value{}
		}
		return Value{v: attrs[i].Value, present: true}
	}
	return Value{}
}

// Present reports whether a matching attribute with a value was found.
func (v Value) Present() bool {
	return v.present
}

// Int returns the value as an integer. int_value is preferred; float and
// double values are truncated toward zero; a numeric string_value is parsed.
func (v Value) Int() (int64, bool) {
	if !v.present {
		return 0, false
	}
	if v.v.IntValue != nil {
		return *v.v.IntValue, true
	}
	if v.v.DoubleValue != nil {
		return truncate(*v.v.DoubleValue)
	}
	if v.v.FloatValue != nil {
		return truncate(*v.v.FloatValue)
	}
	if v.v.StringValue != nil {
		s := strings.TrimSpace(*v.v.StringValue)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return truncate(f)
		}
	}
	return 0, false
}

// String returns the value as a string. string_value is preferred; numeric
// slots are formatted in base 10.
func (v Value) String() (string, bool) {
	if !v.present {
		return "", false
	}
	switch {
	case v.v.StringValue != nil:
		return *v.v.StringValue, true
	case v.v.IntValue != nil:
		return strconv.FormatInt(*v.v.IntValue, 10), true
	case v.v.DoubleValue != nil:
		return strconv.FormatFloat(*v.v.DoubleValue, 'f', -1, 64), true
	case v.v.FloatValue != nil:
		return strconv.FormatFloat(*v.v.FloatValue, 'f', -1, 64), true
	}
	return "", false
}

func truncate(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f >= math.MaxInt64 || f <= math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}
