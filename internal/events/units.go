// Retention - Mobile Analytics Retention Pipeline and Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retention

package events

import "fmt"

// TimeUnit is the unit of an epoch timestamp emitted by the export.
type TimeUnit string

const (
	Seconds      TimeUnit = "seconds"
	Milliseconds TimeUnit = "milliseconds"
	Microseconds TimeUnit = "microseconds"
)

// ParseTimeUnit validates a configured unit name.
func ParseTimeUnit(s string) (TimeUnit, error) {
	switch u := TimeUnit(s); u {
	case Seconds, Milliseconds, Microseconds:
		return u, nil
	}
	return "", fmt.Errorf("unknown timestamp unit %q", s)
}

// ToMillis converts v from unit u to epoch milliseconds, truncating.
func (u TimeUnit) ToMillis(v int64) int64 {
	switch u {
	case Seconds:
		return v * 1000
	case Microseconds:
		return v / 1000
	default:
		return v
	}
}
