// Retention - Mobile Analytics Retention Pipeline and Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retention

package models

import "time"

// Install is the canonical first-open record for one user (users table).
// InstallDate and InstallTimestamp never change after creation.
type Install struct {
	UserID           string    `json:"user_pseudo_id"`
	InstallDate      time.Time `json:"install_date"`
	InstallTimestamp int64     `json:"install_timestamp"`
	Platform         string    `json:"platform"`
	Country          string    `json:"country"`
}

// InstallFields is a partial update of the mutable Install columns.
// Nil fields are left untouched.
type InstallFields struct {
	Platform *string
	Country  *string
}

// Empty reports whether the update changes nothing.
func (f InstallFields) Empty() bool {
	return f.Platform == nil && f.Country == nil
}

// Names returns the column names set on the update, in column order.
func (f InstallFields) Names() []string {
	names := make([]string, 0, 2)
	if f.Platform != nil {
		names = append(names, "platform")
	}
	if f.Country != nil {
		names = append(names, "country")
	}
	return names
}

// Apply returns a copy of the install with the update applied.
func (f InstallFields) Apply(in Install) Install {
	if f.Platform != nil {
		in.Platform = *f.Platform
	}
	if f.Country != nil {
		in.Country = *f.Country
	}
	return in
}
