// Retention - Mobile Analytics Retention Pipeline and Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retention

package events

import (
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/retention/internal/models"
)

// EventDateLayout is the layout of the event_date column.
const EventDateLayout = "20060102"

// Reasons a projected record is incomplete.
const (
	ReasonMissingUserID      = "missing user_pseudo_id"
	ReasonMissingInstallTime = "missing first_open_time"
	ReasonMissingSessionID   = "missing ga_session_id"
	ReasonMissingEventTime   = "missing event_timestamp"
	ReasonInvalidEventDate   = "invalid event_date"
)

// Projected wraps a projected record. Incomplete records carry the reason and
// must not be written.
type Projected[T any] struct {
	Record     T
	Incomplete bool
	Reason     string
}

// Complete returns the records that are not incomplete, in input order.
func Complete[T any](in []Projected[T]) []T {
	out := make([]T, 0, len(in))
	for i := range in {
		if !in[i].Incomplete {
			out = append(out, in[i].Record)
		}
	}
	return out
}

// Projector projects raw rows into installs and sessions.
type Projector struct {
	logger      zerolog.Logger
	installUnit TimeUnit
	sessionUnit TimeUnit
}

// NewProjector creates a projector. installUnit is the unit of the
// first_open_time attribute; sessionUnit is the unit of event_timestamp.
func NewProjector(logger zerolog.Logger, installUnit, sessionUnit TimeUnit) *Projector {
	return &Projector{
		logger:      logger,
		installUnit: installUnit,
		sessionUnit: sessionUnit,
	}
}

// ProjectInstalls projects first_open rows. Other rows are skipped.
func (p *Projector) ProjectInstalls(rows []models.RawEventRow) []Projected[models.Install] {
	var out []Projected[models.Install]
	for i := range rows {
		row := &rows[i]
		if row.EventName != models.EventFirstOpen {
			continue
		}

		rec := models.Install{
			UserID:   row.UserPseudoID,
			Platform: row.Platform,
			Country:  country(row),
		}
		reason := ""

		ts, ok := Extract(row.UserProperties, models.AttrFirstOpenTime).Int()
		if ok {
			rec.InstallTimestamp = p.installUnit.ToMillis(ts)
		} else {
			reason = ReasonMissingInstallTime
		}

		if date, err := parseEventDate(row.EventDate); err == nil {
			rec.InstallDate = date
		} else if reason == "" {
			reason = ReasonInvalidEventDate
		}

		if rec.UserID == "" {
			reason = ReasonMissingUserID
		}

		p.logIncomplete(reason, row)
		out = append(out, projected(rec, reason))
	}
	return out
}

// ProjectSessions projects session_start rows. Other rows are skipped.
func (p *Projector) ProjectSessions(rows []models.RawEventRow) []Projected[models.SessionStart] {
	var out []Projected[models.SessionStart]
	for i := range rows {
		row := &rows[i]
		if row.EventName != models.EventSessionStart {
			continue
		}

		rec := models.SessionStart{
			Session:  models.Session{UserID: row.UserPseudoID},
			Platform: row.Platform,
			Country:  country(row),
		}
		reason := ""

		if row.EventTimestamp != nil {
			rec.SessionTimestamp = p.sessionUnit.ToMillis(*row.EventTimestamp)
		} else {
			reason = ReasonMissingEventTime
		}

		if date, err := parseEventDate(row.EventDate); err == nil {
			rec.SessionDate = date
		} else if reason == "" {
			reason = ReasonInvalidEventDate
		}

		// ga_session_id is an int_value in the export; stored as text.
		sid := Extract(row.EventParams, models.AttrGASessionID)
		if id, ok := sid.Int(); ok {
			rec.SessionID = strconv.FormatInt(id, 10)
		} else if s, ok := sid.String(); ok && s != "" {
			rec.SessionID = s
		} else {
			reason = ReasonMissingSessionID
		}

		if rec.UserID == "" {
			reason = ReasonMissingUserID
		}

		p.logIncomplete(reason, row)
		out = append(out, projected(rec, reason))
	}
	return out
}

func projected[T any](rec T, reason string) Projected[T] {
	return Projected[T]{Record: rec, Incomplete: reason != "", Reason: reason}
}

func (p *Projector) logIncomplete(reason string, row *models.RawEventRow) {
	if reason == "" {
		return
	}
	p.logger.Warn().
		Str("event_name", row.EventName).
		Str("user_pseudo_id", row.UserPseudoID).
		Str("event_date", row.EventDate).
		Str("reason", reason).
		Msg("Incomplete event row excluded")
}

// country returns geo.country, or "" when the row has no geo record.
func country(row *models.RawEventRow) string {
	if row.Geo == nil {
		return ""
	}
	return row.Geo.Country
}

func parseEventDate(s string) (time.Time, error) {
	return time.ParseInLocation(EventDateLayout, s, time.UTC)
}
