// Retention - Mobile Analytics Retention Pipeline and Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retention

package reconcile

import (
	"context"

	"github.com/tomtom215/retention/internal/models"
)

// Stats counts reconciliation outcomes.
type Stats struct {
	InstallsInserted int64 `json:"installs_inserted"`
	InstallsExisting int64 `json:"installs_existing"`
	InstallsFailed   int64 `json:"installs_failed"`

	SessionsInserted   int64 `json:"sessions_inserted"`
	SessionsExisting   int64 `json:"sessions_existing"`
	SessionsNoSuchUser int64 `json:"sessions_no_such_user"`
	SessionsFailed     int64 `json:"sessions_failed"`

	// DriftCorrections counts installs updated from session evidence. Each
	// such session is also counted in SessionsInserted.
	DriftCorrections int64 `json:"drift_corrections"`
}

// AddInstall counts one install outcome.
func (s *Stats) AddInstall(o Outcome) {
	switch o {
	case OutcomeInserted:
		s.InstallsInserted++
	case OutcomeExists:
		s.InstallsExisting++
	default:
		s.InstallsFailed++
	}
}

// AddSession counts one session outcome.
func (s *Stats) AddSession(o Outcome) {
	switch o {
	case OutcomeInserted:
		s.SessionsInserted++
	case OutcomeDriftCorrected:
		s.SessionsInserted++
		s.DriftCorrections++
	case OutcomeExists:
		s.SessionsExisting++
	case OutcomeNoSuchUser:
		s.SessionsNoSuchUser++
	default:
		s.SessionsFailed++
	}
}

// Merge adds other into s.
func (s *Stats) Merge(other Stats) {
	s.InstallsInserted += other.InstallsInserted
	s.InstallsExisting += other.InstallsExisting
	s.InstallsFailed += other.InstallsFailed
	s.SessionsInserted += other.SessionsInserted
	s.SessionsExisting += other.SessionsExisting
	s.SessionsNoSuchUser += other.SessionsNoSuchUser
	s.SessionsFailed += other.SessionsFailed
	s.DriftCorrections += other.DriftCorrections
}

// Failures returns the number of records that failed on a store error.
func (s Stats) Failures() int64 {
	return s.InstallsFailed + s.SessionsFailed
}

// ReconcileBatch reconciles every install before any session, in input
// order, and returns the outcome counts.
func (e *Engine) ReconcileBatch(ctx context.Context, installs []models.Install, sessions []models.SessionStart) Stats {
	var stats Stats
	for _, in := range installs {
		stats.AddInstall(e.ReconcileInstall(ctx, in))
	}
	for _, s := range sessions {
		stats.AddSession(e.ReconcileSession(ctx, s))
	}
	return stats
}
