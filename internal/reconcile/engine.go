// Retention - Mobile Analytics Retention Pipeline and Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retention

package reconcile

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tomtom215/retention/internal/database"
	"github.com/tomtom215/retention/internal/logging"
	"github.com/tomtom215/retention/internal/metrics"
	"github.com/tomtom215/retention/internal/models"
)

// Store is the point-operation contract the engine needs. *database.DB
// implements it. Lookups return database.ErrNotFound when absent and inserts
// return database.ErrDuplicate on an existing key.
type Store interface {
	GetInstall(ctx context.Context, userID string) (*models.Install, error)
	InsertInstall(ctx context.Context, in *models.Install) error
	UpdateInstallFields(ctx context.Context, userID string, f models.InstallFields) error
	GetSession(ctx context.Context, sessionID string) (*models.Session, error)
	InsertSession(ctx context.Context, s *models.Session) error
}

// Outcome is the terminal state of one reconciled record.
type Outcome string

const (
	OutcomeInserted       Outcome = "inserted"
	OutcomeExists         Outcome = "exists"
	OutcomeNoSuchUser     Outcome = "no_such_user"
	OutcomeDriftCorrected Outcome = "drift_corrected"
	OutcomeFailed         Outcome = "failed"
)

// Entity labels for metrics.
const (
	entityInstall = "install"
	entitySession = "session"
)

// Engine reconciles records one at a time against a Store.
type Engine struct {
	store  Store
	logger zerolog.Logger
}

// NewEngine creates an engine writing to store.
func NewEngine(store Store, logger zerolog.Logger) *Engine {
	return &Engine{store: store, logger: logger}
}

// ReconcileInstall inserts in unless the user already exists. Stored
// platform and country are never overwritten here.
func (e *Engine) ReconcileInstall(ctx context.Context, in models.Install) Outcome {
	outcome := e.reconcileInstall(ctx, in)
	metrics.RecordReconcileOutcome(entityInstall, string(outcome))
	return outcome
}

func (e *Engine) reconcileInstall(ctx context.Context, in models.Install) Outcome {
	log := e.logger.With().Str("user_pseudo_id", in.UserID).Logger()

	_, err := e.store.GetInstall(ctx, in.UserID)
	switch {
	case err == nil:
		log.Info().Msgf("user - %s exists in database, moving on to next user", in.UserID)
		return OutcomeExists
	case !errors.Is(err, database.ErrNotFound):
		log.Error().Err(err).Msg("Install lookup failed")
		return OutcomeFailed
	}

	log.Debug().Msgf("starting the insert operation for user - %s", in.UserID)
	if err := e.store.InsertInstall(ctx, &in); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			log.Info().Msg("Install inserted concurrently, treating as existing")
			return OutcomeExists
		}
		log.Error().Err(err).Msg("Install insert failed")
		return OutcomeFailed
	}

	logging.Success(&log).Msgf("user - %s inserted to database", in.UserID)
	return OutcomeInserted
}

// ReconcileSession appends the session when its user exists and the session
// does not, then corrects platform/country drift on the install.
func (e *Engine) ReconcileSession(ctx context.Context, s models.SessionStart) Outcome {
	outcome := e.reconcileSession(ctx, s)
	metrics.RecordReconcileOutcome(entitySession, string(outcome))
	return outcome
}

func (e *Engine) reconcileSession(ctx context.Context, s models.SessionStart) Outcome {
	log := e.logger.With().
		Str("session_id", s.SessionID).
		Str("user_pseudo_id", s.UserID).
		Logger()

	install, err := e.store.GetInstall(ctx, s.UserID)
	if errors.Is(err, database.ErrNotFound) {
		log.Error().Msgf("user - %s does not exist in users table but has a session record, skipping session", s.UserID)
		return OutcomeNoSuchUser
	}
	if err != nil {
		log.Error().Err(err).Msg("Install lookup failed")
		return OutcomeFailed
	}

	_, err = e.store.GetSession(ctx, s.SessionID)
	switch {
	case err == nil:
		log.Warn().Msgf("session - %s exists in database", s.SessionID)
		return OutcomeExists
	case !errors.Is(err, database.ErrNotFound):
		log.Error().Err(err).Msg("Session lookup failed")
		return OutcomeFailed
	}

	log.Debug().Msgf("inserting session - %s into database", s.SessionID)
	session := s.Session
	if err := e.store.InsertSession(ctx, &session); err != nil {
		switch {
		case errors.Is(err, database.ErrDuplicate):
			log.Warn().Msg("Session inserted concurrently, treating as existing")
			return OutcomeExists
		case errors.Is(err, database.ErrMissingReference):
			log.Error().Msg("Install disappeared before session insert, skipping session")
			return OutcomeNoSuchUser
		}
		log.Error().Err(err).Msg("Session insert failed")
		return OutcomeFailed
	}
	logging.Success(&log).Msgf("session - %s inserted successfully", s.SessionID)

	return e.correctDrift(ctx, log, install, s)
}

// correctDrift updates exactly the install fields that differ from the
// session observation. Update failures leave the session inserted.
func (e *Engine) correctDrift(ctx context.Context, log zerolog.Logger, install *models.Install, s models.SessionStart) Outcome {
	changes := Drift(install, s)
	if changes.Empty() {
		log.Debug().Msgf("user %s has no mismatch", s.UserID)
		return OutcomeInserted
	}

	if changes.Platform != nil {
		log.Warn().Msgf("platform mismatch detected for user %s. Old: %s, New: %s", s.UserID, install.Platform, *changes.Platform)
	}
	if changes.Country != nil {
		log.Warn().Msgf("country mismatch detected for user %s. Old: %s, New: %s", s.UserID, install.Country, *changes.Country)
	}

	if err := e.store.UpdateInstallFields(ctx, s.UserID, changes); err != nil {
		log.Error().Err(err).Strs("fields", changes.Names()).Msg("Drift correction failed")
		metrics.RecordReconcileOutcome(entityInstall, "drift_failed")
		return OutcomeInserted
	}

	logging.Success(&log).Msgf("user %s record updated with new %s", s.UserID, strings.Join(changes.Names(), "/"))
	return OutcomeDriftCorrected
}

// Drift returns the platform/country values of s that differ from install.
// Empty strings are values like any other.
func Drift(install *models.Install, s models.SessionStart) models.InstallFields {
	var f models.InstallFields
	if s.Platform != install.Platform {
		p := s.Platform
		f.Platform = &p
	}
	if s.Country != install.Country {
		c := s.Country
		f.Country = &c
	}
	return f
}
