// Retention - Mobile Analytics Retention Pipeline and Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retention

package reconcile

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/retention/internal/database"
	"github.com/tomtom215/retention/internal/models"
)

// memStore is an in-memory Store with injectable failures.
type memStore struct {
	mu       sync.Mutex
	installs map[string]models.Install
	sessions map[string]models.Session

	getInstallErr    error
	insertInstallErr error
	insertSessionErr error
	updateErr        error
	failUser         string // GetInstall fails only for this user when set

	updates []models.InstallFields
}

func newMemStore() *memStore {
	return &memStore{
		installs: make(map[string]models.Install),
		sessions: make(map[string]models.Session),
	}
}

func (m *memStore) GetInstall(_ context.Context, userID string) (*models.Install, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getInstallErr != nil && (m.failUser == "" || m.failUser == userID) {
		return nil, m.getInstallErr
	}
	in, ok := m.installs[userID]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &in, nil
}

func (m *memStore) InsertInstall(_ context.Context, in *models.Install) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertInstallErr != nil {
		return m.insertInstallErr
	}
	if _, ok := m.installs[in.UserID]; ok {
		return database.ErrDuplicate
	}
	m.installs[in.UserID] = *in
	return nil
}

func (m *memStore) UpdateInstallFields(_ context.Context, userID string, f models.InstallFields) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	in, ok := m.installs[userID]
	if !ok {
		return database.ErrNotFound
	}
	m.installs[userID] = f.Apply(in)
	m.updates = append(m.updates, f)
	return nil
}

func (m *memStore) GetSession(_ context.Context, sessionID string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &s, nil
}

func (m *memStore) InsertSession(_ context.Context, s *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertSessionErr != nil {
		return m.insertSessionErr
	}
	if _, ok := m.sessions[s.SessionID]; ok {
		return database.ErrDuplicate
	}
	if _, ok := m.installs[s.UserID]; !ok {
		return database.ErrMissingReference
	}
	m.sessions[s.SessionID] = *s
	return nil
}

func (m *memStore) install(userID string) (models.Install, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	in, ok := m.installs[userID]
	return in, ok
}

func u1Install() models.Install {
	return models.Install{
		UserID:           "U1",
		InstallDate:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		InstallTimestamp: 1704067200000,
		Platform:         "ios",
		Country:          "US",
	}
}

func sessionStart(id, user, platform, country string) models.SessionStart {
	return models.SessionStart{
		Session: models.Session{
			SessionID:        id,
			UserID:           user,
			SessionDate:      time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
			SessionTimestamp: 1704153600123,
		},
		Platform: platform,
		Country:  country,
	}
}
