// Retention - Mobile Analytics Retention Pipeline and Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retention

package reconcile

import (
	"context"
	"errors"
	"sync"

	"github.com/tomtom215/retention/internal/database"
	"github.com/tomtom215/retention/internal/models"
)

// DryRunStore reads through to a backing store and keeps every write in
// memory. Later reads in the same run see the pending writes, so outcome
// counts match a real run without touching the backing store.
type DryRunStore struct {
	backing Store

	mu       sync.Mutex
	installs map[string]models.Install
	sessions map[string]models.Session

	installWrites int64
	sessionWrites int64
	updateWrites  int64
}

// NewDryRunStore wraps backing. backing may be nil to simulate an empty store.
func NewDryRunStore(backing Store) *DryRunStore {
	return &DryRunStore{
		backing:  backing,
		installs: make(map[string]models.Install),
		sessions: make(map[string]models.Session),
	}
}

// GetInstall returns a pending install or one from the backing store.
func (d *DryRunStore) GetInstall(ctx context.Context, userID string) (*models.Install, error) {
	d.mu.Lock()
	in, ok := d.installs[userID]
	d.mu.Unlock()
	if ok {
		return &in, nil
	}
	if d.backing == nil {
		return nil, database.ErrNotFound
	}
	return d.backing.GetInstall(ctx, userID)
}

// InsertInstall records the install in memory.
func (d *DryRunStore) InsertInstall(ctx context.Context, in *models.Install) error {
	if _, err := d.GetInstall(ctx, in.UserID); err == nil {
		return database.ErrDuplicate
	} else if !errors.Is(err, database.ErrNotFound) {
		return err
	}

	d.mu.Lock()
	d.installs[in.UserID] = *in
	d.installWrites++
	d.mu.Unlock()
	return nil
}

// UpdateInstallFields applies the update to an in-memory copy of the install.
func (d *DryRunStore) UpdateInstallFields(ctx context.Context, userID string, f models.InstallFields) error {
	if f.Empty() {
		return nil
	}
	in, err := d.GetInstall(ctx, userID)
	if err != nil {
		return err
	}

	d.mu.Lock()
	d.installs[userID] = f.Apply(*in)
	d.updateWrites++
	d.mu.Unlock()
	return nil
}

// GetSession returns a pending session or one from the backing store.
func (d *DryRunStore) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	d.mu.Lock()
	s, ok := d.sessions[sessionID]
	d.mu.Unlock()
	if ok {
		return &s, nil
	}
	if d.backing == nil {
		return nil, database.ErrNotFound
	}
	return d.backing.GetSession(ctx, sessionID)
}

// InsertSession records the session in memory. The referenced install must
// exist either pending or in the backing store.
func (d *DryRunStore) InsertSession(ctx context.Context, s *models.Session) error {
	if _, err := d.GetSession(ctx, s.SessionID); err == nil {
		return database.ErrDuplicate
	} else if !errors.Is(err, database.ErrNotFound) {
		return err
	}
	if _, err := d.GetInstall(ctx, s.UserID); errors.Is(err, database.ErrNotFound) {
		return database.ErrMissingReference
	} else if err != nil {
		return err
	}

	d.mu.Lock()
	d.sessions[s.SessionID] = *s
	d.sessionWrites++
	d.mu.Unlock()
	return nil
}

// PendingWrites returns the number of writes the run would have made.
func (d *DryRunStore) PendingWrites() (installs, sessions, updates int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.installWrites, d.sessionWrites, d.updateWrites
}
