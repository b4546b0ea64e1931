// Retention - Mobile Analytics Retention Pipeline and Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retention

package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tomtom215/retention/internal/database"
	"github.com/tomtom215/retention/internal/models"
)

func TestDryRunStoreLeavesBackingUntouched(t *testing.T) {
	backing := newMemStore()
	ctx := context.Background()
	if err := backing.InsertInstall(ctx, ptr(u1Install())); err != nil {
		t.Fatal(err)
	}

	dry := NewDryRunStore(backing)
	engine := NewEngine(dry, zerolog.Nop())

	u2 := u1Install()
	u2.UserID = "U2"
	stats := engine.ReconcileBatch(ctx,
		[]models.Install{u1Install(), u2},
		[]models.SessionStart{
			sessionStart("1", "U1", "android", "US"),
			sessionStart("2", "U2", "ios", "US"),
			sessionStart("3", "U9", "ios", "US"),
		})

	want := Stats{
		InstallsInserted:   1,
		InstallsExisting:   1,
		SessionsInserted:   2,
		SessionsNoSuchUser: 1,
		DriftCorrections:   1,
	}
	if stats != want {
		t.Errorf("dry-run stats = %+v, want %+v", stats, want)
	}

	if _, ok := backing.install("U2"); ok {
		t.Error("dry run inserted U2 into the backing store")
	}
	if in, _ := backing.install("U1"); in.Platform != "ios" {
		t.Errorf("dry run updated the backing store: %+v", in)
	}
	if len(backing.sessions) != 0 {
		t.Errorf("dry run inserted %d sessions into the backing store", len(backing.sessions))
	}

	installs, sessions, updates := dry.PendingWrites()
	if installs != 1 || sessions != 2 || updates != 1 {
		t.Errorf("PendingWrites() = %d/%d/%d, want 1/2/1", installs, sessions, updates)
	}
}

func TestDryRunStoreSeesPendingWrites(t *testing.T) {
	dry := NewDryRunStore(nil)
	ctx := context.Background()

	if _, err := dry.GetInstall(ctx, "U1"); !errors.Is(err, database.ErrNotFound) {
		t.Fatalf("GetInstall() on empty dry store = %v, want ErrNotFound", err)
	}
	if err := dry.InsertInstall(ctx, ptr(u1Install())); err != nil {
		t.Fatalf("InsertInstall() error = %v", err)
	}
	if err := dry.InsertInstall(ctx, ptr(u1Install())); !errors.Is(err, database.ErrDuplicate) {
		t.Errorf("second InsertInstall() = %v, want ErrDuplicate", err)
	}

	orphan := sessionStart("9", "U9", "ios", "US").Session
	if err := dry.InsertSession(ctx, &orphan); !errors.Is(err, database.ErrMissingReference) {
		t.Errorf("orphan InsertSession() = %v, want ErrMissingReference", err)
	}

	country := "DE"
	if err := dry.UpdateInstallFields(ctx, "U1", models.InstallFields{Country: &country}); err != nil {
		t.Fatalf("UpdateInstallFields() error = %v", err)
	}
	in, _ := dry.GetInstall(ctx, "U1")
	if in.Country != "DE" || in.Platform != "ios" {
		t.Errorf("GetInstall() after update = %+v", in)
	}
}

func ptr[T any](v T) *T {
	return &v
}
