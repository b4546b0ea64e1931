// Retention - Mobile Analytics Retention Pipeline and Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retention

package database

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/retention/internal/config"
	"github.com/tomtom215/retention/internal/models"
)

// testDBSemaphore serializes DuckDB test databases. It is held for the whole
// test and released in t.Cleanup.
var testDBSemaphore = make(chan struct{}, 1)

// testDBMutex serializes the New() call itself.
var testDBMutex sync.Mutex

// setupTestDB creates a new in-memory test database with timeout protection.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() {
		<-testDBSemaphore
	})

	cfg := &config.DatabaseConfig{
		Driver:    config.DriverDuckDB,
		Path:      ":memory:",
		MaxMemory: "512MB",
		Threads:   2,
	}

	type result struct {
		db  *DB
		err error
	}
	resultCh := make(chan result, 1)
	go func() {
		testDBMutex.Lock()
		db, err := New(cfg)
		testDBMutex.Unlock()
		resultCh <- result{db: db, err: err}
	}()

	select {
	case res := <-resultCh:
		if res.err != nil {
			t.Fatalf("Failed to create test database: %v", res.err)
		}
		t.Cleanup(func() {
			if err := res.db.Close(); err != nil {
				t.Errorf("Close() error = %v", err)
			}
		})
		return res.db
	case <-time.After(120 * time.Second):
		t.Fatal("Timed out creating test database")
		return nil
	}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func mustInsertInstall(t *testing.T, db *DB, in models.Install) {
	t.Helper()
	if err := db.InsertInstall(context.Background(), &in); err != nil {
		t.Fatalf("InsertInstall(%s) error = %v", in.UserID, err)
	}
}

func mustInsertSession(t *testing.T, db *DB, s models.Session) {
	t.Helper()
	if err := db.InsertSession(context.Background(), &s); err != nil {
		t.Fatalf("InsertSession(%s) error = %v", s.SessionID, err)
	}
}

func TestNewUnsupportedDriver(t *testing.T) {
	_, err := New(&config.DatabaseConfig{Driver: "mysql"})
	if err == nil {
		t.Fatal("New() with mysql driver should fail")
	}
}

func TestMigrations(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	version, err := db.GetCurrentSchemaVersion(ctx)
	if err != nil {
		t.Fatalf("GetCurrentSchemaVersion() error = %v", err)
	}
	if version != len(migrations) {
		t.Errorf("schema version = %d, want %d", version, len(migrations))
	}

	// Re-running is a no-op.
	if err := db.runVersionedMigrations(); err != nil {
		t.Fatalf("second runVersionedMigrations() error = %v", err)
	}

	history, err := db.GetMigrationHistory(ctx)
	if err != nil {
		t.Fatalf("GetMigrationHistory() error = %v", err)
	}
	if len(history) != len(migrations) {
		t.Fatalf("history len = %d, want %d", len(history), len(migrations))
	}
	if history[0].Name != "create_users_sessions" {
		t.Errorf("history[0].Name = %q", history[0].Name)
	}
	if history[0].AppliedAt.IsZero() {
		t.Error("history[0].AppliedAt is zero")
	}
}

func TestStatementAppliesTo(t *testing.T) {
	all := Statement{SQL: "SELECT 1"}
	pg := Statement{SQL: "SELECT 1", Drivers: postgresOnly}

	if !all.appliesTo(config.DriverDuckDB) || !all.appliesTo(config.DriverPostgres) {
		t.Error("statement without drivers should apply everywhere")
	}
	if pg.appliesTo(config.DriverDuckDB) {
		t.Error("postgres-only statement applied to duckdb")
	}
	if !pg.appliesTo(config.DriverPostgres) {
		t.Error("postgres-only statement not applied to postgres")
	}
}

func TestPingAndCheckpoint(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if err := db.Ping(ctx); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
	if err := db.Checkpoint(ctx); err != nil {
		t.Errorf("Checkpoint() error = %v", err)
	}
	if db.Driver() != config.DriverDuckDB {
		t.Errorf("Driver() = %q", db.Driver())
	}
}

func TestIsUniqueConstraintError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("Constraint Error: Duplicate key \"user_pseudo_id: U1\" violates primary key constraint"), true},
		{errors.New("PRIMARY KEY or UNIQUE constraint violated"), true},
		{errors.New("connection refused"), false},
	}
	for _, tt := range tests {
		if got := isUniqueConstraintError(tt.err); got != tt.want {
			t.Errorf("isUniqueConstraintError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
