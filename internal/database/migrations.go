// Retention - Mobile Analytics Retention Pipeline and Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retention

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/retention/internal/config"
	"github.com/tomtom215/retention/internal/logging"
)

// Migration is one versioned schema change.
type Migration struct {
	Version     int
	Name        string
	Description string
	Statements  []Statement
	AppliedAt   time.Time
}

// Statement is one DDL statement. Drivers restricts it to the named drivers;
// empty means all.
type Statement struct {
	SQL     string
	Drivers []string
}

func (s Statement) appliesTo(driver string) bool {
	if len(s.Drivers) == 0 {
		return true
	}
	for _, d := range s.Drivers {
		if d == driver {
			return true
		}
	}
	return false
}

var postgresOnly = []string{config.DriverPostgres}

// migrations lists every schema version in order. Never edit an entry once
// released; add a new version instead.
var migrations = []Migration{
	{
		Version:     1,
		Name:        "create_users_sessions",
		Description: "Create users and sessions tables with lookup indexes",
		Statements: []Statement{
			{SQL: `CREATE TABLE IF NOT EXISTS users (
				user_pseudo_id VARCHAR PRIMARY KEY,
				install_date DATE NOT NULL,
				install_timestamp BIGINT NOT NULL,
				platform VARCHAR NOT NULL,
				country VARCHAR NOT NULL
			)`},
			{SQL: `CREATE TABLE IF NOT EXISTS sessions (
				session_id VARCHAR PRIMARY KEY,
				user_pseudo_id VARCHAR NOT NULL,
				session_date DATE NOT NULL,
				session_timestamp BIGINT NOT NULL
			)`},
			{SQL: `CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_pseudo_id)`},
			{SQL: `CREATE INDEX IF NOT EXISTS idx_users_install_date ON users(install_date)`},
			// DuckDB rewrites updates of indexed or referenced columns as
			// delete+insert, which breaks drift correction of users rows.
			{SQL: `ALTER TABLE sessions ADD CONSTRAINT fk_sessions_user
				FOREIGN KEY (user_pseudo_id) REFERENCES users(user_pseudo_id)`, Drivers: postgresOnly},
			{SQL: `CREATE INDEX IF NOT EXISTS idx_users_platform ON users(platform)`, Drivers: postgresOnly},
			{SQL: `CREATE INDEX IF NOT EXISTS idx_users_country ON users(country)`, Drivers: postgresOnly},
		},
	},
}

func (db *DB) createMigrationsTable(ctx context.Context) error {
	_, err := db.conn.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name VARCHAR NOT NULL,
		description VARCHAR,
		applied_at TIMESTAMP NOT NULL
	)`)
	return err
}

func (db *DB) getAppliedMigrations(ctx context.Context) (map[int]Migration, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT version, name, description, applied_at FROM schema_migrations ORDER BY version`)
	if err != nil {
		return nil, err
	}
	defer closeQuietly(rows)

	applied := make(map[int]Migration)
	for rows.Next() {
		var m Migration
		if err := rows.Scan(&m.Version, &m.Name, &m.Description, &m.AppliedAt); err != nil {
			return nil, err
		}
		applied[m.Version] = m
	}
	return applied, rows.Err()
}

// runVersionedMigrations applies every migration not yet recorded. Each
// migration runs in its own transaction together with its bookkeeping row.
func (db *DB) runVersionedMigrations() error {
	ctx, cancel := schemaContext()
	defer cancel()

	if err := db.createMigrationsTable(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := db.getAppliedMigrations(ctx)
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	newMigrations := 0
	for _, m := range migrations {
		if _, exists := applied[m.Version]; exists {
			continue
		}
		if err := db.applyMigration(ctx, m); err != nil {
			return err
		}
		newMigrations++
	}

	if newMigrations > 0 {
		logging.Info().Int("count", newMigrations).Str("driver", db.driver).Msg("Applied database migrations")
	}
	return nil
}

func (db *DB) applyMigration(ctx context.Context, m Migration) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration v%d: %w", m.Version, err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range m.Statements {
		if !stmt.appliesTo(db.driver) {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt.SQL); err != nil {
			return fmt.Errorf("failed to execute migration v%d (%s): %w", m.Version, m.Name, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version, name, description, applied_at) VALUES ($1, $2, $3, $4)`,
		m.Version, m.Name, m.Description, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to record migration v%d: %w", m.Version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration v%d: %w", m.Version, err)
	}
	return nil
}

// GetCurrentSchemaVersion returns the highest applied migration version.
func (db *DB) GetCurrentSchemaVersion(ctx context.Context) (int, error) {
	var version int
	err := db.conn.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}

// GetMigrationHistory returns applied migrations in version order.
func (db *DB) GetMigrationHistory(ctx context.Context) ([]Migration, error) {
	applied, err := db.getAppliedMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get migration history: %w", err)
	}
	history := make([]Migration, 0, len(applied))
	for _, m := range migrations {
		if a, ok := applied[m.Version]; ok {
			history = append(history, a)
		}
	}
	return history, nil
}
