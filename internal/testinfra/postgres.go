// Retention - Mobile Analytics Retention Pipeline and Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retention

//go:build integration

package testinfra

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// DefaultPostgresImage is the server the postgres store is tested against.
	DefaultPostgresImage = "postgres:16-alpine"

	postgresPort = "5432/tcp"
	postgresCred = "retention"
)

// PostgresOption configures StartPostgres.
type PostgresOption func(*postgresConfig)

type postgresConfig struct {
	image        string
	startTimeout time.Duration
}

// WithPostgresImage overrides DefaultPostgresImage.
func WithPostgresImage(image string) PostgresOption {
	return func(c *postgresConfig) { c.image = image }
}

// WithPostgresStartTimeout bounds the wait for the server to accept
// connections. The default is one minute.
func WithPostgresStartTimeout(timeout time.Duration) PostgresOption {
	return func(c *postgresConfig) { c.startTimeout = timeout }
}

// StartPostgres runs an empty PostgreSQL database for the duration of t and
// returns its pgx connection URL. The test is skipped without a healthy
// container provider.
//
//	url := testinfra.StartPostgres(t)
//	db, err := database.New(&config.DatabaseConfig{Driver: config.DriverPostgres, URL: url})
func StartPostgres(t *testing.T, opts ...PostgresOption) string {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	cfg := postgresConfig{image: DefaultPostgresImage, startTimeout: time.Minute}
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.startTimeout+30*time.Second)
	defer cancel()

	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        cfg.image,
			ExposedPorts: []string{postgresPort},
			Env: map[string]string{
				"POSTGRES_USER":     postgresCred,
				"POSTGRES_PASSWORD": postgresCred,
				"POSTGRES_DB":       postgresCred,
				"TZ":                "UTC",
			},
			// initdb restarts the server once, so the ready line is logged twice.
			WaitingFor: wait.ForAll(
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
				wait.ForListeningPort(postgresPort),
			).WithStartupTimeout(cfg.startTimeout),
		},
		Started: true,
	})
	testcontainers.CleanupContainer(t, ctr)
	if err != nil {
		t.Fatalf("start %s: %v", cfg.image, err)
	}

	endpoint, err := ctr.PortEndpoint(ctx, postgresPort, "")
	if err != nil {
		t.Fatalf("resolve postgres endpoint: %v", err)
	}
	return fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=disable", postgresCred, postgresCred, endpoint, postgresCred)
}
