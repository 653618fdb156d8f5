// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

//go:build integration

package testinfra

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// DefaultPostgresImage is the PostgreSQL image used for price source tests.
	DefaultPostgresImage = "postgres:16-alpine"

	// DefaultPostgresPort is the PostgreSQL listening port inside the container.
	DefaultPostgresPort = "5432"

	defaultPostgresUser     = "agrimarket"
	defaultPostgresPassword = "agrimarket-test"
	defaultPostgresDB       = "agrimarket"
)

// PostgresContainer is a running PostgreSQL container.
type PostgresContainer struct {
	testcontainers.Container

	// DSN connects to the test database with sslmode=disable.
	DSN string
}

// PostgresOption configures the PostgreSQL container.
type PostgresOption func(*postgresConfig)

type postgresConfig struct {
	image        string
	seedSQLPath  string
	startTimeout time.Duration
}

// WithPostgresImage sets a custom PostgreSQL image.
func WithPostgresImage(image string) PostgresOption {
	return func(c *postgresConfig) {
		c.image = image
	}
}

// WithSeedSQL runs the SQL file at path on first start through the image's
// /docker-entrypoint-initdb.d hook.
func WithSeedSQL(path string) PostgresOption {
	return func(c *postgresConfig) {
		c.seedSQLPath = path
	}
}

// WithPostgresStartTimeout sets how long to wait for the database.
func WithPostgresStartTimeout(timeout time.Duration) PostgresOption {
	return func(c *postgresConfig) {
		c.startTimeout = timeout
	}
}

// NewPostgresContainer starts PostgreSQL and waits until it accepts
// connections.
func NewPostgresContainer(ctx context.Context, opts ...PostgresOption) (*PostgresContainer, error) {
	cfg := &postgresConfig{
		image:        DefaultPostgresImage,
		startTimeout: 60 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	req := testcontainers.ContainerRequest{
		Image:        cfg.image,
		ExposedPorts: []string{DefaultPostgresPort + "/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     defaultPostgresUser,
			"POSTGRES_PASSWORD": defaultPostgresPassword,
			"POSTGRES_DB":       defaultPostgresDB,
			"TZ":                "UTC",
		},
		// The entrypoint restarts the server once after init; the second
		// "ready" line is the real one.
		WaitingFor: wait.ForAll(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			wait.ForListeningPort(DefaultPostgresPort+"/tcp"),
		).WithStartupTimeout(cfg.startTimeout),
	}
	if cfg.seedSQLPath != "" {
		req.Files = []testcontainers.ContainerFile{{
			HostFilePath:      cfg.seedSQLPath,
			ContainerFilePath: "/docker-entrypoint-initdb.d/seed.sql",
			FileMode:          0o644,
		}}
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("create postgres container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get container host: %w", err)
	}
	port, err := container.MappedPort(ctx, DefaultPostgresPort)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get mapped port: %w", err)
	}

	return &PostgresContainer{
		Container: container,
		DSN: fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
			defaultPostgresUser, defaultPostgresPassword, host, port.Port(), defaultPostgresDB),
	}, nil
}
