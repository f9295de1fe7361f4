// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

//go:build integration

package testinfra

import (
	"context"
	"fmt"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	postgresImage    = "postgres:16-alpine"
	postgresUser     = "skysurvey"
	postgresPassword = "skysurvey"
	postgresDB       = "skysurvey"
)

// PostgresContainer is a running PostgreSQL server.
type PostgresContainer struct {
	container testcontainers.Container
	host      string
	port      string
	databases atomic.Int64
}

// StartPostgres starts a PostgreSQL container that is terminated when t
// finishes.
func StartPostgres(t testing.TB) *PostgresContainer {
	t.Helper()
	SkipIfNoDocker(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	req := testcontainers.ContainerRequest{
		Image:        postgresImage,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     postgresUser,
			"POSTGRES_PASSWORD": postgresPassword,
			"POSTGRES_DB":       postgresDB,
		},
		// The server logs readiness twice: once for the init run, once for real.
		WaitingFor: wait.ForAll(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			wait.ForListeningPort("5432/tcp"),
		).WithStartupTimeout(90 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	t.Cleanup(func() { terminate(t, container) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("postgres container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("postgres container port: %v", err)
	}

	return &PostgresContainer{container: container, host: host, port: port.Port()}
}

// DSN returns the connection string for database name.
func (p *PostgresContainer) DSN(name string) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(postgresUser, postgresPassword),
		Host:     p.host + ":" + p.port,
		Path:     "/" + name,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// AdminDSN returns the connection string for the default database.
func (p *PostgresContainer) AdminDSN() string {
	return p.DSN(postgresDB)
}

// CreateDatabase creates an empty database and returns its DSN.
func (p *PostgresContainer) CreateDatabase(t testing.TB) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, err := pgx.Connect(ctx, p.AdminDSN())
	if err != nil {
		t.Fatalf("connect to postgres: %v", err)
	}
	defer conn.Close(ctx)

	name := fmt.Sprintf("test_%d", p.databases.Add(1))
	if _, err := conn.Exec(ctx, "CREATE DATABASE "+pgx.Identifier{name}.Sanitize()); err != nil {
		t.Fatalf("create database %s: %v", name, err)
	}
	return p.DSN(name)
}
