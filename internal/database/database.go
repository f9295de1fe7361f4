// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/tomtom215/skysurvey/internal/config"
	"github.com/tomtom215/skysurvey/internal/logging"
	"github.com/tomtom215/skysurvey/internal/metrics"
)

const defaultQueryTimeout = 30 * time.Second

// DB wraps the SQL connection pool and provides data access methods.
type DB struct {
	conn    *sql.DB
	cfg     *config.DatabaseConfig
	dialect dialect

	// pool backs conn when the driver is postgres.
	pool *pgxpool.Pool
}

// New opens the configured database and creates the schema.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	d, err := dialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}

	db := &DB{cfg: cfg, dialect: d}
	switch cfg.Driver {
	case config.DriverDuckDB:
		err = db.openDuckDB()
	case config.DriverSQLite:
		err = db.openSQLite()
	case config.DriverPostgres:
		err = db.openPostgres()
	}
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultQueryTimeout)
	defer cancel()
	if err := db.createTables(ctx); err != nil {
		closeQuietly(db)
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	logging.Info().Str("driver", cfg.Driver).Msg("database ready")
	return db, nil
}

func ensureDir(path string) error {
	if path == "" || path == ":memory:" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create database directory %s: %w", dir, err)
	}
	return nil
}

func (db *DB) openDuckDB() error {
	if err := ensureDir(db.cfg.Path); err != nil {
		return err
	}

	threads := db.cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	maxMemory := db.cfg.MaxMemory
	if maxMemory == "" {
		maxMemory = "1GB"
	}

	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s",
		db.cfg.Path, threads, maxMemory)
	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	maxOpen := db.cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = max(runtime.NumCPU(), 4)
	}
	conn.SetMaxOpenConns(maxOpen)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(time.Hour)
	conn.SetConnMaxIdleTime(5 * time.Minute)

	db.conn = conn
	return nil
}

func (db *DB) openSQLite() error {
	if err := ensureDir(db.cfg.Path); err != nil {
		return err
	}

	conn, err := sql.Open("sqlite", db.cfg.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: :memory: databases are per connection and SQLite
	// allows a single writer anyway.
	conn.SetMaxOpenConns(1)

	if db.cfg.Path != ":memory:" {
		if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
			closeQuietly(conn)
			return fmt.Errorf("failed to enable WAL: %w", err)
		}
	}
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		closeQuietly(conn)
		return fmt.Errorf("failed to set busy timeout: %w", err)
	}

	db.conn = conn
	return nil
}

func (db *DB) openPostgres() error {
	poolCfg, err := pgxpool.ParseConfig(db.cfg.DSN)
	if err != nil {
		return fmt.Errorf("failed to parse postgres config: %w", err)
	}

	poolCfg.MaxConns = 10
	if db.cfg.MaxOpenConns > 0 {
		poolCfg.MaxConns = int32(db.cfg.MaxOpenConns)
	}
	poolCfg.MinConns = 2
	if db.cfg.MinConns > 0 {
		poolCfg.MinConns = int32(db.cfg.MinConns)
	}
	poolCfg.MaxConnLifetime = time.Hour
	if db.cfg.ConnMaxLifetime > 0 {
		poolCfg.MaxConnLifetime = db.cfg.ConnMaxLifetime
	}
	poolCfg.MaxConnIdleTime = 30 * time.Minute
	if db.cfg.ConnMaxIdleTime > 0 {
		poolCfg.MaxConnIdleTime = db.cfg.ConnMaxIdleTime
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultQueryTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return fmt.Errorf("failed to open postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("failed to ping postgres: %w", err)
	}

	db.pool = pool
	db.conn = stdlib.OpenDBFromPool(pool)
	return nil
}

func (db *DB) createTables(ctx context.Context) error {
	for _, stmt := range db.dialect.schema() {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}
	return nil
}

// Driver returns the configured driver name.
func (db *DB) Driver() string {
	return db.dialect.driver
}

// Conn returns the underlying SQL database handle. Used by tests.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Ping checks the database connection.
func (db *DB) Ping(ctx context.Context) error {
	if db.conn == nil {
		return fmt.Errorf("database connection is nil")
	}
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	return db.conn.PingContext(ctx)
}

// Close closes the database.
func (db *DB) Close() error {
	var err error
	if db.conn != nil {
		err = db.conn.Close()
	}
	if db.pool != nil {
		db.pool.Close()
	}
	return err
}

// ensureContext applies the default timeout to contexts without a deadline.
func ensureContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		return context.WithTimeout(context.Background(), defaultQueryTimeout)
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		return context.WithTimeout(ctx, defaultQueryTimeout)
	}
	return ctx, func() {}
}

// q rebinds a query for the active driver.
func (db *DB) q(query string) string {
	return db.dialect.rebind(query)
}

// observe records query latency and errors.
func observe(operation, table string, start time.Time, err error) {
	metrics.RecordDBQuery(operation, table, time.Since(start), err)
}
