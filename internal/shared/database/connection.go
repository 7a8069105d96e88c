package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"corridors-server/internal/shared/config"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DB wraps the sql pool with driver awareness so queries can be written
// with ? placeholders regardless of the backing store.
type DB struct {
	pool   *sql.DB
	driver string
}

type Tx struct {
	tx     *sql.Tx
	driver string
}

// Executor lets repository queries run either on the pool or inside a
// transaction.
type Executor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func Connect() (*DB, error) {
	cfg := config.GlobalConfig
	logger := slog.With("component", "database", "operation", "connect")
	logger.Debug("Initializing database connection", "driver", cfg.Database.Driver)

	switch cfg.Database.Driver {
	case DriverSQLite:
		return connectSQLite(cfg, logger)
	case DriverPostgres:
		return connectPostgres(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}

func connectSQLite(cfg *config.Config, logger *slog.Logger) (*DB, error) {
	path := cfg.Database.Path

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	logger.Info("Connecting to sqlite database", "path", path)

	pool, err := sql.Open("sqlite", path)
	if err != nil {
		logger.Error("Failed to open sqlite database", "error", err, "path", path)
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// sqlite tolerates exactly one writer; funnel everything through a
	// single connection and rely on WAL for read concurrency.
	pool.SetMaxOpenConns(1)
	pool.SetMaxIdleConns(1)
	pool.SetConnMaxLifetime(0)

	if err := initPragmas(pool); err != nil {
		_ = pool.Close()
		logger.Error("Failed to apply sqlite pragmas", "error", err)
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	logger.Info("Database connection established successfully", "driver", DriverSQLite, "path", path)
	return &DB{pool: pool, driver: DriverSQLite}, nil
}

func initPragmas(pool *sql.DB) error {
	// WAL is much faster for this append-heavy workload; NORMAL is a
	// reasonable durability tradeoff for a game world.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := pool.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func connectPostgres(cfg *config.Config, logger *slog.Logger) (*DB, error) {
	logger.Info("Connecting to postgres database",
		"host", cfg.Database.Host,
		"port", cfg.Database.Port,
		"user", cfg.Database.User,
		"database", cfg.Database.Name,
		"sslmode", cfg.Database.SSLMode,
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	pool, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		logger.Error("Failed to open database connection",
			"error", err, "host", cfg.Database.Host, "database", cfg.Database.Name)
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	pool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	pool.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	logger.Debug("Testing database connection with ping")
	if err := pool.Ping(); err != nil {
		logger.Error("Failed to ping database",
			"error", err, "host", cfg.Database.Host, "database", cfg.Database.Name)
		if closeErr := pool.Close(); closeErr != nil {
			logger.Error("Failed to close database after ping failure", "close_error", closeErr, "ping_error", err)
		}
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Database connection established successfully",
		"driver", DriverPostgres, "host", cfg.Database.Host, "database", cfg.Database.Name)

	return &DB{pool: pool, driver: DriverPostgres}, nil
}

// OpenSQLitePath opens a standalone sqlite store outside the global
// config, used by tests.
func OpenSQLitePath(path string) (*DB, error) {
	pool, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	pool.SetMaxOpenConns(1)
	pool.SetMaxIdleConns(1)
	pool.SetConnMaxLifetime(0)
	if err := initPragmas(pool); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	return &DB{pool: pool, driver: DriverSQLite}, nil
}

func (db *DB) Driver() string { return db.driver }

func (db *DB) Close() error { return db.pool.Close() }

func (db *DB) Ping() error { return db.pool.Ping() }

func (db *DB) Exec(query string, args ...interface{}) (sql.Result, error) {
	return db.pool.Exec(rebind(db.driver, query), args...)
}

func (db *DB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return db.pool.ExecContext(ctx, rebind(db.driver, query), args...)
}

func (db *DB) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return db.pool.Query(rebind(db.driver, query), args...)
}

func (db *DB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return db.pool.QueryContext(ctx, rebind(db.driver, query), args...)
}

func (db *DB) QueryRow(query string, args ...interface{}) *sql.Row {
	return db.pool.QueryRow(rebind(db.driver, query), args...)
}

func (db *DB) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return db.pool.QueryRowContext(ctx, rebind(db.driver, query), args...)
}

func (db *DB) BeginTx() (*Tx, error) {
	tx, err := db.pool.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &Tx{tx: tx, driver: db.driver}, nil
}

func (db *DB) BeginTxContext(ctx context.Context) (*Tx, error) {
	tx, err := db.pool.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &Tx{tx: tx, driver: db.driver}, nil
}

func (tx *Tx) Commit() error   { return tx.tx.Commit() }
func (tx *Tx) Rollback() error { return tx.tx.Rollback() }

func (tx *Tx) Exec(query string, args ...interface{}) (sql.Result, error) {
	return tx.tx.Exec(rebind(tx.driver, query), args...)
}

func (tx *Tx) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return tx.tx.ExecContext(ctx, rebind(tx.driver, query), args...)
}

func (tx *Tx) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return tx.tx.Query(rebind(tx.driver, query), args...)
}

func (tx *Tx) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return tx.tx.QueryContext(ctx, rebind(tx.driver, query), args...)
}

func (tx *Tx) QueryRow(query string, args ...interface{}) *sql.Row {
	return tx.tx.QueryRow(rebind(tx.driver, query), args...)
}

func (tx *Tx) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return tx.tx.QueryRowContext(ctx, rebind(tx.driver, query), args...)
}
