// Copyright 2025 Shale Authors
// SPDX-License-Identifier: Apache-2.0

package sql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/coldbrook-labs/shale/pkg/catalog"
)

// Store is a dialect-aware SQL catalog implementation.
// It provides the shared implementation for PostgreSQL, MySQL, and SQLite.
type Store struct {
	db      *sql.DB
	dialect Dialect
	config  catalog.Config
}

var _ catalog.Catalog = (*Store)(nil)

// NewStore creates a new SQL store with the given dialect.
func NewStore(sqlDB *sql.DB, dialect Dialect, config catalog.Config) *Store {
	return &Store{
		db:      sqlDB,
		dialect: dialect,
		config:  config,
	}
}

// Open opens a catalog database connection and returns a configured Store.
// driverName is the database/sql registration name ("postgres", "mysql",
// "sqlite3").
func Open(driverName string, dialect Dialect, cfg catalog.Config) (*Store, error) {
	sqlDB, err := sql.Open(driverName, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open catalog database: %w", err)
	}

	// Configure connection pool
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	} else {
		sqlDB.SetMaxOpenConns(catalog.DefaultMaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	} else {
		sqlDB.SetMaxIdleConns(catalog.DefaultMaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)
	} else {
		sqlDB.SetConnMaxLifetime(time.Duration(catalog.DefaultConnMaxLifetime) * time.Second)
	}
	if cfg.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Second)
	} else {
		sqlDB.SetConnMaxIdleTime(time.Duration(catalog.DefaultConnMaxIdleTime) * time.Second)
	}

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping catalog database: %w", catalog.ErrUnavailable)
	}

	return NewStore(sqlDB, dialect, cfg), nil
}

// OpenConfig opens a Store from a catalog.Config, selecting driver and
// dialect from cfg.Driver. SQLite connections serialize writers through a
// single connection; the database file lives at cfg.DSN.
func OpenConfig(cfg catalog.Config) (*Store, error) {
	switch cfg.Driver {
	case catalog.DriverPostgres:
		return Open("postgres", PostgresDialect{}, cfg)
	case catalog.DriverMySQL:
		return Open("mysql", MySQLDialect{}, cfg)
	case catalog.DriverSQLite:
		// A single writer connection avoids SQLITE_BUSY under
		// concurrent write load.
		cfg.MaxOpenConns = 1
		return Open("sqlite3", SQLiteDialect{}, cfg)
	default:
		return nil, fmt.Errorf("unknown catalog driver: %s", cfg.Driver)
	}
}

// DB returns the underlying *sql.DB for direct access if needed.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Dialect returns the dialect used by this store.
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ============================================================================
// Query Helpers
// ============================================================================

// Query executes a query with dialect-aware placeholder conversion.
// Write queries using PostgreSQL-style placeholders ($1, $2, ...) and
// they will be automatically converted to the dialect's format.
func (s *Store) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.dialect.ReplacePlaceholders(query), args...)
}

// QueryRow executes a query that returns a single row.
func (s *Store) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.dialect.ReplacePlaceholders(query), args...)
}

// Exec executes a query that doesn't return rows.
func (s *Store) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.dialect.ReplacePlaceholders(query), args...)
}

// scanner is an interface for sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// Querier is the interface for executing SQL queries.
// Both Store and TxStore implement this interface, allowing shared query logic.
type Querier interface {
	Query(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRow(ctx context.Context, query string, args ...any) *sql.Row
	Exec(ctx context.Context, query string, args ...any) (sql.Result, error)
	Dialect() Dialect
}

// ============================================================================
// Transaction Support
// ============================================================================

// WithTx executes fn within a database transaction. Cascading deletes run
// through here so a crash between steps cannot leave orphaned rows.
func (s *Store) WithTx(ctx context.Context, fn func(tx catalog.TxStore) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	txStore := NewTxStore(tx, s.dialect)
	if err := fn(txStore); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback after %w: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// TxStore wraps a database transaction with dialect-aware query helpers.
type TxStore struct {
	tx      *sql.Tx
	dialect Dialect
}

var _ catalog.TxStore = (*TxStore)(nil)

// NewTxStore creates a new transaction store wrapper.
func NewTxStore(tx *sql.Tx, dialect Dialect) *TxStore {
	return &TxStore{
		tx:      tx,
		dialect: dialect,
	}
}

// Tx returns the underlying *sql.Tx for direct access if needed.
func (t *TxStore) Tx() *sql.Tx {
	return t.tx
}

// Dialect returns the dialect used by this transaction.
func (t *TxStore) Dialect() Dialect {
	return t.dialect
}

// Query executes a query with dialect-aware placeholder conversion.
func (t *TxStore) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return t.tx.QueryContext(ctx, t.dialect.ReplacePlaceholders(query), args...)
}

// QueryRow executes a query that returns a single row.
func (t *TxStore) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return t.tx.QueryRowContext(ctx, t.dialect.ReplacePlaceholders(query), args...)
}

// Exec executes a query that doesn't return rows.
func (t *TxStore) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return t.tx.ExecContext(ctx, t.dialect.ReplacePlaceholders(query), args...)
}
