// Copyright 2025 Shale Authors
// SPDX-License-Identifier: Apache-2.0

// Package sql provides a dialect-aware SQL implementation of the catalog.
// It abstracts the differences between PostgreSQL, MySQL, and SQLite,
// allowing a single implementation to support all three databases.
package sql

import (
	"fmt"
	"strings"
)

// Dialect abstracts database-specific SQL syntax differences.
type Dialect interface {
	// Name returns the dialect name (e.g., "postgres", "mysql", "sqlite").
	Name() string

	// Placeholder returns the placeholder for the nth parameter (1-indexed).
	// PostgreSQL: "$1", "$2", "$3"
	// MySQL/SQLite: "?", "?", "?"
	Placeholder(n int) string

	// Placeholders returns n placeholders joined by comma.
	Placeholders(n int) string

	// ReplacePlaceholders converts PostgreSQL-style placeholders ($1, $2, ...)
	// to the dialect's format. Queries are written once in PostgreSQL
	// syntax and converted at runtime.
	ReplacePlaceholders(query string) string

	// BoolType returns the column type used for boolean fields.
	BoolType() string

	// BoolColumn returns how to reference a boolean column in WHERE clauses.
	BoolColumn(column string, value bool) string

	// BoolValue returns the bind value for a boolean parameter.
	BoolValue(b bool) any

	// ScanBool returns a scanner that can read a boolean from a row.
	ScanBool() BoolScanner
}

// BoolScanner scans a boolean value from SQL.
type BoolScanner interface {
	// Dest returns the destination for Scan().
	Dest() any
	// Value returns the scanned boolean value.
	Value() bool
}

// ============================================================================
// PostgreSQL Dialect
// ============================================================================

// PostgresDialect implements Dialect for PostgreSQL.
type PostgresDialect struct{}

var _ Dialect = PostgresDialect{}

func (d PostgresDialect) Name() string {
	return "postgres"
}

func (d PostgresDialect) Placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

func (d PostgresDialect) Placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	parts := make([]string, n)
	for i := 1; i <= n; i++ {
		parts[i-1] = fmt.Sprintf("$%d", i)
	}
	return strings.Join(parts, ", ")
}

func (d PostgresDialect) ReplacePlaceholders(query string) string {
	// PostgreSQL uses $1, $2, etc. - no conversion needed
	return query
}

func (d PostgresDialect) BoolType() string {
	return "BOOLEAN"
}

func (d PostgresDialect) BoolColumn(column string, value bool) string {
	if value {
		return column + " = TRUE"
	}
	return column + " = FALSE"
}

func (d PostgresDialect) BoolValue(b bool) any {
	return b
}

func (d PostgresDialect) ScanBool() BoolScanner {
	return &directBoolScanner{}
}

// ============================================================================
// MySQL Dialect
// ============================================================================

// MySQLDialect implements Dialect for MySQL.
type MySQLDialect struct{}

var _ Dialect = MySQLDialect{}

func (d MySQLDialect) Name() string {
	return "mysql"
}

func (d MySQLDialect) Placeholder(n int) string {
	return "?"
}

func (d MySQLDialect) Placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func (d MySQLDialect) ReplacePlaceholders(query string) string {
	return replaceNumberedPlaceholders(query)
}

func (d MySQLDialect) BoolType() string {
	return "TINYINT(1)"
}

func (d MySQLDialect) BoolColumn(column string, value bool) string {
	if value {
		return column + " = 1"
	}
	return column + " = 0"
}

func (d MySQLDialect) BoolValue(b bool) any {
	if b {
		return 1
	}
	return 0
}

func (d MySQLDialect) ScanBool() BoolScanner {
	return &intBoolScanner{}
}

// ============================================================================
// SQLite Dialect
// ============================================================================

// SQLiteDialect implements Dialect for SQLite.
type SQLiteDialect struct{}

var _ Dialect = SQLiteDialect{}

func (d SQLiteDialect) Name() string {
	return "sqlite"
}

func (d SQLiteDialect) Placeholder(n int) string {
	return "?"
}

func (d SQLiteDialect) Placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func (d SQLiteDialect) ReplacePlaceholders(query string) string {
	return replaceNumberedPlaceholders(query)
}

func (d SQLiteDialect) BoolType() string {
	return "INTEGER"
}

func (d SQLiteDialect) BoolColumn(column string, value bool) string {
	if value {
		return column + " = 1"
	}
	return column + " = 0"
}

func (d SQLiteDialect) BoolValue(b bool) any {
	if b {
		return 1
	}
	return 0
}

func (d SQLiteDialect) ScanBool() BoolScanner {
	return &intBoolScanner{}
}

// replaceNumberedPlaceholders rewrites $1, $2, ... as ?.
// Must replace from highest to lowest so $12 is not mangled into ?2 by a
// prior replacement of $1.
func replaceNumberedPlaceholders(query string) string {
	result := query
	for i := 50; i >= 1; i-- {
		old := fmt.Sprintf("$%d", i)
		result = strings.ReplaceAll(result, old, "?")
	}
	return result
}

// ============================================================================
// Boolean Scanners
// ============================================================================

// directBoolScanner scans boolean directly (for PostgreSQL).
type directBoolScanner struct {
	value bool
}

func (s *directBoolScanner) Dest() any {
	return &s.value
}

func (s *directBoolScanner) Value() bool {
	return s.value
}

// intBoolScanner scans boolean as int (for MySQL/SQLite).
type intBoolScanner struct {
	value int
}

func (s *intBoolScanner) Dest() any {
	return &s.value
}

func (s *intBoolScanner) Value() bool {
	return s.value != 0
}
