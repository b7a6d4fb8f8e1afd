// Copyright 2025 Shale Authors
// SPDX-License-Identifier: Apache-2.0

package sql

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/coldbrook-labs/shale/pkg/catalog"
	"github.com/coldbrook-labs/shale/pkg/types"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// Column lists for catalog queries.
const (
	UserColumns       = `guid, name, email, created_at`
	CredentialColumns = `guid, user_guid, access_key, secret_key, is_base64, created_at`
	BucketColumns     = `guid, owner_guid, name, database_file, objects_dir, versioning, public_write, public_read, created_at`
)

// ============================================================================
// User Scanning
// ============================================================================

// ScanUser scans a single user row.
func ScanUser(s scanner) (*types.User, error) {
	var user types.User
	var guidStr string

	err := s.Scan(&guidStr, &user.Name, &user.Email, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, catalog.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}

	user.GUID, _ = uuid.Parse(guidStr)
	return &user, nil
}

// ScanUsers scans all user rows.
func ScanUsers(rows *sql.Rows) ([]*types.User, error) {
	var users []*types.User
	for rows.Next() {
		user, err := ScanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// ============================================================================
// Credential Scanning
// ============================================================================

// ScanCredential scans a single credential row using the appropriate dialect.
// The dialect determines how the is_base64 flag is scanned.
func ScanCredential(s scanner, dialect Dialect) (*types.Credential, error) {
	var cred types.Credential
	var guidStr, userGUIDStr string

	isBase64Scanner := dialect.ScanBool()

	err := s.Scan(
		&guidStr,
		&userGUIDStr,
		&cred.AccessKey,
		&cred.SecretKey,
		isBase64Scanner.Dest(),
		&cred.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, catalog.ErrCredentialNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan credential: %w", err)
	}

	cred.GUID, _ = uuid.Parse(guidStr)
	cred.UserGUID, _ = uuid.Parse(userGUIDStr)
	cred.IsBase64 = isBase64Scanner.Value()
	return &cred, nil
}

// ScanCredentials scans all credential rows.
func ScanCredentials(rows *sql.Rows, dialect Dialect) ([]*types.Credential, error) {
	var creds []*types.Credential
	for rows.Next() {
		cred, err := ScanCredential(rows, dialect)
		if err != nil {
			return nil, err
		}
		creds = append(creds, cred)
	}
	return creds, rows.Err()
}

// ============================================================================
// Bucket Scanning
// ============================================================================

// ScanBucket scans a single bucket row using the appropriate dialect.
func ScanBucket(s scanner, dialect Dialect) (*types.BucketConfig, error) {
	var bucket types.BucketConfig
	var guidStr, ownerGUIDStr string

	versioningScanner := dialect.ScanBool()
	publicWriteScanner := dialect.ScanBool()
	publicReadScanner := dialect.ScanBool()

	err := s.Scan(
		&guidStr,
		&ownerGUIDStr,
		&bucket.Name,
		&bucket.DatabaseFile,
		&bucket.ObjectsDir,
		versioningScanner.Dest(),
		publicWriteScanner.Dest(),
		publicReadScanner.Dest(),
		&bucket.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, catalog.ErrBucketNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan bucket: %w", err)
	}

	bucket.GUID, _ = uuid.Parse(guidStr)
	bucket.OwnerGUID, _ = uuid.Parse(ownerGUIDStr)
	bucket.Versioning = versioningScanner.Value()
	bucket.PublicWrite = publicWriteScanner.Value()
	bucket.PublicRead = publicReadScanner.Value()
	return &bucket, nil
}

// ScanBuckets scans all bucket rows.
func ScanBuckets(rows *sql.Rows, dialect Dialect) ([]*types.BucketConfig, error) {
	var buckets []*types.BucketConfig
	for rows.Next() {
		bucket, err := ScanBucket(rows, dialect)
		if err != nil {
			return nil, err
		}
		buckets = append(buckets, bucket)
	}
	return buckets, rows.Err()
}

// ============================================================================
// Error Classification
// ============================================================================

// IsDuplicateKey reports whether err is a uniqueness violation from any
// supported driver.
func IsDuplicateKey(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505" // unique_violation
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062 // ER_DUP_ENTRY
	}

	var sqErr sqlite3.Error
	if errors.As(err, &sqErr) {
		return sqErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}

	// Driver-agnostic fallback for wrapped constraint errors.
	return strings.Contains(strings.ToLower(err.Error()), "unique")
}

// asDuplicateKey maps driver uniqueness violations to catalog.ErrDuplicateKey,
// passing other errors through unchanged.
func asDuplicateKey(err error) error {
	if err == nil {
		return nil
	}
	if IsDuplicateKey(err) {
		return catalog.ErrDuplicateKey
	}
	return err
}
