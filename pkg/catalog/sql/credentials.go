// Copyright 2025 Shale Authors
// SPDX-License-Identifier: Apache-2.0

package sql

import (
	"context"
	"errors"
	"fmt"

	"github.com/coldbrook-labs/shale/pkg/catalog"
	"github.com/coldbrook-labs/shale/pkg/types"

	"github.com/google/uuid"
)

// ============================================================================
// Credential Operations - Store
// ============================================================================

func (s *Store) AddCredential(ctx context.Context, cred *types.Credential) error {
	return addCredential(ctx, s, cred)
}

func (s *Store) GetCredentialByGUID(ctx context.Context, guid uuid.UUID) (*types.Credential, error) {
	return getCredentialBy(ctx, s, "guid", guid.String())
}

func (s *Store) GetCredentialByAccessKey(ctx context.Context, accessKey string) (*types.Credential, error) {
	return getCredentialBy(ctx, s, "access_key", accessKey)
}

func (s *Store) ListCredentials(ctx context.Context) ([]*types.Credential, error) {
	return listCredentials(ctx, s, uuid.Nil)
}

func (s *Store) ListCredentialsForUser(ctx context.Context, userGUID uuid.UUID) ([]*types.Credential, error) {
	return listCredentials(ctx, s, userGUID)
}

func (s *Store) DeleteCredential(ctx context.Context, guid uuid.UUID) error {
	return deleteCredential(ctx, s, guid)
}

func (s *Store) DeleteCredentialsForUser(ctx context.Context, userGUID uuid.UUID) error {
	return deleteCredentialsForUser(ctx, s, userGUID)
}

// ============================================================================
// Credential Operations - TxStore
// ============================================================================

func (t *TxStore) AddCredential(ctx context.Context, cred *types.Credential) error {
	return addCredential(ctx, t, cred)
}

func (t *TxStore) GetCredentialByGUID(ctx context.Context, guid uuid.UUID) (*types.Credential, error) {
	return getCredentialBy(ctx, t, "guid", guid.String())
}

func (t *TxStore) GetCredentialByAccessKey(ctx context.Context, accessKey string) (*types.Credential, error) {
	return getCredentialBy(ctx, t, "access_key", accessKey)
}

func (t *TxStore) ListCredentials(ctx context.Context) ([]*types.Credential, error) {
	return listCredentials(ctx, t, uuid.Nil)
}

func (t *TxStore) ListCredentialsForUser(ctx context.Context, userGUID uuid.UUID) ([]*types.Credential, error) {
	return listCredentials(ctx, t, userGUID)
}

func (t *TxStore) DeleteCredential(ctx context.Context, guid uuid.UUID) error {
	return deleteCredential(ctx, t, guid)
}

func (t *TxStore) DeleteCredentialsForUser(ctx context.Context, userGUID uuid.UUID) error {
	return deleteCredentialsForUser(ctx, t, userGUID)
}

// ============================================================================
// Shared Implementations
// ============================================================================

func addCredential(ctx context.Context, q Querier, cred *types.Credential) error {
	// The owning user must exist; without cross-dialect foreign keys
	// this is an explicit check inside the same statement flow.
	if _, err := getUserBy(ctx, q, "guid", cred.UserGUID.String()); err != nil {
		if errors.Is(err, catalog.ErrUserNotFound) {
			return catalog.ErrUserNotFound
		}
		return fmt.Errorf("add credential: %w", err)
	}

	query := `
		INSERT INTO credentials (guid, user_guid, access_key, secret_key, is_base64, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := q.Exec(ctx, query,
		cred.GUID.String(),
		cred.UserGUID.String(),
		cred.AccessKey,
		cred.SecretKey,
		q.Dialect().BoolValue(cred.IsBase64),
		cred.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("add credential: %w", asDuplicateKey(err))
	}
	return nil
}

func getCredentialBy(ctx context.Context, q Querier, field, value string) (*types.Credential, error) {
	query := `SELECT ` + CredentialColumns + ` FROM credentials WHERE ` + field + ` = $1`
	row := q.QueryRow(ctx, query, value)
	return ScanCredential(row, q.Dialect())
}

func listCredentials(ctx context.Context, q Querier, userGUID uuid.UUID) ([]*types.Credential, error) {
	query := `SELECT ` + CredentialColumns + ` FROM credentials`
	args := []any{}

	if userGUID != uuid.Nil {
		query += ` WHERE user_guid = $1`
		args = append(args, userGUID.String())
	}
	query += ` ORDER BY created_at`

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	defer rows.Close()

	return ScanCredentials(rows, q.Dialect())
}

func deleteCredential(ctx context.Context, q Querier, guid uuid.UUID) error {
	// Idempotent: zero rows affected is not an error.
	_, err := q.Exec(ctx, `DELETE FROM credentials WHERE guid = $1`, guid.String())
	if err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	return nil
}

func deleteCredentialsForUser(ctx context.Context, q Querier, userGUID uuid.UUID) error {
	_, err := q.Exec(ctx, `DELETE FROM credentials WHERE user_guid = $1`, userGUID.String())
	if err != nil {
		return fmt.Errorf("delete credentials for user: %w", err)
	}
	return nil
}
