// Copyright 2025 Shale Authors
// SPDX-License-Identifier: Apache-2.0

package sql

import (
	"context"
	"fmt"

	"github.com/coldbrook-labs/shale/pkg/types"

	"github.com/google/uuid"
)

// ============================================================================
// User Operations - Store
// ============================================================================

func (s *Store) AddUser(ctx context.Context, user *types.User) error {
	return addUser(ctx, s, user)
}

func (s *Store) GetUserByGUID(ctx context.Context, guid uuid.UUID) (*types.User, error) {
	return getUserBy(ctx, s, "guid", guid.String())
}

func (s *Store) GetUserByName(ctx context.Context, name string) (*types.User, error) {
	return getUserBy(ctx, s, "name", name)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*types.User, error) {
	return getUserBy(ctx, s, "email", email)
}

func (s *Store) ListUsers(ctx context.Context) ([]*types.User, error) {
	return listUsers(ctx, s)
}

func (s *Store) DeleteUser(ctx context.Context, guid uuid.UUID) error {
	return deleteUser(ctx, s, guid)
}

// ============================================================================
// User Operations - TxStore
// ============================================================================

func (t *TxStore) AddUser(ctx context.Context, user *types.User) error {
	return addUser(ctx, t, user)
}

func (t *TxStore) GetUserByGUID(ctx context.Context, guid uuid.UUID) (*types.User, error) {
	return getUserBy(ctx, t, "guid", guid.String())
}

func (t *TxStore) GetUserByName(ctx context.Context, name string) (*types.User, error) {
	return getUserBy(ctx, t, "name", name)
}

func (t *TxStore) GetUserByEmail(ctx context.Context, email string) (*types.User, error) {
	return getUserBy(ctx, t, "email", email)
}

func (t *TxStore) ListUsers(ctx context.Context) ([]*types.User, error) {
	return listUsers(ctx, t)
}

func (t *TxStore) DeleteUser(ctx context.Context, guid uuid.UUID) error {
	return deleteUser(ctx, t, guid)
}

// ============================================================================
// Shared Implementations
// ============================================================================

func addUser(ctx context.Context, q Querier, user *types.User) error {
	query := `
		INSERT INTO users (guid, name, email, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := q.Exec(ctx, query,
		user.GUID.String(),
		user.Name,
		user.Email,
		user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("add user: %w", asDuplicateKey(err))
	}
	return nil
}

// getUserBy looks up a user by one of the fixed lookup columns.
// field is never caller-supplied data; values always bind as parameters.
func getUserBy(ctx context.Context, q Querier, field, value string) (*types.User, error) {
	query := `SELECT ` + UserColumns + ` FROM users WHERE ` + field + ` = $1`
	row := q.QueryRow(ctx, query, value)
	return ScanUser(row)
}

func listUsers(ctx context.Context, q Querier) ([]*types.User, error) {
	rows, err := q.Query(ctx, `SELECT `+UserColumns+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	return ScanUsers(rows)
}

func deleteUser(ctx context.Context, q Querier, guid uuid.UUID) error {
	_, err := q.Exec(ctx, `DELETE FROM users WHERE guid = $1`, guid.String())
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}
