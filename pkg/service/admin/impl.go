// Copyright 2025 Shale Authors
// SPDX-License-Identifier: Apache-2.0

package admin

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/coldbrook-labs/shale/pkg/catalog"
	"github.com/coldbrook-labs/shale/pkg/logger"
	"github.com/coldbrook-labs/shale/pkg/manager"
	"github.com/coldbrook-labs/shale/pkg/types"

	"github.com/google/uuid"
)

// serviceImpl implements the Service interface
type serviceImpl struct {
	cat     catalog.Catalog
	mgr     *manager.Manager
	cascade CascadePolicy
}

// Config holds configuration for the admin service
type Config struct {
	Catalog catalog.Catalog
	Manager *manager.Manager

	// Cascade decides what happens to buckets owned by a deleted
	// user. Defaults to CascadeDelete.
	Cascade CascadePolicy
}

// NewService creates a new admin service
func NewService(cfg Config) (Service, error) {
	if cfg.Catalog == nil {
		return nil, errors.New("catalog is required")
	}
	if cfg.Manager == nil {
		return nil, errors.New("manager is required")
	}
	if cfg.Cascade == "" {
		cfg.Cascade = CascadeDelete
	}

	return &serviceImpl{
		cat:     cfg.Catalog,
		mgr:     cfg.Manager,
		cascade: cfg.Cascade,
	}, nil
}

func (s *serviceImpl) CreateUser(ctx context.Context, req *CreateUserRequest) (*types.User, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, &Error{Code: ErrCodeValidation, Message: "user name is required"}
	}
	if !strings.Contains(req.Email, "@") {
		return nil, &Error{Code: ErrCodeValidation, Message: "valid email is required"}
	}

	user := &types.User{
		GUID:      uuid.New(),
		Name:      req.Name,
		Email:     req.Email,
		CreatedAt: time.Now().UTC().UnixNano(),
	}
	if err := s.cat.AddUser(ctx, user); err != nil {
		return nil, mapCatalogError(err, "user")
	}

	logger.Info().Str("user", user.GUID.String()).Str("email", user.Email).Msg("user created")
	return user, nil
}

func (s *serviceImpl) GetUser(ctx context.Context, guid uuid.UUID) (*types.User, error) {
	user, err := s.cat.GetUserByGUID(ctx, guid)
	if err != nil {
		return nil, mapCatalogError(err, "user")
	}
	return user, nil
}

func (s *serviceImpl) GetUserByEmail(ctx context.Context, email string) (*types.User, error) {
	user, err := s.cat.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, mapCatalogError(err, "user")
	}
	return user, nil
}

func (s *serviceImpl) ListUsers(ctx context.Context) ([]*types.User, error) {
	users, err := s.cat.ListUsers(ctx)
	if err != nil {
		return nil, mapCatalogError(err, "user")
	}
	return users, nil
}

// DeleteUser cascades: credentials, bucket rows per policy, then the
// user row, all inside one catalog transaction. Physical teardown of
// the buckets happens after the commit so a crash never leaves catalog
// rows pointing at missing files.
func (s *serviceImpl) DeleteUser(ctx context.Context, guid uuid.UUID) error {
	// Captured inside the transaction so a bucket created after an
	// outside snapshot cannot dodge the cascade.
	var buckets []*types.BucketConfig

	err := s.cat.WithTx(ctx, func(tx catalog.TxStore) error {
		if _, err := tx.GetUserByGUID(ctx, guid); err != nil {
			return err
		}
		if err := tx.DeleteCredentialsForUser(ctx, guid); err != nil {
			return err
		}
		var lerr error
		buckets, lerr = tx.ListBucketsForOwner(ctx, guid)
		if lerr != nil {
			return lerr
		}
		for _, cfg := range buckets {
			if err := tx.DeleteBucket(ctx, cfg.GUID); err != nil {
				return err
			}
		}
		return tx.DeleteUser(ctx, guid)
	})
	if err != nil {
		return mapCatalogError(err, "user")
	}

	for _, cfg := range buckets {
		s.mgr.Purge(*cfg, s.cascade == CascadeDestroy)
	}

	logger.Info().
		Str("user", guid.String()).
		Int("buckets", len(buckets)).
		Str("cascade", string(s.cascade)).
		Msg("user deleted")
	return nil
}

func (s *serviceImpl) CreateCredential(ctx context.Context, userGUID uuid.UUID) (*types.Credential, error) {
	accessKey, err := generateAccessKey()
	if err != nil {
		return nil, &Error{Code: ErrCodeInternalError, Message: "generate access key", Err: err}
	}
	secretKey, err := generateSecretKey()
	if err != nil {
		return nil, &Error{Code: ErrCodeInternalError, Message: "generate secret key", Err: err}
	}

	cred := &types.Credential{
		GUID:      uuid.New(),
		UserGUID:  userGUID,
		AccessKey: accessKey,
		SecretKey: secretKey,
		IsBase64:  true,
		CreatedAt: time.Now().UTC().UnixNano(),
	}
	if err := s.cat.AddCredential(ctx, cred); err != nil {
		return nil, mapCatalogError(err, "credential")
	}

	logger.Info().
		Str("user", userGUID.String()).
		Str("access_key", cred.AccessKey).
		Msg("credential created")
	return cred, nil
}

func (s *serviceImpl) GetCredential(ctx context.Context, guid uuid.UUID) (*types.Credential, error) {
	cred, err := s.cat.GetCredentialByGUID(ctx, guid)
	if err != nil {
		return nil, mapCatalogError(err, "credential")
	}
	return cred, nil
}

func (s *serviceImpl) GetCredentialByAccessKey(ctx context.Context, accessKey string) (*types.Credential, error) {
	cred, err := s.cat.GetCredentialByAccessKey(ctx, accessKey)
	if err != nil {
		return nil, mapCatalogError(err, "credential")
	}
	return cred, nil
}

func (s *serviceImpl) ListCredentials(ctx context.Context, userGUID uuid.UUID) ([]*types.Credential, error) {
	var (
		creds []*types.Credential
		err   error
	)
	if userGUID == uuid.Nil {
		creds, err = s.cat.ListCredentials(ctx)
	} else {
		creds, err = s.cat.ListCredentialsForUser(ctx, userGUID)
	}
	if err != nil {
		return nil, mapCatalogError(err, "credential")
	}
	return creds, nil
}

func (s *serviceImpl) DeleteCredential(ctx context.Context, guid uuid.UUID) error {
	if err := s.cat.DeleteCredential(ctx, guid); err != nil {
		return mapCatalogError(err, "credential")
	}
	return nil
}

func mapCatalogError(err error, resource string) error {
	switch {
	case errors.Is(err, catalog.ErrUserNotFound),
		errors.Is(err, catalog.ErrCredentialNotFound),
		errors.Is(err, catalog.ErrBucketNotFound):
		return &Error{Code: ErrCodeNotFound, Message: resource + " not found"}
	case errors.Is(err, catalog.ErrDuplicateKey):
		return &Error{Code: ErrCodeAlreadyExists, Message: resource + " already exists"}
	case errors.Is(err, catalog.ErrUnavailable):
		return &Error{Code: ErrCodeUnavailable, Message: "catalog unavailable", Err: err}
	default:
		return &Error{Code: ErrCodeInternalError, Message: "internal error", Err: err}
	}
}
