// Copyright 2025 Shale Authors
// SPDX-License-Identifier: Apache-2.0

package bucket

import (
	"context"
	"errors"

	"github.com/coldbrook-labs/shale/pkg/catalog"
	"github.com/coldbrook-labs/shale/pkg/manager"
	"github.com/coldbrook-labs/shale/pkg/types"

	"github.com/google/uuid"
)

// serviceImpl implements the Service interface
type serviceImpl struct {
	cat catalog.Catalog
	mgr *manager.Manager
}

// NewService creates a new bucket service
func NewService(cat catalog.Catalog, mgr *manager.Manager) (Service, error) {
	if cat == nil {
		return nil, errors.New("catalog is required")
	}
	if mgr == nil {
		return nil, errors.New("manager is required")
	}
	return &serviceImpl{cat: cat, mgr: mgr}, nil
}

func (s *serviceImpl) CreateBucket(ctx context.Context, req *CreateBucketRequest) (*CreateBucketResult, error) {
	if req.OwnerGUID == uuid.Nil {
		return nil, &Error{Code: ErrCodeValidation, Message: "owner is required"}
	}

	b, err := s.mgr.Create(ctx, manager.CreateParams{
		Name:        req.Name,
		OwnerGUID:   req.OwnerGUID,
		Versioning:  req.Versioning,
		PublicRead:  req.PublicRead,
		PublicWrite: req.PublicWrite,
	})
	if err != nil {
		switch {
		case errors.Is(err, manager.ErrBucketExists):
			return nil, &Error{Code: ErrCodeBucketAlreadyExists, Message: "bucket already exists"}
		case errors.Is(err, catalog.ErrUserNotFound):
			return nil, &Error{Code: ErrCodeValidation, Message: "owner does not exist"}
		default:
			return nil, &Error{Code: ErrCodeValidation, Message: err.Error(), Err: err}
		}
	}

	cfg := b.Config()
	return &CreateBucketResult{GUID: cfg.GUID, Name: cfg.Name}, nil
}

func (s *serviceImpl) DeleteBucket(ctx context.Context, name string, destroy, force bool) error {
	if name == "" {
		return &Error{Code: ErrCodeNoSuchBucket, Message: "bucket name is required"}
	}

	if !force {
		b, err := s.mgr.Get(ctx, name)
		if err != nil {
			return mapManagerError(err)
		}
		count, err := b.Meta().CountObjects(ctx)
		if err != nil {
			return &Error{Code: ErrCodeInternalError, Message: "count objects", Err: err}
		}
		if count > 0 {
			return &Error{Code: ErrCodeBucketNotEmpty, Message: "bucket is not empty"}
		}
	}

	if err := s.mgr.Remove(ctx, name, destroy); err != nil {
		return mapManagerError(err)
	}
	return nil
}

func (s *serviceImpl) HeadBucket(ctx context.Context, name string) (*HeadBucketResult, error) {
	if name == "" {
		return nil, &Error{Code: ErrCodeNoSuchBucket, Message: "bucket name is required"}
	}

	b, err := s.mgr.Get(ctx, name)
	if err != nil {
		return nil, mapManagerError(err)
	}

	count, err := b.Meta().CountObjects(ctx)
	if err != nil {
		return nil, &Error{Code: ErrCodeInternalError, Message: "count objects", Err: err}
	}

	cfg := b.Config()
	return &HeadBucketResult{
		GUID:        cfg.GUID,
		Name:        cfg.Name,
		OwnerGUID:   cfg.OwnerGUID,
		Versioning:  cfg.Versioning,
		PublicRead:  cfg.PublicRead,
		PublicWrite: cfg.PublicWrite,
		CreatedAt:   cfg.CreatedAt,
		ObjectCount: count,
	}, nil
}

func (s *serviceImpl) ListBuckets(ctx context.Context, req *ListBucketsRequest) (*ListBucketsResult, error) {
	var (
		configs []*types.BucketConfig
		err     error
	)
	if req != nil && req.OwnerGUID != uuid.Nil {
		configs, err = s.cat.ListBucketsForOwner(ctx, req.OwnerGUID)
	} else {
		configs, err = s.cat.ListBuckets(ctx)
	}
	if err != nil {
		return nil, &Error{Code: ErrCodeInternalError, Message: "list buckets", Err: err}
	}

	buckets := make([]BucketInfo, 0, len(configs))
	for _, cfg := range configs {
		buckets = append(buckets, BucketInfo{
			GUID:       cfg.GUID,
			Name:       cfg.Name,
			OwnerGUID:  cfg.OwnerGUID,
			Versioning: cfg.Versioning,
			CreatedAt:  cfg.CreatedAt,
		})
	}
	return &ListBucketsResult{Buckets: buckets}, nil
}

func mapManagerError(err error) error {
	switch {
	case errors.Is(err, manager.ErrBucketNotFound):
		return &Error{Code: ErrCodeNoSuchBucket, Message: "bucket does not exist"}
	default:
		return &Error{Code: ErrCodeInternalError, Message: err.Error(), Err: err}
	}
}
