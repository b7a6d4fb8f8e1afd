// Copyright 2025 Shale Authors
// SPDX-License-Identifier: Apache-2.0

package admin

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/coldbrook-labs/shale/pkg/logger"
	"github.com/coldbrook-labs/shale/pkg/service/bucket"

	"github.com/google/uuid"
)

type createBucketRequest struct {
	Name        string `json:"name"`
	OwnerGUID   string `json:"owner_guid"`
	Versioning  bool   `json:"versioning,omitempty"`
	PublicRead  bool   `json:"public_read,omitempty"`
	PublicWrite bool   `json:"public_write,omitempty"`
}

type createBucketResponse struct {
	GUID string `json:"guid"`
	Name string `json:"name"`
}

type bucketResponse struct {
	GUID        string `json:"guid"`
	Name        string `json:"name"`
	OwnerGUID   string `json:"owner_guid"`
	Versioning  bool   `json:"versioning"`
	PublicRead  bool   `json:"public_read"`
	PublicWrite bool   `json:"public_write"`
	CreatedAt   string `json:"created_at"`
	ObjectCount int64  `json:"object_count"`
}

type bucketInfo struct {
	GUID       string `json:"guid"`
	Name       string `json:"name"`
	OwnerGUID  string `json:"owner_guid"`
	Versioning bool   `json:"versioning"`
	CreatedAt  string `json:"created_at"`
}

type listBucketsResponse struct {
	Buckets []bucketInfo `json:"buckets"`
}

func (h *Handler) createBucket(w http.ResponseWriter, r *http.Request) {
	var req createBucketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	owner, err := uuid.Parse(req.OwnerGUID)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "invalid owner_guid")
		return
	}

	result, err := h.buckets.CreateBucket(r.Context(), &bucket.CreateBucketRequest{
		Name:        req.Name,
		OwnerGUID:   owner,
		Versioning:  req.Versioning,
		PublicRead:  req.PublicRead,
		PublicWrite: req.PublicWrite,
	})
	if err != nil {
		h.writeBucketError(w, err)
		return
	}

	logger.Info().Str("bucket", result.Name).Str("guid", result.GUID.String()).Msg("bucket created via admin API")
	h.writeJSON(w, http.StatusCreated, createBucketResponse{
		GUID: result.GUID.String(),
		Name: result.Name,
	})
}

func (h *Handler) listBuckets(w http.ResponseWriter, r *http.Request) {
	req := &bucket.ListBucketsRequest{}
	if ownerParam := r.URL.Query().Get("owner"); ownerParam != "" {
		owner, err := uuid.Parse(ownerParam)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid_request", "invalid owner guid")
			return
		}
		req.OwnerGUID = owner
	}

	result, err := h.buckets.ListBuckets(r.Context(), req)
	if err != nil {
		h.writeBucketError(w, err)
		return
	}

	resp := listBucketsResponse{Buckets: make([]bucketInfo, 0, len(result.Buckets))}
	for _, b := range result.Buckets {
		resp.Buckets = append(resp.Buckets, bucketInfo{
			GUID:       b.GUID.String(),
			Name:       b.Name,
			OwnerGUID:  b.OwnerGUID.String(),
			Versioning: b.Versioning,
			CreatedAt:  time.Unix(0, b.CreatedAt).UTC().Format(time.RFC3339),
		})
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) headBucket(w http.ResponseWriter, r *http.Request) {
	result, err := h.buckets.HeadBucket(r.Context(), r.PathValue("name"))
	if err != nil {
		h.writeBucketError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, bucketResponse{
		GUID:        result.GUID.String(),
		Name:        result.Name,
		OwnerGUID:   result.OwnerGUID.String(),
		Versioning:  result.Versioning,
		PublicRead:  result.PublicRead,
		PublicWrite: result.PublicWrite,
		CreatedAt:   time.Unix(0, result.CreatedAt).UTC().Format(time.RFC3339),
		ObjectCount: result.ObjectCount,
	})
}

func (h *Handler) deleteBucket(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	destroy := r.URL.Query().Get("destroy") == "true"
	force := r.URL.Query().Get("force") == "true"

	if err := h.buckets.DeleteBucket(r.Context(), name, destroy, force); err != nil {
		h.writeBucketError(w, err)
		return
	}

	logger.Info().Str("bucket", name).Bool("destroy", destroy).Msg("bucket deleted via admin API")
	w.WriteHeader(http.StatusNoContent)
}
