// Copyright 2025 Shale Authors
// SPDX-License-Identifier: Apache-2.0

package admin

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/coldbrook-labs/shale/pkg/service/admin"
	"github.com/coldbrook-labs/shale/pkg/service/bucket"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, errType, message string) {
	h.writeJSON(w, status, errorResponse{
		Error:   errType,
		Message: message,
	})
}

// writeAdminError maps admin service error codes onto HTTP statuses.
func (h *Handler) writeAdminError(w http.ResponseWriter, err error) {
	var ae *admin.Error
	if !errors.As(err, &ae) {
		h.writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	switch ae.Code {
	case admin.ErrCodeValidation:
		h.writeError(w, http.StatusBadRequest, "invalid_request", ae.Message)
	case admin.ErrCodeNotFound:
		h.writeError(w, http.StatusNotFound, "not_found", ae.Message)
	case admin.ErrCodeAlreadyExists:
		h.writeError(w, http.StatusConflict, "already_exists", ae.Message)
	case admin.ErrCodeUnavailable:
		h.writeError(w, http.StatusServiceUnavailable, "unavailable", ae.Message)
	default:
		h.writeError(w, http.StatusInternalServerError, "internal_error", ae.Message)
	}
}

// writeBucketError maps bucket service error codes onto HTTP statuses.
func (h *Handler) writeBucketError(w http.ResponseWriter, err error) {
	var be *bucket.Error
	if !errors.As(err, &be) {
		h.writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	switch be.Code {
	case bucket.ErrCodeValidation:
		h.writeError(w, http.StatusBadRequest, "invalid_request", be.Message)
	case bucket.ErrCodeNoSuchBucket:
		h.writeError(w, http.StatusNotFound, "no_such_bucket", be.Message)
	case bucket.ErrCodeBucketAlreadyExists:
		h.writeError(w, http.StatusConflict, "bucket_exists", be.Message)
	case bucket.ErrCodeBucketNotEmpty:
		h.writeError(w, http.StatusConflict, "bucket_not_empty", be.Message)
	default:
		h.writeError(w, http.StatusInternalServerError, "internal_error", be.Message)
	}
}
