// Copyright 2025 Shale Authors
// SPDX-License-Identifier: Apache-2.0

package admin

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/coldbrook-labs/shale/pkg/logger"
	"github.com/coldbrook-labs/shale/pkg/service/admin"
	"github.com/coldbrook-labs/shale/pkg/types"

	"github.com/google/uuid"
)

// === Request/Response types ===

type createUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type userResponse struct {
	GUID      string `json:"guid"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

type listUsersResponse struct {
	Users []userResponse `json:"users"`
}

type createCredentialResponse struct {
	GUID      string `json:"guid"`
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
	Message   string `json:"message"`
}

type credentialInfo struct {
	GUID      string `json:"guid"`
	AccessKey string `json:"access_key"`
	CreatedAt string `json:"created_at"`
}

type listCredentialsResponse struct {
	Credentials []credentialInfo `json:"credentials"`
}

func toUserResponse(u *types.User) userResponse {
	return userResponse{
		GUID:      u.GUID.String(),
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: time.Unix(0, u.CreatedAt).UTC().Format(time.RFC3339),
	}
}

// === Handlers ===

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	user, err := h.admin.CreateUser(r.Context(), &admin.CreateUserRequest{
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		h.writeAdminError(w, err)
		return
	}

	logger.Info().Str("user", user.Name).Str("guid", user.GUID.String()).Msg("user created via admin API")
	h.writeJSON(w, http.StatusCreated, toUserResponse(user))
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.admin.ListUsers(r.Context())
	if err != nil {
		h.writeAdminError(w, err)
		return
	}

	resp := listUsersResponse{Users: make([]userResponse, 0, len(users))}
	for _, u := range users {
		resp.Users = append(resp.Users, toUserResponse(u))
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	guid, err := uuid.Parse(r.PathValue("guid"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "invalid user guid")
		return
	}

	user, err := h.admin.GetUser(r.Context(), guid)
	if err != nil {
		h.writeAdminError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toUserResponse(user))
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	guid, err := uuid.Parse(r.PathValue("guid"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "invalid user guid")
		return
	}

	if err := h.admin.DeleteUser(r.Context(), guid); err != nil {
		h.writeAdminError(w, err)
		return
	}

	logger.Info().Str("guid", guid.String()).Msg("user deleted via admin API")
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) createCredential(w http.ResponseWriter, r *http.Request) {
	guid, err := uuid.Parse(r.PathValue("guid"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "invalid user guid")
		return
	}

	cred, err := h.admin.CreateCredential(r.Context(), guid)
	if err != nil {
		h.writeAdminError(w, err)
		return
	}

	logger.Info().Str("user", guid.String()).Str("access_key", cred.AccessKey).Msg("credential created via admin API")
	h.writeJSON(w, http.StatusCreated, createCredentialResponse{
		GUID:      cred.GUID.String(),
		AccessKey: cred.AccessKey,
		SecretKey: cred.SecretKey,
		Message:   "Credential created. Save the secret key - it will not be shown again.",
	})
}

func (h *Handler) listCredentials(w http.ResponseWriter, r *http.Request) {
	guid, err := uuid.Parse(r.PathValue("guid"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "invalid user guid")
		return
	}

	creds, err := h.admin.ListCredentials(r.Context(), guid)
	if err != nil {
		h.writeAdminError(w, err)
		return
	}

	resp := listCredentialsResponse{Credentials: make([]credentialInfo, 0, len(creds))}
	for _, c := range creds {
		// Secret keys are only returned at creation time
		resp.Credentials = append(resp.Credentials, credentialInfo{
			GUID:      c.GUID.String(),
			AccessKey: c.AccessKey,
			CreatedAt: time.Unix(0, c.CreatedAt).UTC().Format(time.RFC3339),
		})
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) deleteCredential(w http.ResponseWriter, r *http.Request) {
	guid, err := uuid.Parse(r.PathValue("guid"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "invalid credential guid")
		return
	}

	if err := h.admin.DeleteCredential(r.Context(), guid); err != nil {
		h.writeAdminError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
