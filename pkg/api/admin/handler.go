// Copyright 2025 Shale Authors
// SPDX-License-Identifier: Apache-2.0

// Package admin exposes the control-plane HTTP API: user, credential,
// and bucket administration over JSON.
package admin

import (
	"net/http"
	"os"

	"github.com/coldbrook-labs/shale/pkg/service/admin"
	"github.com/coldbrook-labs/shale/pkg/service/bucket"
)

// HandlerConfig holds configuration for the admin handler.
type HandlerConfig struct {
	// EnableAuth enables basic authentication for the admin API
	EnableAuth bool
	// Username is the basic auth username (default: admin)
	Username string
	// Password is the basic auth password (required if EnableAuth is true)
	Password string
}

// Handler provides HTTP endpoints for catalog administration.
//
// Security considerations:
// - The admin port should not be exposed publicly
// - Use network policies to restrict access to internal IPs
// - Optionally enable basic auth with HandlerConfig
type Handler struct {
	admin   admin.Service
	buckets bucket.Service
	config  HandlerConfig
	mux     *http.ServeMux
}

// NewHandler creates an admin handler with config from the environment.
func NewHandler(adminSvc admin.Service, bucketSvc bucket.Service) *Handler {
	return NewHandlerWithConfig(adminSvc, bucketSvc, HandlerConfig{
		EnableAuth: os.Getenv("SHALE_ADMIN_AUTH") == "true",
		Username:   envOrDefault("SHALE_ADMIN_USER", "admin"),
		Password:   os.Getenv("SHALE_ADMIN_PASSWORD"),
	})
}

// NewHandlerWithConfig creates an admin handler with custom config.
func NewHandlerWithConfig(adminSvc admin.Service, bucketSvc bucket.Service, config HandlerConfig) *Handler {
	h := &Handler{
		admin:   adminSvc,
		buckets: bucketSvc,
		config:  config,
		mux:     http.NewServeMux(),
	}
	h.registerRoutes()
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.config.EnableAuth && h.config.Password != "" {
		user, pass, ok := r.BasicAuth()
		if !ok || user != h.config.Username || pass != h.config.Password {
			w.Header().Set("WWW-Authenticate", `Basic realm="Shale Admin"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
	}

	h.mux.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	// Users
	h.mux.HandleFunc("POST /v1/admin/users", h.createUser)
	h.mux.HandleFunc("GET /v1/admin/users", h.listUsers)
	h.mux.HandleFunc("GET /v1/admin/users/{guid}", h.getUser)
	h.mux.HandleFunc("DELETE /v1/admin/users/{guid}", h.deleteUser)

	// Credentials
	h.mux.HandleFunc("POST /v1/admin/users/{guid}/credentials", h.createCredential)
	h.mux.HandleFunc("GET /v1/admin/users/{guid}/credentials", h.listCredentials)
	h.mux.HandleFunc("DELETE /v1/admin/credentials/{guid}", h.deleteCredential)

	// Buckets
	h.mux.HandleFunc("POST /v1/admin/buckets", h.createBucket)
	h.mux.HandleFunc("GET /v1/admin/buckets", h.listBuckets)
	h.mux.HandleFunc("GET /v1/admin/buckets/{name}", h.headBucket)
	h.mux.HandleFunc("DELETE /v1/admin/buckets/{name}", h.deleteBucket)
}

func envOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
