// Copyright 2025 Shale Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	apiadmin "github.com/coldbrook-labs/shale/pkg/api/admin"
	"github.com/coldbrook-labs/shale/pkg/catalog"
	"github.com/coldbrook-labs/shale/pkg/catalog/memory"
	catalogsql "github.com/coldbrook-labs/shale/pkg/catalog/sql"
	"github.com/coldbrook-labs/shale/pkg/debug"
	"github.com/coldbrook-labs/shale/pkg/logger"
	"github.com/coldbrook-labs/shale/pkg/manager"
	adminsvc "github.com/coldbrook-labs/shale/pkg/service/admin"
	bucketsvc "github.com/coldbrook-labs/shale/pkg/service/bucket"
	"github.com/coldbrook-labs/shale/pkg/storage/backend"
	"github.com/coldbrook-labs/shale/pkg/types"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ServerOpts holds configuration for the shale server.
type ServerOpts struct {
	IP        string
	AdminPort int
	DebugPort int
	LogLevel  string

	DataDir string

	CatalogDriver       string
	CatalogDSN          string
	CatalogMaxOpenConns int
	CatalogMaxIdleConns int

	Backend     string
	S3Endpoint  string
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string

	AdminAuthEnabled bool
	AdminUsername    string
	AdminPassword    string

	CascadePolicy string

	ShutdownTimeout time.Duration
}

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the shale object storage server",
	Run:   runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)

	f := serverCmd.Flags()
	f.String("ip", "", "IP address to bind to (empty for all interfaces)")
	f.Int("admin_port", 8040, "Admin API HTTP port")
	f.Int("debug_port", 8041, "Debug HTTP port (metrics, pprof, health)")
	f.String("log_level", "info", "Log level (debug, info, warn, error, fatal)")

	f.String("data_dir", "/var/lib/shale", "Base directory for bucket metadata and object data")

	f.String("catalog_driver", "sqlite", "Catalog database driver (sqlite, postgres, mysql, memory)")
	f.String("catalog_dsn", "", "Catalog connection string (defaults to <data_dir>/catalog.db for sqlite)")
	f.Int("catalog_max_open_conns", 25, "Maximum open catalog database connections")
	f.Int("catalog_max_idle_conns", 5, "Maximum idle catalog database connections")

	f.String("backend", "local", "Storage backend for object bytes (local, s3)")
	f.String("s3_endpoint", "", "S3 backend endpoint URL")
	f.String("s3_region", "us-east-1", "S3 backend region")
	f.String("s3_bucket", "", "S3 backend bucket name")
	f.String("s3_access_key", "", "S3 backend access key")
	f.String("s3_secret_key", "", "S3 backend secret key (use env var S3_SECRET_KEY)")

	f.Bool("admin_auth_enabled", false, "Require basic auth on the admin API")
	f.String("admin_username", "admin", "Admin API basic auth username")
	f.String("admin_password", "", "Admin API basic auth password (use env var ADMIN_PASSWORD)")

	f.String("cascade_policy", "delete", "Bucket handling when deleting a user (delete, destroy)")

	f.Duration("shutdown_timeout", 10*time.Second, "Grace period for draining HTTP connections on shutdown")

	viper.BindPFlags(f)
}

func runServer(cmd *cobra.Command, args []string) {
	loadConfiguration("server", false)
	opts := loadServerOpts(cmd)

	if level, err := zerolog.ParseLevel(opts.LogLevel); err == nil && level != zerolog.NoLevel {
		logger.SetLevel(level)
	}

	debug.SetNotReady()

	if err := os.MkdirAll(opts.DataDir, 0755); err != nil {
		logger.Fatal().Err(err).Str("data_dir", opts.DataDir).Msg("failed to create data directory")
	}

	cat, err := openCatalog(opts)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open catalog")
	}
	if err := cat.Migrate(cmd.Context()); err != nil {
		logger.Fatal().Err(err).Msg("failed to run catalog migrations")
	}
	logger.Info().Str("driver", opts.CatalogDriver).Msg("catalog ready")

	mgr, err := manager.New(cat, manager.Config{
		DataDir: opts.DataDir,
		Backend: backendConfig(opts),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize bucket manager")
	}

	adminService, err := adminsvc.NewService(adminsvc.Config{
		Catalog: cat,
		Manager: mgr,
		Cascade: adminsvc.CascadePolicy(opts.CascadePolicy),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize admin service")
	}
	bucketService, err := bucketsvc.NewService(cat, mgr)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize bucket service")
	}

	adminHandler := apiadmin.NewHandlerWithConfig(adminService, bucketService, apiadmin.HandlerConfig{
		EnableAuth: opts.AdminAuthEnabled,
		Username:   opts.AdminUsername,
		Password:   opts.AdminPassword,
	})

	adminServer := startHTTPServer(adminHandler, opts.IP, opts.AdminPort)
	debugServer := startHTTPServer(debug.Mux(), opts.IP, opts.DebugPort)

	logger.Info().
		Str("data_dir", opts.DataDir).
		Str("backend", opts.Backend).
		Str("version", Version).
		Msg("shale server started")

	debug.SetReady()
	waitForShutdown()
	debug.SetNotReady()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), opts.ShutdownTimeout)
	defer cancel()

	adminServer.Shutdown(shutdownCtx)
	debugServer.Shutdown(shutdownCtx)

	if err := mgr.Teardown(); err != nil {
		logger.Warn().Err(err).Msg("bucket manager teardown reported errors")
	}
	if err := cat.Close(); err != nil {
		logger.Warn().Err(err).Msg("catalog close reported errors")
	}
}

func loadServerOpts(cmd *cobra.Command) ServerOpts {
	f := NewFlagLoader(cmd)

	secretKey := f.String("s3_secret_key")
	if secretKey == "" {
		secretKey = os.Getenv("S3_SECRET_KEY")
	}
	adminPassword := f.String("admin_password")
	if adminPassword == "" {
		adminPassword = os.Getenv("ADMIN_PASSWORD")
	}

	return ServerOpts{
		IP:        f.String("ip"),
		AdminPort: f.Int("admin_port"),
		DebugPort: f.Int("debug_port"),
		LogLevel:  f.String("log_level"),

		DataDir: f.String("data_dir"),

		CatalogDriver:       f.String("catalog_driver"),
		CatalogDSN:          f.String("catalog_dsn"),
		CatalogMaxOpenConns: f.Int("catalog_max_open_conns"),
		CatalogMaxIdleConns: f.Int("catalog_max_idle_conns"),

		Backend:     f.String("backend"),
		S3Endpoint:  f.String("s3_endpoint"),
		S3Region:    f.String("s3_region"),
		S3Bucket:    f.String("s3_bucket"),
		S3AccessKey: f.String("s3_access_key"),
		S3SecretKey: secretKey,

		AdminAuthEnabled: f.Bool("admin_auth_enabled"),
		AdminUsername:    f.String("admin_username"),
		AdminPassword:    adminPassword,

		CascadePolicy: f.String("cascade_policy"),

		ShutdownTimeout: f.Duration("shutdown_timeout"),
	}
}

func openCatalog(opts ServerOpts) (catalog.Catalog, error) {
	switch opts.CatalogDriver {
	case "memory":
		// Useful for local development; nothing survives a restart.
		return memory.New(), nil
	case "sqlite":
		dsn := opts.CatalogDSN
		if dsn == "" {
			dsn = filepath.Join(opts.DataDir, "catalog.db")
		}
		cfg := catalog.DefaultConfig(catalog.DriverSQLite, dsn)
		return catalogsql.OpenConfig(cfg)
	case "postgres", "mysql":
		cfg := catalog.DefaultConfig(catalog.Driver(opts.CatalogDriver), opts.CatalogDSN)
		cfg.MaxOpenConns = opts.CatalogMaxOpenConns
		cfg.MaxIdleConns = opts.CatalogMaxIdleConns
		return catalogsql.OpenConfig(cfg)
	default:
		logger.Fatal().Str("driver", opts.CatalogDriver).Msg("unknown catalog driver")
		return nil, nil
	}
}

func backendConfig(opts ServerOpts) types.BackendConfig {
	switch opts.Backend {
	case "s3":
		return types.BackendConfig{
			Type:      types.StorageTypeS3,
			Endpoint:  opts.S3Endpoint,
			Region:    opts.S3Region,
			Bucket:    opts.S3Bucket,
			AccessKey: opts.S3AccessKey,
			SecretKey: opts.S3SecretKey,
		}
	case "memory":
		return types.BackendConfig{Type: backend.StorageTypeMemory}
	default:
		// The manager provisions a per-bucket objects directory.
		return types.BackendConfig{Type: types.StorageTypeLocal}
	}
}

func startHTTPServer(handler http.Handler, ip string, port int) *http.Server {
	addr := net.JoinHostPort(ip, strconv.Itoa(port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		logger.Fatal().Err(err).Str("addr", addr).Msg("failed to create HTTP listener")
	}

	httpServer := &http.Server{Handler: handler}
	go func() {
		logger.Info().Str("http_addr", addr).Msg("Starting HTTP server")
		if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("failed to start HTTP server")
		}
	}()
	return httpServer
}

func waitForShutdown() {
	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	<-stopChan
}
