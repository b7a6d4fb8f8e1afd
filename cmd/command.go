// Copyright 2025 Shale Authors
// SPDX-License-Identifier: Apache-2.0

// Package cmd provides CLI command implementations for shale.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var configDir string

var rootCmd = &cobra.Command{
	Use:   "shale",
	Short: "Shale - a self-hosted object storage server",
	Long: `Shale is a self-hosted S3-compatible object storage server.
A catalog database tracks users, credentials, and buckets; each bucket
owns a private metadata database and an object byte store behind a
pluggable storage backend.`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config_dir", ".", "Directory for configuration files")
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
