// Copyright 2025 Shale Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// loadConfiguration merges an optional config file into viper. Flags and
// environment variables still apply per the FlagLoader precedence rules.
func loadConfiguration(configFileName string, required bool) bool {
	viper.SetConfigName(configFileName)
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.shale")
	viper.AddConfigPath("/usr/local/etc/shale/")
	viper.AddConfigPath("/etc/shale/")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.MergeInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if required {
				log.Fatal().Msgf("Config file not found: %s", configFileName)
			}
			log.Info().Msgf("Config file not found: %s", configFileName)
			return false
		}

		if required {
			log.Fatal().Msgf("Failed to load required config file: %s", configFileName)
		}
		return false
	}
	log.Info().Msgf("Loaded config file: %s", viper.ConfigFileUsed())

	return true
}
