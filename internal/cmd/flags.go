// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package cmd

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const (
	localOutputFlagName  = "local-output"
	localOutputFlagUsage = "If set, writes the documents to stdout instead of sending them to the search engine"
	defaultLocalOutput   = false

	envFileFlagName  = "env-file"
	envFileFlagUsage = "Path to a dotenv file loaded before reading the configuration. Variables already set are not overridden."
)

// commonFlags collects the CLI options shared by the run and rebuild commands.
type commonFlags struct {
	localOutput bool
	envFile     string
}

// addFlags registers the CLI flags on cmd.
func (f *commonFlags) addFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.localOutput, localOutputFlagName, defaultLocalOutput, localOutputFlagUsage)
	cmd.Flags().StringVar(&f.envFile, envFileFlagName, "", envFileFlagUsage)
}

// loadEnvFile populates the process environment from the configured dotenv file, if any.
func (f *commonFlags) loadEnvFile() error {
	if f.envFile == "" {
		return nil
	}

	if err := godotenv.Load(f.envFile); err != nil {
		return fmt.Errorf("env file %q: %w", f.envFile, err)
	}
	return nil
}
