// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the dimensions CLI, a client for
// the Dimensions Analytics API. It builds DSL queries from structured
// flags, executes them over an authenticated session, and keeps a local
// history of query runs.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/dimensions-go/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

const secretsDir = ".secrets/"

// rootCmd is the base command for the dimensions CLI.
var rootCmd = &cobra.Command{
	Use:   "dimensions",
	Short: "Query the Dimensions Analytics API",
	Long: `dimensions builds Analytics DSL queries from structured parameters
(topic, filter clause, return columns, limit), executes them against the
Dimensions Analytics API, and renders the results as tables or JSON.

Executed queries are recorded in a local SQLite history; saved query
files can be reloaded and analyzed without re-querying the API.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// The API key may live in a .env file, the DIMENSIONS_API_KEY
		// environment variable, or .secrets/dimensions-api-key.
		return secrets.LoadDotenv(".env")
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./dimensions.yaml or ~/.config/dimensions/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("dimensions")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "dimensions"))
		}
	}

	viper.SetEnvPrefix("DIMENSIONS")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
