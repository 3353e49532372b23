// Package main provides the main entry point for the lesewerk admin CLI tool.
package main

import (
	"fmt"
	"os"

	"lesewerk/cmd/adm/commands"
	"lesewerk/internal/config"
	"lesewerk/internal/observability"
	"lesewerk/internal/store"

	"github.com/spf13/cobra"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Quiet logging and no OTLP export for the admin CLI
	cfg.Server.LogLevel = "error"
	cfg.OpenTelemetry.EnableTracing = false
	cfg.OpenTelemetry.EnableLogging = false

	logger := observability.NewLogger(&cfg.OpenTelemetry)
	defer func() { _ = logger.Sync() }()

	st, err := store.Open(cfg.Store, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open store: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = st.Close() }()

	rootCmd := &cobra.Command{
		Use:   "adm",
		Short: "Lesewerk administration tool",
		Long:  `Administration tool for lesewerk. Inspect and maintain the local store.`,
	}

	rootCmd.AddCommand(commands.StoreCommands(st, logger))
	rootCmd.AddCommand(commands.TextCommands(st, logger))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
