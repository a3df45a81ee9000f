package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/systmms/secretkeeper/cmd/secretkeeper/commands"
	"github.com/systmms/secretkeeper/internal/config"
	"github.com/systmms/secretkeeper/internal/logging"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Global flags
	var (
		configFile string
		noColor    bool
		debug      bool
	)

	// Create config placeholder
	cfg := &config.Config{}

	rootCmd := &cobra.Command{
		Use:   "secretkeeper",
		Short: "Short-lived encrypted secret storage",
		Long: `secretkeeper stores short-lived secrets encrypted under a designated
KMS key, retrieves them with optional burn-after-read semantics, and
dispatches a daily lifecycle summary report.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg.Path = configFile
			cfg.Logger = logging.New(debug, noColor)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", config.DefaultPath, "Config file path")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	// Add commands
	rootCmd.AddCommand(
		commands.NewCreateCommand(cfg),
		commands.NewGetCommand(cfg),
		commands.NewDeleteCommand(cfg),
		commands.NewListCommand(cfg),
		commands.NewReportCommand(cfg),
		commands.NewServeCommand(cfg),
	)

	return rootCmd.Execute()
}
