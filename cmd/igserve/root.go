package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"igserve/pkg/config"
	"igserve/pkg/logger"
	"igserve/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile  string
	port        string
	databaseURL string
	logLevel    string
	logFormat   string
)

// rootCmd runs the HTTP service when called without a subcommand
var rootCmd = &cobra.Command{
	Use:   "igserve",
	Short: "Country catalog and Instagram video lookup service",
	Long: `igserve is a small HTTP service exposing:

  - a country catalog backed by PostgreSQL or SQLite
  - the list of Indian states and union territories
  - Instagram video lookups, anonymous or through a cached login session

Configuration is read from flags, environment variables, a .env file and
an optional YAML file, in that order of precedence.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.PrintError("Error", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./igserve.yaml or $HOME/.config/igserve/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&port, "port", "p", "", "HTTP port (overrides PORT)")
	rootCmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "database URL (overrides DATABASE_URL)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (console, json)")

	rootCmd.SetVersionTemplate(`igserve {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadConfig resolves configuration from every source, flags last
func loadConfig() (*config.Config, error) {
	flags := map[string]interface{}{
		"port":         port,
		"database-url": databaseURL,
		"log-level":    logLevel,
		"log-format":   logFormat,
	}
	return config.Load(configFile, flags)
}

// setup loads configuration and the logger shared by every command
func setup() (*config.Config, logger.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, logger.GetLogger().WithField("version", version), nil
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
