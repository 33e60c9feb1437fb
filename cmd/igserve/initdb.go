package main

import (
	"github.com/spf13/cobra"

	"igserve/internal/app"
	"igserve/pkg/config"
	"igserve/pkg/ui"
)

var migrateOnly bool

var initdbCmd = &cobra.Command{
	Use:   "initdb",
	Short: "Create the database schema, then serve",
	Long: `Apply the embedded schema migrations for the configured database and
start the HTTP service. Already applied migrations are skipped.`,
	Example: `  # Create tables in a local SQLite file and exit
  igserve initdb --database-url sqlite://igserve.db --migrate-only`,
	Args: cobra.NoArgs,
	RunE: runInitDB,
}

func init() {
	initdbCmd.Flags().BoolVar(&migrateOnly, "migrate-only", false, "exit after applying migrations")
	rootCmd.AddCommand(initdbCmd)
}

func runInitDB(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	if err := app.Migrate(ctx, &cfg.Database, log); err != nil {
		return err
	}
	ui.PrintSuccess("Database initialized")
	ui.PrintInfo("Database", config.MaskDatabaseURL(cfg.Database.URL))

	if migrateOnly {
		return nil
	}
	return runServe(cmd, args)
}
