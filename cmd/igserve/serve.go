package main

import (
	"github.com/spf13/cobra"

	"igserve/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP service",
	Long: `Run the HTTP service until SIGINT or SIGTERM.

The database must already carry the schema; run 'igserve initdb' first on
a fresh database.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.Run(ctx)
}
