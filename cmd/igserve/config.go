package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"igserve/pkg/config"
	"igserve/pkg/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect configuration",
	Long: `Inspect the configuration assembled from:
  - Command line flags (highest priority)
  - Environment variables
  - .env file
  - Configuration file
  - Default values (lowest priority)`,
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long:  `Show the effective configuration as YAML. Passwords and database credentials are masked.`,
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg.Masked())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	fmt.Fprint(cmd.OutOrStdout(), string(data))
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		ui.PrintError("Configuration is invalid")
		return err
	}

	ui.PrintSuccess("Configuration is valid")
	ui.PrintInfo("Port", cfg.Server.Port)
	ui.PrintInfo("Database", config.MaskDatabaseURL(cfg.Database.URL))
	if cfg.HasInstagramCredentials() {
		ui.PrintHighlight("Instagram account: " + cfg.Instagram.Username)
	} else {
		ui.PrintWarning("Instagram credentials not configured")
	}
	return nil
}
