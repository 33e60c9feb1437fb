package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"igserve/pkg/auth"
	"igserve/pkg/instagram"
	"igserve/pkg/scraper"
	"igserve/pkg/ui"
)

var loginUsername string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to Instagram and cache the session",
	Long: `Log in to Instagram with the configured account and store the session
where the service will find it (system keychain or encrypted file).

The username comes from --username or INSTA_USERNAME. When INSTA_PASSWORD
is not set you are prompted for the password.`,
	Example: `  igserve login --username reel_fan`,
	Args:    cobra.NoArgs,
	RunE:    runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout [username]",
	Short: "Remove a cached Instagram session",
	Long: `Remove the cached Instagram session for username, or for the configured
account when no username is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogout,
}

func init() {
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "Instagram username (overrides INSTA_USERNAME)")
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	if loginUsername != "" {
		cfg.Instagram.Username = loginUsername
	}
	cfg.Instagram.Username = instagram.SanitizeUsername(cfg.Instagram.Username)
	if !instagram.IsValidUsername(cfg.Instagram.Username) {
		return fmt.Errorf("a valid Instagram username is required (--username or INSTA_USERNAME)")
	}

	if cfg.Instagram.Password == "" {
		fmt.Printf("Instagram password for %s: ", cfg.Instagram.Username)
		password, err := readPassword()
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		cfg.Instagram.Password = password
	}

	sessions, err := auth.NewManagerFromConfig(&cfg.Session, log)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	username, err := scraper.NewFromConfig(&cfg.Instagram, sessions, log).Login(ctx)
	if err != nil {
		return err
	}

	ui.PrintSuccess("Logged in to Instagram")
	ui.PrintInfo("Session cached for", username)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	username := cfg.Instagram.Username
	if len(args) > 0 {
		username = args[0]
	}
	username = instagram.SanitizeUsername(username)
	if username == "" {
		return fmt.Errorf("no username given and INSTA_USERNAME is not set")
	}

	sessions, err := auth.NewManagerFromConfig(&cfg.Session, log)
	if err != nil {
		return err
	}

	err = sessions.Delete(username)
	if errors.Is(err, auth.ErrSessionNotFound) {
		ui.PrintWarning("No cached session", username)
		return nil
	}
	if err != nil {
		return err
	}

	ui.PrintSuccess(fmt.Sprintf("Removed cached session for %s", username))
	return nil
}

func readPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		password, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", err
		}
		return string(password), nil
	}

	input, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && input == "" {
		return "", err
	}
	return strings.TrimRight(input, "\r\n"), nil
}
