package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"igcomments/pkg/auth"
	"igcomments/pkg/logger"
	"igcomments/pkg/ui"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Instagram session credentials",
	Long: `Manage stored Instagram sessions.

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - IGCOMMENTS_SESSION_ID and IGCOMMENTS_CSRF_TOKEN (read only)

Never share your credentials or config files!`,
}

var loginCmd = &cobra.Command{
	Use:   "login [username]",
	Short: "Store an Instagram session",
	Long: `Store the sessionid and csrftoken cookies of a logged-in browser.

You will be prompted for:
  - Instagram username (if not provided)
  - Session ID (from the sessionid cookie)
  - CSRF token (from the csrftoken cookie)
  - User agent (optional, press Enter for default)`,
	Example: `  igcomments auth login
  igcomments auth login myaccount`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored accounts",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var deleteCmd = &cobra.Command{
	Use:     "delete <username>",
	Aliases: []string{"logout"},
	Short:   "Remove a stored account",
	Args:    cobra.ExactArgs(1),
	RunE:    runDelete,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(listCmd)
	authCmd.AddCommand(deleteCmd)
}

func newCredentialManager() (*auth.Manager, error) {
	manager, err := auth.NewManager(logger.GetLogger())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize credential manager: %w", err)
	}
	return manager, nil
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := newCredentialManager()
	if err != nil {
		return err
	}

	var username string
	if len(args) > 0 {
		username = args[0]
	}

	out := cmd.OutOrStdout()
	prompt := auth.NewPrompter()
	if !ui.IsQuietMode() {
		auth.ShowCookieGuide(out)
	}

	if username != "" {
		if existing, _ := manager.Retrieve(username); existing != nil {
			ok, err := prompt.Confirm(fmt.Sprintf("Account '%s' already exists. Update it? (y/N): ", username), false)
			if err != nil || !ok {
				return err
			}
		}
	}

	account, err := prompt.Account(username)
	if err != nil {
		return err
	}
	if err := manager.Store(account); err != nil {
		return err
	}

	ui.PrintSuccess("Account saved: " + account.Username)
	ui.PrintInfo("Session ID", auth.MaskSecret(account.SessionID))
	if !ui.IsQuietMode() {
		fmt.Fprintln(out)
		auth.ShowQuickGuide(out, account.Username)
	}
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	manager, err := newCredentialManager()
	if err != nil {
		return err
	}

	accounts, err := manager.List()
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}
	if len(accounts) == 0 {
		ui.PrintInfo("No stored accounts", "use 'igcomments auth login' to add one")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Username", "Session ID", "CSRF Token", "User Agent", "Last Modified"})
	for _, a := range accounts {
		s := auth.SanitizeAccount(a)
		modified := ""
		if !s.LastModified.IsZero() {
			modified = s.LastModified.Format("2006-01-02 15:04:05")
		}
		t.AppendRow(table.Row{s.Username, s.SessionID, s.CSRFToken, s.UserAgent, modified})
	}
	t.Render()
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	manager, err := newCredentialManager()
	if err != nil {
		return err
	}

	if err := manager.Delete(args[0]); err != nil {
		return err
	}
	ui.PrintSuccess("Account removed: " + args[0])
	return nil
}
