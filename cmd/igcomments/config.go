package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"igcomments/pkg/auth"
	"igcomments/pkg/config"
	"igcomments/pkg/ui"
)

var forceInit bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage igcomments configuration files.

Configuration is loaded from (highest priority first):
  - Command line flags
  - Environment variables (IGCOMMENTS_*)
  - .env files
  - Configuration file
  - Default values`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with the default values",
	Long: `Write a configuration file holding every option at its default value.

The file is created at the --config path, or at
~/.config/igcomments/config.yaml when no path is given.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long:  `Show the configuration after all sources are applied. Secrets are masked.`,
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)

	configInitCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "overwrite an existing file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = config.DefaultPath()
	}

	if _, err := os.Stat(path); err == nil && !forceInit {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
	}

	if err := config.DefaultConfig().Save(path); err != nil {
		return err
	}

	ui.PrintSuccess("Configuration file created: " + path)
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintln(out, "1. Set target.post_url, or pass the post to collect")
	fmt.Fprintln(out, "2. Run 'igcomments auth login' to store a session")
	fmt.Fprintln(out, "3. Run 'igcomments config validate' to check the file")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(nil)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	data, err := yaml.Marshal(maskConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Fprint(cmd.OutOrStdout(), string(data))
	return nil
}

// maskConfig returns a copy of cfg with the session secrets masked
func maskConfig(cfg *config.Config) *config.Config {
	masked := *cfg
	if masked.Instagram.SessionID != "" {
		masked.Instagram.SessionID = auth.MaskSecret(masked.Instagram.SessionID)
	}
	if masked.Instagram.CSRFToken != "" {
		masked.Instagram.CSRFToken = auth.MaskSecret(masked.Instagram.CSRFToken)
	}
	if masked.Storage.MongoURI != "" {
		masked.Storage.MongoURI = auth.MaskSecret(masked.Storage.MongoURI)
	}
	return &masked
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(nil)
	if err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	problems, warnings := checkConfig(cfg)
	if len(warnings) > 0 {
		ui.PrintWarning("Configuration warnings")
		for _, w := range warnings {
			fmt.Fprintf(cmd.OutOrStdout(), "  - %s\n", w)
		}
	}
	if len(problems) > 0 {
		for _, p := range problems {
			fmt.Fprintf(cmd.ErrOrStderr(), "  - %s\n", p)
		}
		return fmt.Errorf("configuration has %d error(s)", len(problems))
	}

	ui.PrintSuccess("Configuration is valid")
	ui.PrintInfo("Source", cfg.Collect.Source)
	ui.PrintInfo("Store", describeStore(cfg.Storage))
	ui.PrintInfo("Rate limit", fmt.Sprintf("%d requests/minute", cfg.RateLimit.RequestsPerMinute))
	ui.PrintInfo("Schedule", cfg.Schedule.Cron)
	return nil
}

// checkConfig runs the checks that Validate leaves to the commands using them
func checkConfig(cfg *config.Config) (problems, warnings []string) {
	if _, err := cron.ParseStandard(cfg.Schedule.Cron); err != nil {
		problems = append(problems, fmt.Sprintf("schedule.cron: %v", err))
	}
	if _, err := config.LoadLocation(cfg.Schedule.Timezone); err != nil {
		problems = append(problems, fmt.Sprintf("schedule.timezone: %v", err))
	}
	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
			problems = append(problems, fmt.Sprintf("cannot create log directory: %v", err))
		}
	}

	if cfg.Collect.Source == "graphql" && cfg.ValidateCredentials() != nil {
		warnings = append(warnings, "no Instagram session configured; a stored account will be used")
	}
	if cfg.Target.PostURL == "" && cfg.Target.Shortcode == "" {
		warnings = append(warnings, "no target post configured; pass one to collect")
	}
	if cfg.Export.SpreadsheetID != "" {
		if _, err := os.Stat(cfg.Export.CredentialsFile); err != nil {
			warnings = append(warnings, fmt.Sprintf("Google credentials file %s is not readable", cfg.Export.CredentialsFile))
		}
	}
	return problems, warnings
}
