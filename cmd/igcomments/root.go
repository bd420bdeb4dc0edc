package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"igcomments/pkg/config"
	"igcomments/pkg/logger"
	"igcomments/pkg/ui"
)

var (
	// Version information
	version   = "0.1.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	quiet      bool
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "igcomments",
	Short: "Collect and deduplicate the comments of an Instagram post",
	Long: `igcomments polls the comments of one Instagram post, merges every batch into a
saved collection keyed by username and exports the result.

Each collect run loads the saved collection, adds only usernames it has not
seen before and saves it again, so repeated runs never duplicate anyone.

Features:
  - GraphQL, saved-response and HTML page sources
  - JSON file, SQLite and MongoDB storage with optional file locking
  - Resumable cursors, retry with backoff and paced passes
  - Terminal table, CSV and Google Sheets export
  - Cron-scheduled collection with the watch command`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet || logLevel == "error" {
			ui.SetQuietMode(true)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.PrintError("Error", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./.igcomments.yaml or ~/.config/igcomments/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error, disabled)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.SetVersionTemplate(`igcomments {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadConfig loads the configuration with flags on top and initializes the
// global logger from it
func loadConfig(flags map[string]interface{}) (*config.Config, error) {
	if flags == nil {
		flags = make(map[string]interface{})
	}
	switch {
	case verbose:
		flags["log-level"] = "debug"
	case logLevel != "":
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, err
	}
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}
