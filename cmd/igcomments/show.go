package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"igcomments/pkg/comments"
	"igcomments/pkg/config"
	"igcomments/pkg/export"
	"igcomments/pkg/logger"
	"igcomments/pkg/storage"
	"igcomments/pkg/ui"
)

var showLimit int

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the saved collection as a table",
	Example: `  igcomments show
  igcomments show --backend sqlite --store comments.db --limit 20`,
	Args: cobra.NoArgs,
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
	addStorageFlags(showCmd)
	showCmd.Flags().IntVarP(&showLimit, "limit", "n", 0, "show only the first n records")
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(storageFlags())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	rows, err := loadRows(cmd.Context(), cfg, logger.GetLogger())
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		ui.PrintWarning("The collection is empty", describeStore(cfg.Storage))
		return nil
	}
	if showLimit > 0 && showLimit < len(rows) {
		rows = rows[:showLimit]
	}

	export.WriteTable(cmd.OutOrStdout(), rows)
	return nil
}

func storageFlags() map[string]interface{} {
	return map[string]interface{}{
		"backend": backendName,
		"store":   storePath,
	}
}

// loadRows reads the saved collection and converts it to export rows in the
// configured time zone
func loadRows(ctx context.Context, cfg *config.Config, log logger.Logger) ([]export.Row, error) {
	loc, err := config.LoadLocation(cfg.Export.Timezone)
	if err != nil {
		return nil, err
	}

	store, err := storage.Open(ctx, cfg.Storage, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	c := comments.Load(ctx, store, log)
	return export.Rows(c.Records(), loc), nil
}
