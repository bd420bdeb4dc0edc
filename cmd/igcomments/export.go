package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"igcomments/pkg/export"
	"igcomments/pkg/logger"
	"igcomments/pkg/ui"
)

var (
	csvOut          string
	spreadsheetID   string
	sheetRange      string
	credentialsFile string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the saved collection",
	Long: `Export the saved collection as five columns: Username, Comment, Timestamp,
Likes and Verified, with a header row first. Timestamps are written as
2006-01-02 15:04:05 in export.timezone.`,
}

var exportCSVCmd = &cobra.Command{
	Use:     "csv",
	Short:   "Write the collection to a CSV file",
	Example: `  igcomments export csv --out comments.csv`,
	Args:    cobra.NoArgs,
	RunE:    runExportCSV,
}

var exportSheetsCmd = &cobra.Command{
	Use:   "sheets",
	Short: "Write the collection to a Google Sheet",
	Long: `Write the collection into a Google Sheets range, starting at the header row.

The credentials file is a service account or authorized user JSON key. The
spreadsheet must be shared with that account as an editor.`,
	Example: `  igcomments export sheets --spreadsheet 1AbC... --range 'Sheet1!A1' --credentials key.json`,
	Args:    cobra.NoArgs,
	RunE:    runExportSheets,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.AddCommand(exportCSVCmd)
	exportCmd.AddCommand(exportSheetsCmd)

	addStorageFlags(exportCSVCmd)
	exportCSVCmd.Flags().StringVarP(&csvOut, "out", "o", "", "CSV file to write (default export.csv_path)")

	addStorageFlags(exportSheetsCmd)
	exportSheetsCmd.Flags().StringVar(&spreadsheetID, "spreadsheet", "", "spreadsheet id")
	exportSheetsCmd.Flags().StringVar(&sheetRange, "range", "", "target range (default export.range)")
	exportSheetsCmd.Flags().StringVar(&credentialsFile, "credentials", "", "Google credentials file")
}

func runExportCSV(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(storageFlags())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	log := logger.GetLogger()

	rows, err := loadRows(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}

	path := cfg.Export.CSVPath
	if csvOut != "" {
		path = csvOut
	}
	if path == "-" {
		return export.WriteCSV(cmd.OutOrStdout(), rows)
	}
	if err := export.WriteCSVFile(path, rows); err != nil {
		return err
	}

	log.WithField("path", path).InfoWithFields("CSV written", map[string]interface{}{"rows": len(rows)})
	ui.PrintSuccess(fmt.Sprintf("Wrote %d rows to %s", len(rows), path))
	return nil
}

func runExportSheets(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(storageFlags())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	log := logger.GetLogger()

	if spreadsheetID != "" {
		cfg.Export.SpreadsheetID = spreadsheetID
	}
	if sheetRange != "" {
		cfg.Export.Range = sheetRange
	}
	if credentialsFile != "" {
		cfg.Export.CredentialsFile = credentialsFile
	}
	if cfg.Export.SpreadsheetID == "" {
		return fmt.Errorf("no spreadsheet id; pass --spreadsheet or set export.spreadsheet_id")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rows, err := loadRows(ctx, cfg, log)
	if err != nil {
		return err
	}

	exporter, err := export.NewSheetsExporter(ctx, cfg.Export.SpreadsheetID, cfg.Export.CredentialsFile, log)
	if err != nil {
		return err
	}
	cells, err := exporter.Update(ctx, cfg.Export.Range, rows)
	if err != nil {
		return err
	}

	ui.PrintSuccess(fmt.Sprintf("Updated %d cells (%d rows) in %s", cells, len(rows)+1, cfg.Export.Range))
	return nil
}
