package export

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	errs "igcomments/pkg/errors"
	"igcomments/pkg/logger"
)

// SheetsExporter writes rows into a Google Sheets range
type SheetsExporter struct {
	service       *sheets.Service
	spreadsheetID string
	logger        logger.Logger
}

// NewSheetsExporter creates an exporter authenticated with a service account
// or authorized-user credentials file
func NewSheetsExporter(ctx context.Context, spreadsheetID, credentialsFile string, log logger.Logger) (*SheetsExporter, error) {
	if credentialsFile == "" {
		return nil, errs.New(errs.ErrorTypeAuth, 0, "no Google credentials file configured")
	}
	return NewSheetsExporterWithOptions(ctx, spreadsheetID, log,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
}

// NewSheetsExporterWithOptions creates an exporter from raw client options
func NewSheetsExporterWithOptions(ctx context.Context, spreadsheetID string, log logger.Logger, opts ...option.ClientOption) (*SheetsExporter, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id is required")
	}
	if log == nil {
		log = logger.GetLogger()
	}

	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeAuth, err, "create Sheets client")
	}

	return &SheetsExporter{
		service:       service,
		spreadsheetID: spreadsheetID,
		logger:        log,
	}, nil
}

// Update writes the header and rows starting at rng and returns the number of
// cells updated. Values are written as entered, without formula parsing.
func (e *SheetsExporter) Update(ctx context.Context, rng string, rows []Row) (int64, error) {
	values := make([][]interface{}, 0, len(rows)+1)
	header := make([]interface{}, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	values = append(values, header)
	for _, r := range rows {
		values = append(values, r.Values())
	}

	resp, err := e.service.Spreadsheets.Values.
		Update(e.spreadsheetID, rng, &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return 0, e.classify(ctx, err)
	}

	e.logger.InfoWithFields("Sheet updated", map[string]interface{}{
		"spreadsheet_id": e.spreadsheetID,
		"range":          resp.UpdatedRange,
		"cells":          resp.UpdatedCells,
		"rows":           len(rows),
	})
	return resp.UpdatedCells, nil
}

func (e *SheetsExporter) classify(ctx context.Context, err error) error {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return errs.Wrap(errs.ErrorTypeNetwork, err, "update sheet")
	}

	e.logger.WarnWithFields("Sheets API error", map[string]interface{}{
		"spreadsheet_id": e.spreadsheetID,
		"status":         apiErr.Code,
		"message":        apiErr.Message,
	})

	if apiErr.Code == http.StatusForbidden {
		return &errs.Error{
			Type: errs.ErrorTypeAuth,
			Code: apiErr.Code,
			Message: fmt.Sprintf("no write access to spreadsheet %s; share it with the account in the credentials file as an editor",
				e.spreadsheetID),
			Err: err,
		}
	}
	return &errs.Error{
		Type:    errs.FromStatusCode(apiErr.Code),
		Code:    apiErr.Code,
		Message: "update sheet",
		Err:     err,
	}
}
