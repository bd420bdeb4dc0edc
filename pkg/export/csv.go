package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"igcomments/pkg/storage"
)

// WriteCSV writes the header and rows as CSV
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write(r.Strings()); err != nil {
			return fmt.Errorf("write csv row %s: %w", r.Username, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile replaces path with a CSV export of rows
func WriteCSVFile(path string, rows []Row) error {
	return storage.WriteFileAtomic(path, 0644, func(w io.Writer) error {
		return WriteCSV(w, rows)
	})
}
