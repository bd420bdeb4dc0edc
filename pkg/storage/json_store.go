package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"time"

	"igcomments/pkg/comments"
	errs "igcomments/pkg/errors"
	"igcomments/pkg/logger"
)

// JSONFileStore keeps the collection as a JSON array in a single file
type JSONFileStore struct {
	path   string
	logger logger.Logger
}

// NewJSONFileStore creates a store backed by path. The file is created on
// the first Save.
func NewJSONFileStore(path string, log logger.Logger) *JSONFileStore {
	if log == nil {
		log = logger.GetLogger()
	}
	return &JSONFileStore{path: path, logger: log}
}

// Path returns the backing file path
func (s *JSONFileStore) Path() string {
	return s.path
}

// Load reads the stored records. A missing or blank file yields no records.
func (s *JSONFileStore) Load(ctx context.Context) ([]comments.Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errs.Wrap(errs.ErrorTypeStorage, err, "read "+s.path)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var records []comments.Record
	if err := json.Unmarshal(data, &records); err != nil {
		msg := "decode " + s.path
		if aside, copyErr := s.keepUnreadable(data); copyErr != nil {
			s.logger.WithError(copyErr).Warn("Failed to keep a copy of the unreadable comments file")
		} else {
			msg += " (copy kept at " + aside + ")"
		}
		return nil, errs.Wrap(errs.ErrorTypeParsing, err, msg)
	}

	s.logger.DebugWithFields("Read comments file", map[string]interface{}{
		"path":    s.path,
		"records": len(records),
	})
	return records, nil
}

// keepUnreadable copies data next to the store file so the next Save does not
// destroy it
func (s *JSONFileStore) keepUnreadable(data []byte) (string, error) {
	aside := s.path + ".corrupt-" + time.Now().UTC().Format("20060102T150405Z")
	err := WriteFileAtomic(aside, 0644, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
	if err != nil {
		return "", err
	}
	return aside, nil
}

// Save atomically replaces the file with records
func (s *JSONFileStore) Save(ctx context.Context, records []comments.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if records == nil {
		records = []comments.Record{}
	}

	if err := WriteJSONAtomic(s.path, records); err != nil {
		return errs.Wrap(errs.ErrorTypeStorage, err, "write "+s.path)
	}

	s.logger.DebugWithFields("Wrote comments file", map[string]interface{}{
		"path":    s.path,
		"records": len(records),
	})
	return nil
}

// Close is a no-op; the file is only open during Load and Save
func (s *JSONFileStore) Close() error {
	return nil
}
