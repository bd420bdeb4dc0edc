package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"igcomments/pkg/comments"
	errs "igcomments/pkg/errors"
	"igcomments/pkg/logger"
)

const createCommentsTableSQL = `
CREATE TABLE IF NOT EXISTS comments (
	position INTEGER PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	comment TEXT NOT NULL,
	timestamp_text TEXT,
	timestamp_epoch INTEGER,
	likes INTEGER NOT NULL DEFAULT 0,
	verified INTEGER NOT NULL DEFAULT 0
);
`

// SQLiteStore keeps the collection in a SQLite table ordered by position
type SQLiteStore struct {
	db     *sql.DB
	logger logger.Logger
}

// OpenSQLite opens (or creates) the database at path and ensures the schema
func OpenSQLite(path string, log logger.Logger) (*SQLiteStore, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage: open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: set WAL mode: %w", err)
	}

	if _, err := db.Exec(createCommentsTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: create tables: %w", err)
	}

	return &SQLiteStore{db: db, logger: log}, nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load returns all records ordered by their position
func (s *SQLiteStore) Load(ctx context.Context) ([]comments.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT username, comment, timestamp_text, timestamp_epoch, likes, verified
		 FROM comments ORDER BY position`)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeStorage, err, "query comments")
	}
	defer rows.Close()

	var records []comments.Record
	for rows.Next() {
		var (
			r        comments.Record
			tsText   sql.NullString
			tsEpoch  sql.NullInt64
			verified int
		)
		if err := rows.Scan(&r.Username, &r.Comment, &tsText, &tsEpoch, &r.Likes, &verified); err != nil {
			return nil, errs.Wrap(errs.ErrorTypeStorage, err, "scan comment row")
		}
		switch {
		case tsEpoch.Valid:
			r.Timestamp = comments.EpochTimestamp(tsEpoch.Int64)
		case tsText.Valid:
			r.Timestamp = comments.TextTimestamp(tsText.String)
		}
		r.Verified = verified != 0
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeStorage, err, "iterate comments")
	}

	return records, nil
}

// Save replaces every row with records inside a single transaction
func (s *SQLiteStore) Save(ctx context.Context, records []comments.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errs.Wrap(errs.ErrorTypeStorage, err, "begin transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM comments`); err != nil {
		return errs.Wrap(errs.ErrorTypeStorage, err, "clear comments")
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO comments (position, username, comment, timestamp_text, timestamp_epoch, likes, verified)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errs.Wrap(errs.ErrorTypeStorage, err, "prepare insert")
	}
	defer stmt.Close()

	for i, r := range records {
		var (
			tsText  sql.NullString
			tsEpoch sql.NullInt64
		)
		if sec, ok := r.Timestamp.Epoch(); ok {
			tsEpoch = sql.NullInt64{Int64: sec, Valid: true}
		} else if text, ok := r.Timestamp.Text(); ok {
			tsText = sql.NullString{String: text, Valid: true}
		}

		verified := 0
		if r.Verified {
			verified = 1
		}

		if _, err := stmt.ExecContext(ctx, i, r.Username, r.Comment, tsText, tsEpoch, r.Likes, verified); err != nil {
			return errs.Wrap(errs.ErrorTypeStorage, err, fmt.Sprintf("insert comment by %s", r.Username))
		}
	}

	if err := tx.Commit(); err != nil {
		return errs.Wrap(errs.ErrorTypeStorage, err, "commit comments")
	}

	s.logger.DebugWithFields("Wrote comments table", map[string]interface{}{
		"records": len(records),
	})
	return nil
}
