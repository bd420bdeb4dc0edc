package comments

import (
	"context"
	"fmt"

	"igcomments/pkg/logger"
)

// Store persists the ordered record sequence of a collection. The membership
// set is never stored; it is rebuilt on load.
type Store interface {
	// Load returns the persisted records. Empty storage yields no records
	// and no error.
	Load(ctx context.Context) ([]Record, error)
	// Save replaces the persisted records with records.
	Save(ctx context.Context, records []Record) error
}

// Load bootstraps a collection from store. It never fails: unreadable or
// corrupt storage is logged as a warning and an empty collection is returned.
func Load(ctx context.Context, store Store, log logger.Logger) *Collection {
	if log == nil {
		log = logger.GetLogger()
	}

	records, err := store.Load(ctx)
	if err != nil {
		log.WithError(err).Warn("Stored comments unreadable, starting with an empty collection")
		return NewCollection()
	}

	c := FromRecords(records)
	if dropped := len(records) - c.Len(); dropped > 0 {
		log.WarnWithFields("Dropped duplicate contributors from stored comments", map[string]interface{}{
			"dropped": dropped,
		})
	}

	log.DebugWithFields("Comments loaded", map[string]interface{}{
		"total": c.Len(),
	})
	return c
}

// Save writes the collection's records to store, replacing prior content.
func Save(ctx context.Context, store Store, c *Collection) error {
	if err := store.Save(ctx, c.Records()); err != nil {
		return fmt.Errorf("failed to save comments: %w", err)
	}
	return nil
}
