// Package comments holds the comment record type and the incremental,
// deduplicating collection that scrape passes merge into.
//
// A collection is keyed by contributor username. The first record seen for a
// username wins; later records from the same contributor are dropped even
// when their text differs. Records already collected never move, and new
// records are appended in the order they were observed.
//
// Typical pass:
//
//	c := comments.Load(ctx, store, log)
//	added := c.Merge(batch)
//	if err := comments.Save(ctx, store, c); err != nil {
//	    return err
//	}
package comments
