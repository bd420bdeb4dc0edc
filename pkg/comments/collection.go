package comments

// Collection is the ordered, deduplicated set of comments gathered across
// scrape passes. The zero value is not usable; use NewCollection.
type Collection struct {
	records []Record
	seen    map[string]struct{}
}

// NewCollection returns an empty collection.
func NewCollection() *Collection {
	return &Collection{seen: make(map[string]struct{})}
}

// FromRecords builds a collection from previously persisted records. Later
// duplicates of a username are dropped.
func FromRecords(records []Record) *Collection {
	c := NewCollection()
	c.Merge(records)
	return c
}

// Merge appends every record of batch whose username has not been seen yet,
// in batch order, and returns how many were appended. Existing records keep
// their position. Records must carry a non-empty username.
func (c *Collection) Merge(batch []Record) int {
	added := 0
	for _, rec := range batch {
		if _, ok := c.seen[rec.Username]; ok {
			continue
		}
		c.records = append(c.records, rec)
		c.seen[rec.Username] = struct{}{}
		added++
	}
	return added
}

// Len returns the number of collected records.
func (c *Collection) Len() int { return len(c.records) }

// Contains reports whether a record from username is already collected.
func (c *Collection) Contains(username string) bool {
	_, ok := c.seen[username]
	return ok
}

// Records returns a copy of the collected records in insertion order.
func (c *Collection) Records() []Record {
	out := make([]Record, len(c.records))
	copy(out, c.records)
	return out
}

// Usernames returns the membership set as a slice in insertion order.
func (c *Collection) Usernames() []string {
	out := make([]string, 0, len(c.records))
	for _, rec := range c.records {
		out = append(out, rec.Username)
	}
	return out
}
