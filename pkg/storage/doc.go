// Package storage persists comment collections.
//
// Three backends implement comments.Store:
//   - JSONFileStore: a JSON array in one file, replaced atomically on save
//   - SQLiteStore: a comments table keyed by position, replaced in one transaction
//   - MongoStore: one document per record with a unique position index
//
// Every backend preserves record order and the absent, text or epoch form of
// each timestamp. Open picks a backend from the storage configuration.
//
// Lock wraps an advisory file lock so two collectors cannot interleave
// load, merge and save on the same collection:
//
//	lock := storage.NewLock(storage.LockTarget(cfg.Storage), cfg.Storage.LockTimeout)
//	if err := lock.Acquire(ctx); err != nil {
//	    return err
//	}
//	defer lock.Release()
package storage
