package storage

import (
	"context"
	"fmt"

	"igcomments/pkg/comments"
	"igcomments/pkg/config"
	"igcomments/pkg/logger"
)

// Backend is a comments.Store that holds resources until closed
type Backend interface {
	comments.Store
	Close() error
}

var (
	_ Backend = (*JSONFileStore)(nil)
	_ Backend = (*SQLiteStore)(nil)
	_ Backend = (*MongoStore)(nil)
)

// Open returns the backend selected by cfg.Backend
func Open(ctx context.Context, cfg config.StorageConfig, log logger.Logger) (Backend, error) {
	switch cfg.Backend {
	case "", "json":
		return NewJSONFileStore(cfg.Path, log), nil
	case "sqlite":
		return OpenSQLite(cfg.Path, log)
	case "mongo":
		return ConnectMongo(ctx, cfg.MongoURI, cfg.Database, cfg.Collection, log)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// LockTarget returns the path the storage lock is derived from
func LockTarget(cfg config.StorageConfig) string {
	if cfg.Backend == "mongo" {
		return fmt.Sprintf("%s.%s", cfg.Database, cfg.Collection)
	}
	return cfg.Path
}
