package common

import (
	"fmt"
	"io"

	"github.com/dtnitsch/blog-pulse/models"
	"github.com/dtnitsch/blog-pulse/pkg/caching"
	"github.com/dtnitsch/blog-pulse/pkg/db"
)

// DefaultFileCacheDir is used by the file backend when no path is configured.
const DefaultFileCacheDir = ".blog-pulse-cache"

// OpenStore opens the key-value store selected by cfg.Backend. The Closer
// must be closed when the store is no longer used.
func OpenStore(cfg models.CacheConfig) (caching.Store, io.Closer, error) {
	switch cfg.Backend {
	case "", "sqlite":
		database, err := db.Open(cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open database: %w", err)
		}
		return database, database, nil
	case "file":
		dir := cfg.Path
		if dir == "" {
			dir = DefaultFileCacheDir
		}
		store, err := caching.NewFileStore(dir)
		if err != nil {
			return nil, nil, err
		}
		return store, nopCloser{}, nil
	case "memory":
		return caching.NewMemoryStore(), nopCloser{}, nil
	}
	return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
}
