package driver

import (
	"context"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/drinkscout/drinkscout/internal/logger"
)

// CacheStoreDriver manages a badger-backed local key/value cache used for
// short-TTL caching of catalog listings (drink tags, chain brands).
//
// Supported options:
//   - path: database directory (required unless in_memory)
//   - in_memory: run fully in memory, for tests and ephemeral deployments
type CacheStoreDriver struct{}

// NewCacheStoreDriver creates a cache store driver.
func NewCacheStoreDriver() *CacheStoreDriver {
	return &CacheStoreDriver{}
}

// Initialize opens the badger database.
func (d *CacheStoreDriver) Initialize(ctx context.Context, opts Options) (any, error) {
	inMemory := opts.Bool("in_memory", false)
	path := opts.String("path", "")

	if !inMemory && path == "" {
		return nil, &ConfigError{Driver: "cachestore", Option: "path", Reason: "path is required unless in_memory is set"}
	}

	var badgerOpts badger.Options
	if inMemory {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		badgerOpts = badger.DefaultOptions(path)
	}
	// Badger's own logger is too chatty for a sidecar cache.
	badgerOpts = badgerOpts.WithLogger(nil)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("open badger cache at %q: %w", path, err)
	}

	logger.Info("cache store opened", "path", path, "in_memory", inMemory)
	return db, nil
}

// Cleanup closes the database, flushing pending writes.
func (d *CacheStoreDriver) Cleanup(ctx context.Context, instance any) error {
	db, ok := instance.(*badger.DB)
	if !ok || db == nil {
		return nil
	}
	if err := db.Close(); err != nil {
		return fmt.Errorf("close badger cache: %w", err)
	}
	return nil
}

// Healthcheck reports whether the database is still open.
func (d *CacheStoreDriver) Healthcheck(ctx context.Context, instance any) error {
	db, ok := instance.(*badger.DB)
	if !ok || db == nil {
		return fmt.Errorf("cache store not initialized")
	}
	if db.IsClosed() {
		return fmt.Errorf("cache store is closed")
	}
	return nil
}
