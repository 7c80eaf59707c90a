package catalog

import (
	"context"
	"encoding/json"
	"errors"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/drinkscout/drinkscout/internal/logger"
)

// cacheGet loads and decodes a cached listing. A miss, an expired entry, or
// any cache failure reads as a miss; the listing then falls through to the
// database.
func (s *Service) cacheGet(key string, v any) bool {
	if s.cache == nil {
		return false
	}

	var data []byte
	err := s.cache.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			logger.Warn("listing cache read failed", "key", key, logger.KeyError, err.Error())
		}
		return false
	}

	if err := json.Unmarshal(data, v); err != nil {
		logger.Warn("listing cache entry corrupt", "key", key, logger.KeyError, err.Error())
		return false
	}
	return true
}

// cacheSet stores a listing with the configured TTL. Failures are logged
// and ignored; the cache is an optimization, not a source of truth.
func (s *Service) cacheSet(ctx context.Context, key string, v any) {
	if s.cache == nil {
		return
	}

	data, err := json.Marshal(v)
	if err != nil {
		logger.Warn("listing cache encode failed", "key", key, logger.KeyError, err.Error())
		return
	}

	err = s.cache.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), data).WithTTL(s.ttl)
		return txn.SetEntry(entry)
	})
	if err != nil {
		logger.WarnCtx(ctx, "listing cache write failed", "key", key, logger.KeyError, err.Error())
	}
}
