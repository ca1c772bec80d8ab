// Package cache keeps recent harvest runs so repeated requests do not start a
// new browser harvest every time
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"priceharvester/internal/config"
	"priceharvester/internal/logger"
	"priceharvester/internal/models"
)

// Store is a TTL cache of harvest runs keyed by listing
type Store interface {
	// Get returns the cached run; ok is false on a miss or an expired entry
	Get(key string) (run models.HarvestRun, ok bool, err error)
	Set(key string, run models.HarvestRun) error
	Delete(key string) error
}

// Key derives a compact cache key from a listing URL
func Key(listingURL string) string {
	sum := sha256.Sum256([]byte(listingURL))
	return "harvest:" + hex.EncodeToString(sum[:16])
}

// New picks a backend: memcached when an address is set, then a JSON file,
// then an in-process LRU
func New(cfg config.Cache, log *logger.Logger) Store {
	log = logger.OrNop(log)
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}

	switch {
	case cfg.MemcacheAddr != "":
		log.Info().Str("addr", cfg.MemcacheAddr).Msg("Using memcached result cache")
		return NewMemcacheStore(cfg.MemcacheAddr, ttl)
	case cfg.CacheFile != "":
		log.Info().Str("file", cfg.CacheFile).Msg("Using file result cache")
		return NewFileStore(cfg.CacheFile, ttl)
	default:
		size := cfg.Size
		if size <= 0 {
			size = 64
		}
		log.Info().Int("size", size).Msg("Using in-memory result cache")
		return NewLRUStore(size, ttl)
	}
}
