package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bradfitz/gomemcache/memcache"

	"priceharvester/internal/models"
)

// MemcacheStore shares cached runs between server instances
type MemcacheStore struct {
	client *memcache.Client
	ttl    time.Duration
}

func NewMemcacheStore(serverAddr string, ttl time.Duration) *MemcacheStore {
	return &MemcacheStore{
		client: memcache.New(serverAddr),
		ttl:    ttl,
	}
}

func (m *MemcacheStore) Get(key string) (models.HarvestRun, bool, error) {
	item, err := m.client.Get(key)
	if errors.Is(err, memcache.ErrCacheMiss) {
		return models.HarvestRun{}, false, nil
	}
	if err != nil {
		return models.HarvestRun{}, false, fmt.Errorf("memcache get: %w", err)
	}

	var run models.HarvestRun
	if err := json.Unmarshal(item.Value, &run); err != nil {
		return models.HarvestRun{}, false, fmt.Errorf("failed to decode cached run: %w", err)
	}
	return run, true, nil
}

func (m *MemcacheStore) Set(key string, run models.HarvestRun) error {
	value, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to encode run: %w", err)
	}
	return m.client.Set(&memcache.Item{
		Key:        key,
		Value:      value,
		Expiration: int32(m.ttl.Seconds()),
	})
}

func (m *MemcacheStore) Delete(key string) error {
	err := m.client.Delete(key)
	if errors.Is(err, memcache.ErrCacheMiss) {
		return nil
	}
	return err
}
