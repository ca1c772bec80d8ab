package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"priceharvester/internal/models"
)

// LRUStore is an in-process cache bounded by size and TTL
type LRUStore struct {
	lru *expirable.LRU[string, models.HarvestRun]
}

func NewLRUStore(size int, ttl time.Duration) *LRUStore {
	return &LRUStore{lru: expirable.NewLRU[string, models.HarvestRun](size, nil, ttl)}
}

func (s *LRUStore) Get(key string) (models.HarvestRun, bool, error) {
	run, ok := s.lru.Get(key)
	return run, ok, nil
}

func (s *LRUStore) Set(key string, run models.HarvestRun) error {
	s.lru.Add(key, run)
	return nil
}

func (s *LRUStore) Delete(key string) error {
	s.lru.Remove(key)
	return nil
}
