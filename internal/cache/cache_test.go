package cache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"priceharvester/internal/config"
	"priceharvester/internal/models"
)

func sampleRun() models.HarvestRun {
	started := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	return models.HarvestRun{
		ID:         7,
		StartedAt:  started,
		FinishedAt: started.Add(2 * time.Minute),
		Source:     models.RunSourceFresh,
		Summary:    models.HarvestSummary{TotalPrice: 14499, TotalProducts: 5, TotalPages: 3},
	}
}

func TestKey(t *testing.T) {
	a := Key("https://shop.test/phones?page=0")
	b := Key("https://shop.test/phones?page=1")
	assert.True(t, strings.HasPrefix(a, "harvest:"))
	assert.Len(t, a, len("harvest:")+32)
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, Key("https://shop.test/phones?page=0"))
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache", "runs.json")
	store := NewFileStore(path, time.Hour)

	_, ok, err := store.Get("k")
	require.NoError(t, err)
	assert.False(t, ok)

	run := sampleRun()
	require.NoError(t, store.Set("k", run))

	got, ok, err := store.Get("k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, run.Summary, got.Summary)
	assert.True(t, run.FinishedAt.Equal(got.FinishedAt))

	age, ok := store.Age("k")
	assert.True(t, ok)
	assert.Less(t, age, time.Minute)

	// a second store on the same file sees the entry
	reopened := NewFileStore(path, time.Hour)
	_, ok, _ = reopened.Get("k")
	assert.True(t, ok)

	require.NoError(t, store.Delete("k"))
	_, ok, _ = store.Get("k")
	assert.False(t, ok)
	require.NoError(t, store.Delete("k"))
}

func TestFileStoreExpiry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.json")
	store := NewFileStore(path, 20*time.Millisecond)

	require.NoError(t, store.Set("k", sampleRun()))
	time.Sleep(40 * time.Millisecond)

	_, ok, err := store.Get("k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))
	store := NewFileStore(path, time.Hour)

	_, ok, err := store.Get("k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set("k", sampleRun()))
	_, ok, _ = store.Get("k")
	assert.True(t, ok)
}

func TestLRUStore(t *testing.T) {
	store := NewLRUStore(2, time.Hour)

	require.NoError(t, store.Set("a", sampleRun()))
	require.NoError(t, store.Set("b", sampleRun()))
	require.NoError(t, store.Set("c", sampleRun()))

	_, ok, _ := store.Get("a")
	assert.False(t, ok, "oldest entry should be evicted")
	got, ok, _ := store.Get("c")
	assert.True(t, ok)
	assert.Equal(t, uint64(5), got.Summary.TotalProducts)

	require.NoError(t, store.Delete("c"))
	_, ok, _ = store.Get("c")
	assert.False(t, ok)
}

func TestLRUStoreExpiry(t *testing.T) {
	store := NewLRUStore(4, 20*time.Millisecond)
	require.NoError(t, store.Set("a", sampleRun()))
	time.Sleep(50 * time.Millisecond)
	_, ok, _ := store.Get("a")
	assert.False(t, ok)
}

func TestNewSelectsBackend(t *testing.T) {
	_, isMemcache := New(config.Cache{MemcacheAddr: "localhost:11211", TTL: time.Minute}, nil).(*MemcacheStore)
	assert.True(t, isMemcache)

	_, isFile := New(config.Cache{CacheFile: filepath.Join(t.TempDir(), "c.json"), TTL: time.Minute}, nil).(*FileStore)
	assert.True(t, isFile)

	_, isLRU := New(config.Cache{}, nil).(*LRUStore)
	assert.True(t, isLRU)
}

// This test requires a running memcached instance
// If memcached is not available, the test will be skipped
func TestMemcacheStore(t *testing.T) {
	store := NewMemcacheStore("localhost:11211", time.Minute)

	_, err := store.client.Get("missing-key")
	if err != nil && err != memcache.ErrCacheMiss {
		t.Skip("Memcached is not available, skipping test")
	}

	key := Key("memcache-test")
	require.NoError(t, store.Set(key, sampleRun()))

	got, ok, err := store.Get(key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(14499), got.Summary.TotalPrice)

	require.NoError(t, store.Delete(key))
	_, ok, err = store.Get(key)
	assert.NoError(t, err)
	assert.False(t, ok)
}
