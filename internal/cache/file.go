package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"priceharvester/internal/models"
)

type fileEntry struct {
	Run       models.HarvestRun `json:"run"`
	Timestamp time.Time         `json:"timestamp"`
}

type fileContents struct {
	Entries map[string]fileEntry `json:"entries"`
}

// FileStore keeps runs in a single JSON file. It survives restarts, which
// suits the one-shot CLI.
type FileStore struct {
	path string
	ttl  time.Duration
	mu   sync.Mutex
}

func NewFileStore(path string, ttl time.Duration) *FileStore {
	return &FileStore{path: path, ttl: ttl}
}

func (s *FileStore) load() (fileContents, error) {
	contents := fileContents{Entries: map[string]fileEntry{}}

	file, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return contents, nil
	}
	if err != nil {
		return contents, fmt.Errorf("failed to open cache file: %w", err)
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(&contents); err != nil {
		// A corrupt cache is treated as empty and rewritten on the next Set
		return fileContents{Entries: map[string]fileEntry{}}, nil
	}
	if contents.Entries == nil {
		contents.Entries = map[string]fileEntry{}
	}
	return contents, nil
}

func (s *FileStore) save(contents fileContents) error {
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	if err := json.NewEncoder(file).Encode(contents); err != nil {
		file.Close()
		return fmt.Errorf("failed to encode cache: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	return os.Rename(tmp, s.path)
}

func (s *FileStore) Get(key string) (models.HarvestRun, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	contents, err := s.load()
	if err != nil {
		return models.HarvestRun{}, false, err
	}
	entry, ok := contents.Entries[key]
	if !ok || time.Since(entry.Timestamp) > s.ttl {
		return models.HarvestRun{}, false, nil
	}
	return entry.Run, true, nil
}

func (s *FileStore) Set(key string, run models.HarvestRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	contents, err := s.load()
	if err != nil {
		return err
	}
	now := time.Now()
	for k, e := range contents.Entries {
		if now.Sub(e.Timestamp) > s.ttl {
			delete(contents.Entries, k)
		}
	}
	contents.Entries[key] = fileEntry{Run: run, Timestamp: now}
	return s.save(contents)
}

func (s *FileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	contents, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := contents.Entries[key]; !ok {
		return nil
	}
	delete(contents.Entries, key)
	return s.save(contents)
}

// Age returns how long ago key was stored
func (s *FileStore) Age(key string) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	contents, err := s.load()
	if err != nil {
		return 0, false
	}
	entry, ok := contents.Entries[key]
	if !ok {
		return 0, false
	}
	return time.Since(entry.Timestamp), true
}
