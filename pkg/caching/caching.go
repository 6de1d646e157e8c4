package caching

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Store is a persistent key-value store that remembers when each value was written.
// *db.DB satisfies it.
type Store interface {
	Load(key string) (value []byte, writtenAt time.Time, ok bool, err error)
	Save(key string, value []byte, writtenAt time.Time) error
	Delete(key string) error
}

// FileStore keeps one file per key under a directory.
// The file's modification time records when the value was written.
type FileStore struct {
	path string
}

// NewFileStore creates a FileStore rooted at path.
// The directory will be created if it doesn't exist.
func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &FileStore{path: path}, nil
}

// file generates a SHA256 hash of the key to use as a filename.
func (c *FileStore) file(key string) string {
	hash := sha256.Sum256([]byte(key))
	return filepath.Join(c.path, fmt.Sprintf("%x", hash))
}

func (c *FileStore) Load(key string) ([]byte, time.Time, bool, error) {
	filePath := c.file(key)

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return nil, time.Time{}, false, nil
	}
	if err != nil {
		return nil, time.Time{}, false, fmt.Errorf("failed to stat cache file: %w", err)
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, time.Time{}, false, fmt.Errorf("failed to read cache file: %w", err)
	}
	return data, info.ModTime(), true, nil
}

func (c *FileStore) Save(key string, data []byte, writtenAt time.Time) error {
	filePath := c.file(key)
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	if err := os.Chtimes(filePath, writtenAt, writtenAt); err != nil {
		return fmt.Errorf("failed to stamp cache file: %w", err)
	}
	return nil
}

func (c *FileStore) Delete(key string) error {
	if err := os.Remove(c.file(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete cache file: %w", err)
	}
	return nil
}

type memoryEntry struct {
	value     []byte
	writtenAt time.Time
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry)}
}

func (m *MemoryStore) Load(key string) ([]byte, time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, time.Time{}, false, nil
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, e.writtenAt, true, nil
}

func (m *MemoryStore) Save(key string, value []byte, writtenAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	m.entries[key] = memoryEntry{value: v, writtenAt: writtenAt}
	return nil
}

func (m *MemoryStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}
