package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps entries in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*Entry)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, ErrNotFound{Key: key}
	}
	return copyEntry(e), nil
}

func (m *MemoryStore) Put(_ context.Context, entry *Entry) error {
	cp := copyEntry(entry)
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	m.mu.Lock()
	m.entries[entry.Key] = cp
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[key]; !ok {
		return ErrNotFound{Key: key}
	}
	delete(m.entries, key)
	return nil
}

func (m *MemoryStore) List(_ context.Context) ([]EntryInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	infos := make([]EntryInfo, 0, len(m.entries))
	for _, e := range m.entries {
		infos = append(infos, EntryInfo{
			Key:          e.Key,
			Identity:     e.Identity,
			VersionStamp: e.VersionStamp,
			CreatedAt:    e.CreatedAt,
			Size:         int64(len(e.Body)),
		})
	}
	return infos, nil
}

func (m *MemoryStore) Close() error {
	return nil
}

// Len returns the number of stored entries.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
