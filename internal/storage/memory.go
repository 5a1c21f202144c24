package storage

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"notes-go/internal/notes"
)

// MemoryStorage is an in-memory implementation of notes.Storage.
// Values are copied on the way in and out. Safe for concurrent use.
type MemoryStorage struct {
	data map[string][]byte
	mu   sync.RWMutex
}

// NewMemoryStorage creates an empty in-memory store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[string][]byte)}
}

// Get returns the value stored under key.
func (m *MemoryStorage) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.data[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", notes.ErrKeyNotFound, key)
	}
	return slices.Clone(data), nil
}

// Put stores value under key, replacing any previous value.
func (m *MemoryStorage) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = slices.Clone(value)
	return nil
}

// Keys returns the stored keys in sorted order.
func (m *MemoryStorage) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Close is a no-op for in-memory storage.
func (m *MemoryStorage) Close() error {
	return nil
}

// Compile-time check that MemoryStorage implements notes.Storage
var _ notes.Storage = (*MemoryStorage)(nil)
