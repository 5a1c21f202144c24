package testutil

import (
	"context"
	"errors"
	"sync"

	"notes-go/internal/notes"
	"notes-go/internal/storage"
)

// ErrInjected is returned by FailingStorage when a failure is armed.
var ErrInjected = errors.New("injected storage failure")

// FailingStorage wraps an in-memory store and fails reads or writes of
// chosen keys on demand. It also counts writes per key.
type FailingStorage struct {
	*storage.MemoryStorage

	mu       sync.Mutex
	failGet  map[string]bool
	failPut  map[string]bool
	putCount map[string]int
}

// NewFailingStorage returns a FailingStorage with no failures armed.
func NewFailingStorage() *FailingStorage {
	return &FailingStorage{
		MemoryStorage: storage.NewMemoryStorage(),
		failGet:       make(map[string]bool),
		failPut:       make(map[string]bool),
		putCount:      make(map[string]int),
	}
}

// FailGet makes Get of key fail until cleared with enabled=false.
func (s *FailingStorage) FailGet(key string, enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failGet[key] = enabled
}

// FailPut makes Put of key fail until cleared with enabled=false.
func (s *FailingStorage) FailPut(key string, enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failPut[key] = enabled
}

// Puts returns how many successful writes key has received.
func (s *FailingStorage) Puts(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.putCount[key]
}

func (s *FailingStorage) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	fail := s.failGet[key]
	s.mu.Unlock()
	if fail {
		return nil, ErrInjected
	}
	return s.MemoryStorage.Get(ctx, key)
}

func (s *FailingStorage) Put(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	fail := s.failPut[key]
	if !fail {
		s.putCount[key]++
	}
	s.mu.Unlock()
	if fail {
		return ErrInjected
	}
	return s.MemoryStorage.Put(ctx, key, value)
}

var _ notes.Storage = (*FailingStorage)(nil)
