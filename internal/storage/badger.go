package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v3"

	"notes-go/internal/notes"
)

// badgerPrefix namespaces collection keys inside the badger keyspace.
const badgerPrefix = "collection:"

// BadgerStorage keeps collections in an embedded badger database.
type BadgerStorage struct {
	db *badger.DB
}

// NewBadgerStorage opens the badger database in dir. An empty dir opens an
// in-memory database.
func NewBadgerStorage(dir string) (*BadgerStorage, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}
	return &BadgerStorage{db: db}, nil
}

// Get returns a copy of the value stored under key.
func (s *BadgerStorage) Get(_ context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(badgerPrefix + key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: %s", notes.ErrKeyNotFound, key)
		}
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	return value, nil
}

// Put stores value under key in a single transaction.
func (s *BadgerStorage) Put(_ context.Context, key string, value []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(badgerPrefix+key), value)
	})
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

// Keys lists every stored collection key.
func (s *BadgerStorage) Keys() ([]string, error) {
	var keys []string
	prefix := []byte(badgerPrefix)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, strings.TrimPrefix(string(it.Item().Key()), badgerPrefix))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing keys: %w", err)
	}
	return keys, nil
}

// Close flushes and closes the database.
func (s *BadgerStorage) Close() error {
	return s.db.Close()
}

// Compile-time check that BadgerStorage implements notes.Storage
var _ notes.Storage = (*BadgerStorage)(nil)
