package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"filippo.io/age"

	"notes-go/internal/notes"
)

// EncryptedStorage wraps another Storage and age-encrypts every value at
// rest. Keys are stored in the clear.
type EncryptedStorage struct {
	inner     notes.Storage
	recipient age.Recipient
	identity  age.Identity
}

// NewEncryptedStorage wraps inner. Both halves of the key pair are needed
// since every collection is read back after it is written.
func NewEncryptedStorage(inner notes.Storage, recipient age.Recipient, identity age.Identity) *EncryptedStorage {
	return &EncryptedStorage{inner: inner, recipient: recipient, identity: identity}
}

// Get reads and decrypts the value under key.
func (s *EncryptedStorage) Get(ctx context.Context, key string) ([]byte, error) {
	sealed, err := s.inner.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	r, err := age.Decrypt(bytes.NewReader(sealed), s.identity)
	if err != nil {
		return nil, fmt.Errorf("decrypting %s: %w", key, err)
	}
	plain, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decrypting %s: %w", key, err)
	}
	return plain, nil
}

// Put encrypts value and writes it under key.
func (s *EncryptedStorage) Put(ctx context.Context, key string, value []byte) error {
	var sealed bytes.Buffer
	w, err := age.Encrypt(&sealed, s.recipient)
	if err != nil {
		return fmt.Errorf("creating encrypted writer: %w", err)
	}
	if _, err := w.Write(value); err != nil {
		return fmt.Errorf("encrypting %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalizing encryption of %s: %w", key, err)
	}
	return s.inner.Put(ctx, key, sealed.Bytes())
}

// Close closes the wrapped storage.
func (s *EncryptedStorage) Close() error {
	return s.inner.Close()
}

// Compile-time check that EncryptedStorage implements notes.Storage
var _ notes.Storage = (*EncryptedStorage)(nil)
