package notes

import "context"

// Storage is a byte-oriented key-value backend. Implementations must return
// ErrKeyNotFound (possibly wrapped) from Get when a key was never written.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Close() error
}
