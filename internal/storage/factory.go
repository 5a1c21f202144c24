package storage

import (
	"context"
	"fmt"

	"notes-go/internal/config"
	"notes-go/internal/notes"
)

// PassphraseFunc supplies the private key passphrase when encryption is on.
type PassphraseFunc func() (string, error)

// NewStorageFromConfig creates a Storage implementation based on the storage
// config type, wrapped in EncryptedStorage when encryption is enabled.
func NewStorageFromConfig(ctx context.Context, cfg config.StorageConfig, enc config.EncryptionConfig, passphrase PassphraseFunc) (notes.Storage, error) {
	codec, err := notes.CodecByName(cfg.Format)
	if err != nil {
		return nil, err
	}

	s, err := newBackend(ctx, cfg, fileExt(codec.Name(), enc.Enabled()))
	if err != nil {
		return nil, err
	}

	switch enc.Type {
	case "none", "":
		return s, nil
	case "age":
		wrapped, err := wrapEncrypted(s, enc, passphrase)
		if err != nil {
			s.Close()
			return nil, err
		}
		return wrapped, nil
	default:
		s.Close()
		return nil, fmt.Errorf("unknown encryption type: %q", enc.Type)
	}
}

func newBackend(ctx context.Context, cfg config.StorageConfig, ext string) (notes.Storage, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryStorage(), nil
	case "filesystem":
		if cfg.Dir == "" {
			return nil, fmt.Errorf("filesystem storage requires dir to be set")
		}
		return NewFileSystemStorage(cfg.Dir, ext)
	case "sqlite":
		if cfg.Path == "" {
			return nil, fmt.Errorf("sqlite storage requires path to be set")
		}
		return NewSQLiteStorage(cfg.Path)
	case "badger":
		if cfg.Dir == "" {
			return nil, fmt.Errorf("badger storage requires dir to be set")
		}
		return NewBadgerStorage(cfg.Dir)
	case "postgres":
		if cfg.DSN == "" {
			return nil, fmt.Errorf("postgres storage requires dsn to be set")
		}
		return NewPostgresStorage(ctx, cfg.DSN, cfg.Table)
	case "s3":
		return NewS3Storage(ctx, S3Options{
			Bucket:          cfg.S3Bucket,
			Prefix:          cfg.S3Prefix,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		})
	default:
		return nil, fmt.Errorf("unknown storage type: %q", cfg.Type)
	}
}

func wrapEncrypted(s notes.Storage, enc config.EncryptionConfig, passphrase PassphraseFunc) (notes.Storage, error) {
	kr := NewKeyring(enc.PublicKeyPath, enc.PrivateKeyPath)
	if !kr.IsConfigured() {
		return nil, fmt.Errorf("encryption enabled but no key pair found (run 'notes key init')")
	}
	if passphrase == nil {
		return nil, fmt.Errorf("encryption enabled but no passphrase source")
	}
	recipient, err := kr.Recipient()
	if err != nil {
		return nil, err
	}
	pass, err := passphrase()
	if err != nil {
		return nil, fmt.Errorf("reading passphrase: %w", err)
	}
	identity, err := kr.Unlock(pass)
	if err != nil {
		return nil, fmt.Errorf("unlocking private key: %w", err)
	}
	return NewEncryptedStorage(s, recipient, identity), nil
}

func fileExt(format string, encrypted bool) string {
	if encrypted {
		return format + ".age"
	}
	return format
}
