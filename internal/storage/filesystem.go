package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"notes-go/internal/notes"
)

var validKey = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// FileSystemStorage keeps one file per key in a single directory:
//
//	<root>/
//	  notes.json
//	  categories.json
//	  tags.json
//
// Writes are atomic (temp file + rename), so a crash never leaves a
// half-written collection behind.
type FileSystemStorage struct {
	root string
	ext  string
}

// NewFileSystemStorage creates the root directory if needed. ext is the file
// extension without the dot, typically the codec name.
func NewFileSystemStorage(root, ext string) (*FileSystemStorage, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	if ext == "" {
		ext = "json"
	}
	return &FileSystemStorage{root: root, ext: ext}, nil
}

func (s *FileSystemStorage) path(key string) (string, error) {
	if !validKey.MatchString(key) {
		return "", fmt.Errorf("invalid storage key: %q", key)
	}
	return filepath.Join(s.root, key+"."+s.ext), nil
}

// Get reads the file for key.
func (s *FileSystemStorage) Get(_ context.Context, key string) ([]byte, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", notes.ErrKeyNotFound, key)
		}
		return nil, fmt.Errorf("failed to read %s: %w", p, err)
	}
	return data, nil
}

// Put replaces the file for key atomically.
func (s *FileSystemStorage) Put(_ context.Context, key string, value []byte) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	return writeFileAtomic(p, value)
}

// Close is a no-op for filesystem storage.
func (s *FileSystemStorage) Close() error {
	return nil
}

// writeFileAtomic writes data to a temp file in the destination directory and
// renames it into place.
func writeFileAtomic(destPath string, data []byte) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	// Clean up temp file on failure
	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

// Compile-time check that FileSystemStorage implements notes.Storage
var _ notes.Storage = (*FileSystemStorage)(nil)
