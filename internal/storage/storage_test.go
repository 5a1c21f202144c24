package storage

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"notes-go/internal/notes"
)

// testStorageContract exercises the behavior every backend must share.
func testStorageContract(t *testing.T, s notes.Storage) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		_, err := s.Get(ctx, "never-written")
		if !errors.Is(err, notes.ErrKeyNotFound) {
			t.Errorf("Get() error = %v, want ErrKeyNotFound", err)
		}
	})

	t.Run("put then get", func(t *testing.T) {
		want := []byte(`[{"id":"n1","title":"Groceries"}]`)
		if err := s.Put(ctx, "notes", want); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
		got, err := s.Get(ctx, "notes")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if !bytes.Equal(got, want) {
			t.Errorf("Get() = %q, want %q", got, want)
		}
	})

	t.Run("put replaces", func(t *testing.T) {
		if err := s.Put(ctx, "tags", []byte("first")); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
		if err := s.Put(ctx, "tags", []byte("second")); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
		got, err := s.Get(ctx, "tags")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if string(got) != "second" {
			t.Errorf("Get() = %q, want %q", got, "second")
		}
	})

	t.Run("empty value", func(t *testing.T) {
		if err := s.Put(ctx, "categories", []byte{}); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
		got, err := s.Get(ctx, "categories")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if len(got) != 0 {
			t.Errorf("Get() = %q, want empty", got)
		}
	})
}

func TestMemoryStorage(t *testing.T) {
	s := NewMemoryStorage()
	testStorageContract(t, s)

	t.Run("values are copied", func(t *testing.T) {
		ctx := context.Background()
		value := []byte("abc")
		if err := s.Put(ctx, "copy", value); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
		value[0] = 'x'
		got, _ := s.Get(ctx, "copy")
		if string(got) != "abc" {
			t.Errorf("stored value changed through caller slice: %q", got)
		}
		got[1] = 'y'
		again, _ := s.Get(ctx, "copy")
		if string(again) != "abc" {
			t.Errorf("stored value changed through returned slice: %q", again)
		}
	})

	t.Run("keys", func(t *testing.T) {
		keys := s.Keys()
		want := []string{"categories", "copy", "notes", "tags"}
		if len(keys) != len(want) {
			t.Fatalf("Keys() = %v, want %v", keys, want)
		}
		for i := range want {
			if keys[i] != want[i] {
				t.Errorf("Keys()[%d] = %q, want %q", i, keys[i], want[i])
			}
		}
	})
}

func TestFileSystemStorage(t *testing.T) {
	root := filepath.Join(t.TempDir(), "data")
	s, err := NewFileSystemStorage(root, "json")
	if err != nil {
		t.Fatalf("NewFileSystemStorage() error = %v", err)
	}
	testStorageContract(t, s)

	t.Run("one file per key", func(t *testing.T) {
		for _, name := range []string{"notes.json", "tags.json", "categories.json"} {
			if _, err := os.Stat(filepath.Join(root, name)); err != nil {
				t.Errorf("expected %s: %v", name, err)
			}
		}
	})

	t.Run("no temp files left behind", func(t *testing.T) {
		entries, err := os.ReadDir(root)
		if err != nil {
			t.Fatalf("ReadDir() error = %v", err)
		}
		for _, e := range entries {
			if filepath.Ext(e.Name()) != ".json" {
				t.Errorf("unexpected file %s", e.Name())
			}
		}
	})

	t.Run("rejects path-like keys", func(t *testing.T) {
		ctx := context.Background()
		for _, key := range []string{"../escape", "a/b", ""} {
			if err := s.Put(ctx, key, []byte("x")); err == nil {
				t.Errorf("Put(%q) expected error", key)
			}
			if _, err := s.Get(ctx, key); err == nil || errors.Is(err, notes.ErrKeyNotFound) {
				t.Errorf("Get(%q) error = %v, want invalid key error", key, err)
			}
		}
	})

	t.Run("defaults extension to json", func(t *testing.T) {
		s, err := NewFileSystemStorage(t.TempDir(), "")
		if err != nil {
			t.Fatalf("NewFileSystemStorage() error = %v", err)
		}
		if s.ext != "json" {
			t.Errorf("ext = %q, want %q", s.ext, "json")
		}
	})
}

func TestSQLiteStorage(t *testing.T) {
	t.Run("in memory", func(t *testing.T) {
		s, err := NewSQLiteStorage(":memory:")
		if err != nil {
			t.Fatalf("NewSQLiteStorage() error = %v", err)
		}
		defer s.Close()
		testStorageContract(t, s)
	})

	t.Run("file survives reopen", func(t *testing.T) {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "db", "notes.db")

		s, err := NewSQLiteStorage(path)
		if err != nil {
			t.Fatalf("NewSQLiteStorage() error = %v", err)
		}
		if err := s.Put(ctx, "notes", []byte("persisted")); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
		if err := s.CheckMigrations(); err != nil {
			t.Errorf("CheckMigrations() error = %v", err)
		}
		if err := s.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}

		s, err = NewSQLiteStorage(path)
		if err != nil {
			t.Fatalf("reopen error = %v", err)
		}
		defer s.Close()
		got, err := s.Get(ctx, "notes")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if string(got) != "persisted" {
			t.Errorf("Get() = %q, want %q", got, "persisted")
		}
	})
}

func TestBadgerStorage(t *testing.T) {
	t.Run("in memory", func(t *testing.T) {
		s, err := NewBadgerStorage("")
		if err != nil {
			t.Fatalf("NewBadgerStorage() error = %v", err)
		}
		defer s.Close()
		testStorageContract(t, s)

		keys, err := s.Keys()
		if err != nil {
			t.Fatalf("Keys() error = %v", err)
		}
		if len(keys) != 3 {
			t.Errorf("Keys() = %v, want 3 keys", keys)
		}
	})

	t.Run("directory survives reopen", func(t *testing.T) {
		ctx := context.Background()
		dir := t.TempDir()

		s, err := NewBadgerStorage(dir)
		if err != nil {
			t.Fatalf("NewBadgerStorage() error = %v", err)
		}
		if err := s.Put(ctx, "tags", []byte("persisted")); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
		if err := s.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}

		s, err = NewBadgerStorage(dir)
		if err != nil {
			t.Fatalf("reopen error = %v", err)
		}
		defer s.Close()
		got, err := s.Get(ctx, "tags")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if string(got) != "persisted" {
			t.Errorf("Get() = %q, want %q", got, "persisted")
		}
	})
}

func TestPostgresStorage(t *testing.T) {
	dsn := os.Getenv("NOTES_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("NOTES_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	s, err := NewPostgresStorage(ctx, dsn, "note_entries_test")
	if err != nil {
		t.Fatalf("NewPostgresStorage() error = %v", err)
	}
	defer s.Close()
	if _, err := s.pool.Exec(ctx, "DELETE FROM note_entries_test"); err != nil {
		t.Fatalf("clearing table: %v", err)
	}
	testStorageContract(t, s)
}

func TestNewPostgresStorage_InvalidTable(t *testing.T) {
	_, err := NewPostgresStorage(context.Background(), "postgres://localhost/notes", "entries; DROP TABLE x")
	if err == nil {
		t.Fatal("NewPostgresStorage() expected error for invalid table name")
	}
}

func TestS3Storage(t *testing.T) {
	bucket := os.Getenv("NOTES_TEST_S3_BUCKET")
	if bucket == "" {
		t.Skip("NOTES_TEST_S3_BUCKET not set")
	}
	s, err := NewS3Storage(context.Background(), S3Options{
		Bucket:   bucket,
		Prefix:   "notes-go-test/" + filepath.Base(t.TempDir()),
		Region:   os.Getenv("NOTES_TEST_S3_REGION"),
		Endpoint: os.Getenv("NOTES_TEST_S3_ENDPOINT"),
	})
	if err != nil {
		t.Fatalf("NewS3Storage() error = %v", err)
	}
	testStorageContract(t, s)
}

func TestS3Storage_ObjectKey(t *testing.T) {
	tests := []struct {
		prefix string
		key    string
		want   string
	}{
		{prefix: "", key: "notes", want: "notes"},
		{prefix: "laptop", key: "notes", want: "laptop/notes"},
		{prefix: "a/b/", key: "tags", want: "a/b/tags"},
	}
	for _, tt := range tests {
		t.Run(tt.prefix+"|"+tt.key, func(t *testing.T) {
			s := &S3Storage{prefix: tt.prefix}
			if got := s.objectKey(tt.key); got != tt.want {
				t.Errorf("objectKey(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestNewS3Storage_RequiresBucket(t *testing.T) {
	if _, err := NewS3Storage(context.Background(), S3Options{}); err == nil {
		t.Fatal("NewS3Storage() expected error without bucket")
	}
}
