package storage

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
)

func newTestKeyring(t *testing.T) *Keyring {
	t.Helper()
	dir := t.TempDir()
	return NewKeyring(filepath.Join(dir, "keys", "notes.pub"), filepath.Join(dir, "keys", "notes.key"))
}

func TestKeyring_IsConfigured_BeforeSetup(t *testing.T) {
	t.Parallel()
	k := newTestKeyring(t)
	if k.IsConfigured() {
		t.Error("IsConfigured() = true before Setup, want false")
	}
}

func TestKeyring_Setup(t *testing.T) {
	t.Parallel()

	t.Run("configures key pair", func(t *testing.T) {
		k := newTestKeyring(t)
		if err := k.Setup("test-passphrase"); err != nil {
			t.Fatalf("Setup() error = %v", err)
		}
		if !k.IsConfigured() {
			t.Error("IsConfigured() = false after Setup, want true")
		}
	})

	t.Run("refuses to overwrite", func(t *testing.T) {
		k := newTestKeyring(t)
		if err := k.Setup("test-passphrase"); err != nil {
			t.Fatalf("Setup() error = %v", err)
		}
		if err := k.Setup("other"); err == nil {
			t.Fatal("second Setup() expected error")
		}
	})

	t.Run("rejects empty passphrase", func(t *testing.T) {
		k := newTestKeyring(t)
		if err := k.Setup(""); err == nil {
			t.Fatal("Setup(\"\") expected error")
		}
	})
}

func TestKeyring_Unlock(t *testing.T) {
	t.Parallel()
	k := newTestKeyring(t)
	if err := k.Setup("correct horse"); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	t.Run("correct passphrase", func(t *testing.T) {
		if _, err := k.Unlock("correct horse"); err != nil {
			t.Errorf("Unlock() error = %v", err)
		}
	})

	t.Run("wrong passphrase", func(t *testing.T) {
		if _, err := k.Unlock("battery staple"); err == nil {
			t.Error("Unlock() with wrong passphrase expected error")
		}
	})
}

func newTestEncryptedStorage(t *testing.T, inner *MemoryStorage) *EncryptedStorage {
	t.Helper()
	k := newTestKeyring(t)
	if err := k.Setup("test-passphrase"); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	recipient, err := k.Recipient()
	if err != nil {
		t.Fatalf("Recipient() error = %v", err)
	}
	identity, err := k.Unlock("test-passphrase")
	if err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}
	return NewEncryptedStorage(inner, recipient, identity)
}

func TestEncryptedStorage(t *testing.T) {
	inner := NewMemoryStorage()
	s := newTestEncryptedStorage(t, inner)
	testStorageContract(t, s)

	t.Run("ciphertext at rest", func(t *testing.T) {
		ctx := context.Background()
		plain := []byte(`[{"id":"n1","title":"secret plans"}]`)
		if err := s.Put(ctx, "notes", plain); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
		sealed, err := inner.Get(ctx, "notes")
		if err != nil {
			t.Fatalf("inner Get() error = %v", err)
		}
		if bytes.Contains(sealed, []byte("secret plans")) {
			t.Error("inner storage holds plaintext")
		}
	})

	t.Run("foreign key cannot decrypt", func(t *testing.T) {
		ctx := context.Background()
		other := newTestEncryptedStorage(t, inner)
		if _, err := other.Get(ctx, "notes"); err == nil {
			t.Error("Get() with a different identity expected error")
		}
	})
}
