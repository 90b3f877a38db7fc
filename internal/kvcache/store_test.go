package kvcache

import (
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "cache.sqlite3"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// TestStore_RoundTrip verifies put, lookup and replace behavior.
func TestStore_RoundTrip(t *testing.T) {
	store := openTestStore(t)

	if _, found, err := store.Lookup("missing"); err != nil || found {
		t.Fatalf("expected clean miss, got found=%v err=%v", found, err)
	}

	if err := store.Put("key", []byte("first")); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	contents, found, err := store.Lookup("key")
	if err != nil || !found {
		t.Fatalf("expected hit, got found=%v err=%v", found, err)
	}
	if string(contents) != "first" {
		t.Errorf("expected contents %q, got %q", "first", contents)
	}

	// A second put replaces the entry rather than duplicating it.
	if err := store.Put("key", []byte("second")); err != nil {
		t.Fatalf("replace failed: %v", err)
	}
	contents, _, _ = store.Lookup("key")
	if string(contents) != "second" {
		t.Errorf("expected replaced contents %q, got %q", "second", contents)
	}
}

// TestStore_Drop verifies removal.
func TestStore_Drop(t *testing.T) {
	store := openTestStore(t)

	if err := store.Put("key", []byte("value")); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if err := store.Drop("key"); err != nil {
		t.Fatalf("drop failed: %v", err)
	}
	if _, found, _ := store.Lookup("key"); found {
		t.Error("expected key to be gone after drop")
	}
}

// TestStore_Persistence verifies entries survive reopening the file.
func TestStore_Persistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.sqlite3")

	store, err := Open(path)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	if err := store.Put("durable", []byte("payload")); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	store.Close()

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	defer reopened.Close()

	contents, found, err := reopened.Lookup("durable")
	if err != nil || !found {
		t.Fatalf("expected persisted entry, got found=%v err=%v", found, err)
	}
	if string(contents) != "payload" {
		t.Errorf("expected contents %q, got %q", "payload", contents)
	}
}
