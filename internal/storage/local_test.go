package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()
	store, err := NewLocalStore(t.TempDir(), "http://localhost:8080")
	if err != nil {
		t.Fatalf("NewLocalStore() error = %v", err)
	}
	return store
}

func TestLocalStore_PutAndURL(t *testing.T) {
	store := newTestStore(t)

	err := store.Put(context.Background(), "abc.jpeg", "image/jpeg", []byte("fake image"))
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(store.Dir(), "abc.jpeg"))
	if err != nil {
		t.Fatalf("reading stored object: %v", err)
	}
	if string(data) != "fake image" {
		t.Errorf("stored bytes = %q", data)
	}

	url, err := store.PublicURL("abc.jpeg")
	if err != nil {
		t.Fatalf("PublicURL() error = %v", err)
	}
	if url != "http://localhost:8080/media/abc.jpeg" {
		t.Errorf("PublicURL() = %q", url)
	}
}

func TestLocalStore_PutIsNonOverwriting(t *testing.T) {
	store := newTestStore(t)

	if err := store.Put(context.Background(), "dup.png", "image/png", []byte("first")); err != nil {
		t.Fatalf("first Put() error = %v", err)
	}
	if err := store.Put(context.Background(), "dup.png", "image/png", []byte("second")); err == nil {
		t.Fatal("second Put() with the same key should fail")
	}

	// The original object must be untouched.
	data, _ := os.ReadFile(filepath.Join(store.Dir(), "dup.png"))
	if string(data) != "first" {
		t.Errorf("object was overwritten: %q", data)
	}
}

func TestLocalStore_RejectsPathyKeys(t *testing.T) {
	store := newTestStore(t)

	for _, key := range []string{"", "../escape.png", "a/b.png", `a\b.png`, ".", ".."} {
		if err := store.Put(context.Background(), key, "image/png", []byte("x")); err == nil {
			t.Errorf("Put(%q) should be rejected", key)
		}
	}
}

func TestLocalStore_PublicURLWithoutBaseURL(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "")
	if err != nil {
		t.Fatalf("NewLocalStore() error = %v", err)
	}
	if _, err := store.PublicURL("x.png"); err == nil {
		t.Error("PublicURL() without a base URL should fail")
	}
}
