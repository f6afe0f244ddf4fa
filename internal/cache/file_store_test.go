package cache

import (
	"bytes"
	"context"
	"testing"
)

func TestFileStoreRoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}

	ctx := context.Background()
	payload := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10}

	if err := store.Put(ctx, "abc123", payload); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, ok := store.Get(ctx, "abc123")
	if !ok {
		t.Fatal("expected entry to be present after put")
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("round-trip mismatch: put %v, got %v", payload, got)
	}
}

func TestFileStoreMissingKey(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}

	if _, ok := store.Get(context.Background(), "never-written"); ok {
		t.Fatal("expected absent for missing key")
	}
}

func TestFileStoreOverwrite(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}

	ctx := context.Background()
	if err := store.Put(ctx, "k", []byte("first")); err != nil {
		t.Fatalf("first put: %v", err)
	}
	if err := store.Put(ctx, "k", []byte("second")); err != nil {
		t.Fatalf("second put: %v", err)
	}

	got, ok := store.Get(ctx, "k")
	if !ok || string(got) != "second" {
		t.Fatalf("expected last write to win, got %q present=%v", got, ok)
	}
}

func TestFileStoreConcurrentReadersSeeWholeEntries(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}

	ctx := context.Background()
	first := bytes.Repeat([]byte{0xAA}, 64*1024)
	second := bytes.Repeat([]byte{0xBB}, 64*1024)

	if err := store.Put(ctx, "k", first); err != nil {
		t.Fatalf("seed put: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			payload := first
			if i%2 == 1 {
				payload = second
			}
			if err := store.Put(ctx, "k", payload); err != nil {
				t.Errorf("put: %v", err)
				return
			}
		}
	}()

	for i := 0; i < 200; i++ {
		got, ok := store.Get(ctx, "k")
		if !ok {
			t.Fatal("expected entry to stay present during rewrites")
		}
		if !bytes.Equal(got, first) && !bytes.Equal(got, second) {
			t.Fatalf("read a torn entry of %d bytes", len(got))
		}
	}
	<-done
}

func TestNewFileStoreCreatesRoot(t *testing.T) {
	root := t.TempDir() + "/nested/cache"
	if _, err := NewFileStore(root); err != nil {
		t.Fatalf("expected root to be created, got %v", err)
	}
}
