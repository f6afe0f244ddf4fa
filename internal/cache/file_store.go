package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore keeps each entry as a file named after its key under a root
// directory. Entries never expire. Inserts go through a temp file and a
// rename so a concurrent Get never observes a partially written entry.
type FileStore struct {
	root string
}

func NewFileStore(root string) (*FileStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir %s: %w", root, err)
	}
	return &FileStore{root: root}, nil
}

func (s *FileStore) Get(_ context.Context, key string) ([]byte, bool) {
	data, err := os.ReadFile(filepath.Join(s.root, key))
	if err != nil {
		return nil, false
	}
	return data, true
}

func (s *FileStore) Put(_ context.Context, key string, data []byte) error {
	tmp, err := os.CreateTemp(s.root, key+".tmp-*")
	if err != nil {
		return fmt.Errorf("write cache entry %s: %w", key, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write cache entry %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write cache entry %s: %w", key, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("write cache entry %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.root, key)); err != nil {
		return fmt.Errorf("write cache entry %s: %w", key, err)
	}
	return nil
}
