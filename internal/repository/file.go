package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sync"
)

// FileSlotStore keeps one file per slot under a directory
type FileSlotStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileSlotStore creates the directory if needed
func NewFileSlotStore(dir string) (*FileSlotStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &FileSlotStore{dir: dir}, nil
}

func (s *FileSlotStore) path(key string) string {
	// keys are escaped so they can never leave the directory
	return filepath.Join(s.dir, url.PathEscape(key)+".json")
}

// Get implements SlotStore
func (s *FileSlotStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read slot %q: %w", key, err)
	}
	return string(data), true, nil
}

// Set implements SlotStore. The value is written to a temp file and renamed into place.
func (s *FileSlotStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, ".slot-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write slot %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write slot %q: %w", key, err)
	}
	if err := os.Rename(tmpName, s.path(key)); err != nil {
		return fmt.Errorf("failed to replace slot %q: %w", key, err)
	}
	return nil
}

// Close implements SlotStore
func (s *FileSlotStore) Close() error {
	return nil
}
