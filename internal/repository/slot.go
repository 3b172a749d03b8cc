package repository

import (
	"context"
	"sync"
)

// SlotStore is a durable string-keyed storage slot, the server-side
// counterpart of browser local storage. Values are overwritten wholesale.
type SlotStore interface {
	// Get returns the stored value; found is false when the key was never written
	Get(ctx context.Context, key string) (value string, found bool, err error)

	// Set overwrites the value stored under key
	Set(ctx context.Context, key, value string) error

	// Close releases the underlying resources
	Close() error
}

// MemorySlotStore keeps slots in process memory
type MemorySlotStore struct {
	mu    sync.RWMutex
	slots map[string]string
}

// NewMemorySlotStore creates an empty in-memory slot store
func NewMemorySlotStore() *MemorySlotStore {
	return &MemorySlotStore{slots: make(map[string]string)}
}

// Get implements SlotStore
func (s *MemorySlotStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.slots[key]
	return v, ok, nil
}

// Set implements SlotStore
func (s *MemorySlotStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[key] = value
	return nil
}

// Close implements SlotStore
func (s *MemorySlotStore) Close() error {
	return nil
}

var (
	_ SlotStore = (*MemorySlotStore)(nil)
	_ SlotStore = (*FileSlotStore)(nil)
	_ SlotStore = (*SQLSlotStore)(nil)
)
