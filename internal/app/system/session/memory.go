package session

import (
	"context"
	"sync"
)

// MemoryStore is an in-process KeyedStore. It is meant for development and
// tests; entries are lost on restart and are not shared between instances.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entries
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entries)}
}

func (s *MemoryStore) ReadEntries(_ context.Context, sid string) (Entries, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[sid], nil
}

func (s *MemoryStore) WriteEntries(_ context.Context, sid string, e Entries) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[sid] = e
	return nil
}

func (s *MemoryStore) EraseEntries(_ context.Context, sid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, sid)
	return nil
}

// Len returns the number of stored sessions.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
