package core

import (
	"maps"
	"sync"
)

var _ StatusStore = (*MemoryStatusStore)(nil)

// MemoryStatusStore keeps workflow statuses for the life of the process.
// Entries are never evicted; the key space is bounded by the number of
// workflows across watched repositories.
type MemoryStatusStore struct {
	mu       sync.RWMutex
	statuses map[string]string
}

// NewMemoryStatusStore creates an empty store, optionally seeded.
func NewMemoryStatusStore(seed map[string]string) *MemoryStatusStore {
	statuses := make(map[string]string, len(seed))
	maps.Copy(statuses, seed)
	return &MemoryStatusStore{statuses: statuses}
}

// Get returns the last recorded status for workflowID.
func (s *MemoryStatusStore) Get(workflowID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	status, ok := s.statuses[workflowID]
	return status, ok
}

// Set records status for workflowID.
func (s *MemoryStatusStore) Set(workflowID, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[workflowID] = status
}

// Snapshot returns a copy of the table.
func (s *MemoryStatusStore) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.statuses)
}
