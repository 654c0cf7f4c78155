package identity

import (
	"context"
	"sync"
	"time"
)

// MemoryStateStore is a process-local StateStore for dev and tests.
type MemoryStateStore struct {
	mu     sync.Mutex
	states map[string]memoryState
}

type memoryState struct {
	returnTo  string
	expiresAt time.Time
}

// NewMemoryStateStore creates the store.
func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{states: make(map[string]memoryState)}
}

// Put stores the state with its return path.
func (s *MemoryStateStore) Put(_ context.Context, state, returnTo string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state] = memoryState{returnTo: returnTo, expiresAt: time.Now().Add(ttl)}
	return nil
}

// Take consumes the state. Expired entries read as missing.
func (s *MemoryStateStore) Take(_ context.Context, state string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.states[state]
	if !ok {
		return "", false, nil
	}
	delete(s.states, state)
	if time.Now().After(entry.expiresAt) {
		return "", false, nil
	}
	return entry.returnTo, true, nil
}
