package session

import (
	"context"
	"sync"
)

// Store owns session contexts between turns. Update serializes turns of the
// same session: fn receives a snapshot, and the snapshot it returns is
// committed only when fn returns a nil error. Turns of different sessions
// proceed in parallel.
type Store interface {
	Update(ctx context.Context, sessionID string, fn func(Context) (Context, error)) error
	Ping(ctx context.Context) error
	Close()
}

type memEntry struct {
	mu   sync.Mutex
	conv Context
}

// MemoryStore keeps session contexts in process memory. Suitable for a
// single replica; use PGStore when contexts must survive restarts.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*memEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*memEntry)}
}

func (s *MemoryStore) entry(sessionID string) *memEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.sessions[sessionID]; ok {
		return e
	}
	e := &memEntry{conv: NewContext(sessionID)}
	s.sessions[sessionID] = e
	return e
}

func (s *MemoryStore) Update(ctx context.Context, sessionID string, fn func(Context) (Context, error)) error {
	e := s.entry(sessionID)
	e.mu.Lock()
	defer e.mu.Unlock()

	updated, err := fn(e.conv.Clone())
	if err != nil {
		return err
	}
	e.conv = updated
	return nil
}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

func (s *MemoryStore) Close() {}
