// Package store provides the conversation store implementations: an
// in-memory store for tests and single-instance use, and a SQLite store
// for durable history.
package store

import (
	"context"
	"sync"

	"github.com/hupe1980/supportmesh/core"
)

// InMemoryStore keeps conversation history in process memory.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]core.Message
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string][]core.Message)}
}

// EnsureSession creates the session slot if it does not exist.
func (s *InMemoryStore) EnsureSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		s.sessions[sessionID] = nil
	}
	return nil
}

// AppendMessage appends to the session log, creating the session if needed.
func (s *InMemoryStore) AppendMessage(_ context.Context, sessionID string, msg core.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = append(s.sessions[sessionID], msg)
	return nil
}

// History returns up to limit most recent messages in log order.
func (s *InMemoryStore) History(_ context.Context, sessionID string, limit int) ([]core.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	log := s.sessions[sessionID]
	if limit > 0 && len(log) > limit {
		log = log[len(log)-limit:]
	}
	out := make([]core.Message, len(log))
	copy(out, log)
	return out, nil
}

// DeleteSession removes the session and its log.
func (s *InMemoryStore) DeleteSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return core.ErrSessionNotFound
	}
	delete(s.sessions, sessionID)
	return nil
}
