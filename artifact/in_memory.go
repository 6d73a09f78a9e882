package artifact

import (
	"context"
	"sync"
)

// InMemoryRecorder keeps artifact references in process memory. Suitable
// for tests and single-instance deployments.
type InMemoryRecorder struct {
	mu      sync.RWMutex
	records map[string][]Record
}

// NewInMemoryRecorder creates an empty recorder.
func NewInMemoryRecorder() *InMemoryRecorder {
	return &InMemoryRecorder{records: make(map[string][]Record)}
}

// Save appends a record to the session's artifact list.
func (r *InMemoryRecorder) Save(_ context.Context, rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[rec.SessionID] = append(r.records[rec.SessionID], rec)
	return nil
}

// List returns a copy of the session's artifact references.
func (r *InMemoryRecorder) List(_ context.Context, sessionID string) ([]Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	recs := r.records[sessionID]
	out := make([]Record, len(recs))
	copy(out, recs)
	return out, nil
}
