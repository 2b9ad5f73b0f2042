package trace

import (
	"context"
	"errors"
	"slices"
	"sync"
)

// ErrNotFound is returned by Store.Load for an unknown trace ID.
var ErrNotFound = errors.New("trace not found")

// Store archives traces.
type Store interface {
	Save(ctx context.Context, t *Trace) error
	Load(ctx context.Context, id string) (*Trace, error)
	// Recent returns up to limit traces, newest first.
	Recent(ctx context.Context, limit int) ([]*Trace, error)
	Close(ctx context.Context) error
}

// MemoryStore keeps traces in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	traces map[string]*Trace
	order  []string
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{traces: make(map[string]*Trace)}
}

// Save stores a copy of t, replacing any trace with the same ID.
func (s *MemoryStore) Save(_ context.Context, t *Trace) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.traces[t.ID]; !ok {
		s.order = append(s.order, t.ID)
	}
	cp := *t
	cp.Steps = slices.Clone(t.Steps)
	cp.Warnings = slices.Clone(t.Warnings)
	s.traces[t.ID] = &cp
	return nil
}

// Load returns the trace with the given ID.
func (s *MemoryStore) Load(_ context.Context, id string) (*Trace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.traces[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

// Recent returns up to limit traces in reverse save order.
func (s *MemoryStore) Recent(_ context.Context, limit int) ([]*Trace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Trace
	for i := len(s.order) - 1; i >= 0 && len(out) < limit; i-- {
		cp := *s.traces[s.order[i]]
		out = append(out, &cp)
	}
	return out, nil
}

// Close does nothing.
func (s *MemoryStore) Close(context.Context) error { return nil }

var _ Store = (*MemoryStore)(nil)
