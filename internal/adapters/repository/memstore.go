package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/ecoquest/bioblitz/internal/domain/model"
	"github.com/ecoquest/bioblitz/pkg/metrics"
)

// Default in-memory store configuration constants.
const (
	defaultInitialCapacity = 4096
)

// Option applies a configuration option to the MemStore.
type Option func(*MemStore)

// WithInitialCapacity pre-sizes the store for an expected observation
// volume.
func WithInitialCapacity(n int) Option {
	return func(s *MemStore) {
		if n > 0 {
			s.initialCapacity = n
		}
	}
}

// MemStore implements Store with an append-only log plus an id index. The
// log keeps arrival order, which is what the scorer relies on for
// effective-time ties.
type MemStore struct {
	mu              sync.RWMutex
	log             []model.Observation
	index           map[int64]struct{}
	closed          bool
	initialCapacity int
}

// NewMemStore creates a new in-memory observation store.
func NewMemStore(opts ...Option) *MemStore {
	s := &MemStore{
		initialCapacity: defaultInitialCapacity,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = make([]model.Observation, 0, s.initialCapacity)
	s.index = make(map[int64]struct{}, s.initialCapacity)
	return s
}

// Add inserts an observation unless its id is already present.
func (s *MemStore) Add(_ context.Context, obs model.Observation) (bool, error) {
	if obs.ID <= 0 {
		return false, fmt.Errorf("%w: %d", ErrInvalidID, obs.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false, ErrClosed
	}
	if _, exists := s.index[obs.ID]; exists {
		return false, nil
	}
	s.index[obs.ID] = struct{}{}
	s.log = append(s.log, obs)
	metrics.UpdateStoreObservations(len(s.log))
	return true, nil
}

// All returns a copy of the stored observations in arrival order.
func (s *MemStore) All(_ context.Context) ([]model.Observation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}
	out := make([]model.Observation, len(s.log))
	copy(out, s.log)
	return out, nil
}

// Count returns the number of stored observations.
func (s *MemStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.log)
}

// Close marks the store closed; further operations fail with ErrClosed.
func (s *MemStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
