package graph

import (
	"context"
	"fmt"
	"sync"

	"github.com/okravets/shepard/internal/model"
)

// MemorySource serves opinions from an in-memory map. Used for offline
// fixtures and as the test double for traversal logic.
type MemorySource struct {
	mu       sync.RWMutex
	opinions map[string]*model.Opinion
	failing  map[string]error
	resolves map[string]int
}

// NewMemorySource creates an empty in-memory source
func NewMemorySource() *MemorySource {
	return &MemorySource{
		opinions: make(map[string]*model.Opinion),
		failing:  make(map[string]error),
		resolves: make(map[string]int),
	}
}

// Add registers an opinion
func (s *MemorySource) Add(op *model.Opinion) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opinions[op.ID] = op
}

// Fail makes resolution of an id return the given error
func (s *MemorySource) Fail(opinionID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing[opinionID] = err
}

// Resolve returns the registered opinion or ErrNotFound
func (s *MemorySource) Resolve(ctx context.Context, opinionID string) (*model.Opinion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.resolves[opinionID]++
	err := s.failing[opinionID]
	op := s.opinions[opinionID]
	s.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if op == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, opinionID)
	}
	return op, nil
}

// ResolveCount reports how many times an id was resolved
func (s *MemorySource) ResolveCount(opinionID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolves[opinionID]
}
