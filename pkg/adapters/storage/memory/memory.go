package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aescanero/smrepo/pkg/domain/submodel"
)

// InMemorySubmodelStore implements ports.SubmodelStore using an in-memory map
type InMemorySubmodelStore struct {
	submodels map[string][]byte
	mu        sync.RWMutex
}

// NewInMemorySubmodelStore creates a new in-memory submodel store
func NewInMemorySubmodelStore() *InMemorySubmodelStore {
	return &InMemorySubmodelStore{
		submodels: make(map[string][]byte),
	}
}

// Get retrieves a submodel by id
func (s *InMemorySubmodelStore) Get(ctx context.Context, id string) (*submodel.Submodel, error) {
	s.mu.RLock()
	data, ok := s.submodels[id]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", submodel.ErrNotFound, id)
	}

	return submodel.Parse(data)
}

// GetAll returns all submodels ordered by id
func (s *InMemorySubmodelStore) GetAll(ctx context.Context) ([]*submodel.Submodel, error) {
	s.mu.RLock()
	ids := make([]string, 0, len(s.submodels))
	for id := range s.submodels {
		ids = append(ids, id)
	}
	docs := make(map[string][]byte, len(s.submodels))
	for id, data := range s.submodels {
		docs[id] = data
	}
	s.mu.RUnlock()

	sort.Strings(ids)

	result := make([]*submodel.Submodel, 0, len(ids))
	for _, id := range ids {
		sm, err := submodel.Parse(docs[id])
		if err != nil {
			return nil, fmt.Errorf("invalid stored submodel %s: %w", id, err)
		}
		result = append(result, sm)
	}

	return result, nil
}

// Create stores a new submodel
func (s *InMemorySubmodelStore) Create(ctx context.Context, sm *submodel.Submodel) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.submodels[sm.ID()]; exists {
		return fmt.Errorf("%w: %s", submodel.ErrConflict, sm.ID())
	}

	s.submodels[sm.ID()] = sm.Bytes()
	return nil
}

// Update replaces an existing submodel
func (s *InMemorySubmodelStore) Update(ctx context.Context, id string, sm *submodel.Submodel) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.submodels[id]; !exists {
		return fmt.Errorf("%w: %s", submodel.ErrNotFound, id)
	}

	s.submodels[id] = sm.Bytes()
	return nil
}

// Delete removes a submodel
func (s *InMemorySubmodelStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.submodels[id]; !exists {
		return fmt.Errorf("%w: %s", submodel.ErrNotFound, id)
	}

	delete(s.submodels, id)
	return nil
}

// Count returns the number of stored submodels
func (s *InMemorySubmodelStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.submodels), nil
}

// Ping always succeeds for in-memory storage
func (s *InMemorySubmodelStore) Ping(ctx context.Context) error {
	return nil
}

// Close clears the store
func (s *InMemorySubmodelStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.submodels = make(map[string][]byte)
	return nil
}
