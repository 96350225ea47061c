package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/alexanderhaire/index-rebalancing-strategy/internal/domain"
	"github.com/alexanderhaire/index-rebalancing-strategy/internal/storage"
)

// ResultStore is an in-memory implementation of storage.ResultStore.
type ResultStore struct {
	mu   sync.RWMutex
	data map[string]*domain.SimulationResult // keyed by result_id
}

// NewResultStore creates a new in-memory result store.
func NewResultStore() *ResultStore {
	return &ResultStore{
		data: make(map[string]*domain.SimulationResult),
	}
}

// Compile-time interface check.
var _ storage.ResultStore = (*ResultStore)(nil)

// Insert adds a new result. Returns ErrDuplicateKey if result_id exists.
func (s *ResultStore) Insert(_ context.Context, r *domain.SimulationResult) error {
	if r == nil || r.ResultID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.ResultID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[r.ResultID] = copyResult(r)
	return nil
}

// GetByID retrieves a result by its ID. Returns ErrNotFound if not exists.
func (s *ResultStore) GetByID(_ context.Context, resultID string) (*domain.SimulationResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[resultID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	return copyResult(r), nil
}

// GetByStrategy retrieves all results for a strategy, ordered by result_id ASC.
func (s *ResultStore) GetByStrategy(_ context.Context, strategy domain.Strategy) ([]*domain.SimulationResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SimulationResult
	for _, r := range s.data {
		if r.Strategy == strategy {
			result = append(result, copyResult(r))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ResultID < result[j].ResultID
	})

	return result, nil
}

// GetAll retrieves all results, ordered by result_id ASC.
func (s *ResultStore) GetAll(_ context.Context) ([]*domain.SimulationResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.SimulationResult, 0, len(s.data))
	for _, r := range s.data {
		result = append(result, copyResult(r))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ResultID < result[j].ResultID
	})

	return result, nil
}

// copyResult deep-copies a result including its daily stream, so callers
// can never mutate stored records.
func copyResult(r *domain.SimulationResult) *domain.SimulationResult {
	cp := *r
	cp.Daily = make([]domain.DailyPnL, len(r.Daily))
	copy(cp.Daily, r.Daily)
	return &cp
}
