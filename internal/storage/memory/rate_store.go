package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/alexanderhaire/index-rebalancing-strategy/internal/domain"
	"github.com/alexanderhaire/index-rebalancing-strategy/internal/storage"
)

// RateStore is an in-memory implementation of storage.RateStore.
type RateStore struct {
	mu   sync.RWMutex
	data map[time.Time]*domain.RatePoint // keyed by date
}

// NewRateStore creates a new in-memory rate store.
func NewRateStore() *RateStore {
	return &RateStore{
		data: make(map[time.Time]*domain.RatePoint),
	}
}

// Compile-time interface check.
var _ storage.RateStore = (*RateStore)(nil)

// InsertBulk adds multiple points. Fails entire batch on duplicate date.
func (s *RateStore) InsertBulk(_ context.Context, points []*domain.RatePoint) error {
	if len(points) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[time.Time]struct{}, len(points))
	for _, p := range points {
		if p == nil || p.Date.IsZero() {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[p.Date]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[p.Date]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[p.Date] = struct{}{}
	}

	for _, p := range points {
		cp := *p
		s.data[p.Date] = &cp
	}

	return nil
}

// GetAll retrieves all points, ordered by date ASC.
func (s *RateStore) GetAll(_ context.Context) ([]*domain.RatePoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.RatePoint, 0, len(s.data))
	for _, p := range s.data {
		cp := *p
		result = append(result, &cp)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})

	return result, nil
}
