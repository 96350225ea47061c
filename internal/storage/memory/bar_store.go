package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/alexanderhaire/index-rebalancing-strategy/internal/domain"
	"github.com/alexanderhaire/index-rebalancing-strategy/internal/storage"
)

// BarStore is an in-memory implementation of storage.BarStore.
type BarStore struct {
	mu   sync.RWMutex
	data map[string][]*domain.PriceBar // keyed by ticker, sorted by date
	seen map[barKey]struct{}
}

type barKey struct {
	ticker string
	date   time.Time
}

// NewBarStore creates a new in-memory bar store.
func NewBarStore() *BarStore {
	return &BarStore{
		data: make(map[string][]*domain.PriceBar),
		seen: make(map[barKey]struct{}),
	}
}

// Compile-time interface check.
var _ storage.BarStore = (*BarStore)(nil)

// InsertBulk adds multiple bars. Fails entire batch on duplicate (ticker, date).
func (s *BarStore) InsertBulk(_ context.Context, bars []*domain.PriceBar) error {
	if len(bars) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// First pass: check for duplicates (existing + intra-batch)
	batchKeys := make(map[barKey]struct{}, len(bars))
	for _, b := range bars {
		if b == nil || b.Ticker == "" || b.Date.IsZero() {
			return storage.ErrInvalidInput
		}
		k := barKey{b.Ticker, b.Date}
		if _, exists := s.seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[k]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[k] = struct{}{}
	}

	// Second pass: insert all, keeping each ticker's series sorted
	for _, b := range bars {
		cp := *b
		s.data[b.Ticker] = append(s.data[b.Ticker], &cp)
		s.seen[barKey{b.Ticker, b.Date}] = struct{}{}
	}
	for _, b := range bars {
		series := s.data[b.Ticker]
		sort.Slice(series, func(i, j int) bool {
			return series[i].Date.Before(series[j].Date)
		})
	}

	return nil
}

// GetByTicker retrieves all bars for a ticker, ordered by date ASC.
func (s *BarStore) GetByTicker(_ context.Context, ticker string) ([]*domain.PriceBar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	series := s.data[ticker]
	result := make([]*domain.PriceBar, len(series))
	for i, b := range series {
		cp := *b
		result[i] = &cp
	}

	return result, nil
}

// Tickers retrieves the distinct tickers present, ordered ASC.
func (s *BarStore) Tickers(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]string, 0, len(s.data))
	for t := range s.data {
		result = append(result, t)
	}
	sort.Strings(result)

	return result, nil
}
