// Package storage defines the persistence interfaces shared by the
// in-memory, PostgreSQL, and ClickHouse backends. Events and simulation
// results live in PostgreSQL; daily bar and rate series live in
// ClickHouse; the memory backend serves tests and single-shot runs.
package storage

import (
	"context"

	"github.com/alexanderhaire/index-rebalancing-strategy/internal/domain"
)

// EventStore provides access to index-addition event storage.
type EventStore interface {
	// Insert adds a new event. Returns ErrDuplicateKey if event_id exists.
	Insert(ctx context.Context, e *domain.Event) error

	// GetByID retrieves an event by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, eventID string) (*domain.Event, error)

	// GetAll retrieves all events, ordered by announcement date ASC,
	// then event_id ASC for a stable order on ties.
	GetAll(ctx context.Context) ([]*domain.Event, error)
}

// BarStore provides access to daily OHLCV series storage.
type BarStore interface {
	// InsertBulk adds multiple bars. Fails entire batch on duplicate
	// (ticker, date).
	InsertBulk(ctx context.Context, bars []*domain.PriceBar) error

	// GetByTicker retrieves all bars for a ticker, ordered by date ASC.
	GetByTicker(ctx context.Context, ticker string) ([]*domain.PriceBar, error)

	// Tickers retrieves the distinct tickers present, ordered ASC.
	Tickers(ctx context.Context) ([]string, error)
}

// RateStore provides access to the overnight financing rate series.
type RateStore interface {
	// InsertBulk adds multiple points. Fails entire batch on duplicate date.
	InsertBulk(ctx context.Context, points []*domain.RatePoint) error

	// GetAll retrieves all points, ordered by date ASC.
	GetAll(ctx context.Context) ([]*domain.RatePoint, error)
}

// ResultStore provides access to simulation result storage.
type ResultStore interface {
	// Insert adds a new result. Returns ErrDuplicateKey if result_id exists.
	Insert(ctx context.Context, r *domain.SimulationResult) error

	// GetByID retrieves a result by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, resultID string) (*domain.SimulationResult, error)

	// GetByStrategy retrieves all results for a strategy, ordered by
	// result_id ASC.
	GetByStrategy(ctx context.Context, strategy domain.Strategy) ([]*domain.SimulationResult, error)

	// GetAll retrieves all results, ordered by result_id ASC.
	GetAll(ctx context.Context) ([]*domain.SimulationResult, error)
}
