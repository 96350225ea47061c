package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/alexanderhaire/index-rebalancing-strategy/internal/domain"
	"github.com/alexanderhaire/index-rebalancing-strategy/internal/storage"
)

// EventStore implements storage.EventStore using PostgreSQL.
type EventStore struct {
	pool *Pool
}

// NewEventStore creates a new EventStore.
func NewEventStore(pool *Pool) *EventStore {
	return &EventStore{pool: pool}
}

// Compile-time interface check.
var _ storage.EventStore = (*EventStore)(nil)

// Insert adds a new event. Returns ErrDuplicateKey if event_id exists.
func (s *EventStore) Insert(ctx context.Context, e *domain.Event) error {
	query := `
		INSERT INTO index_events (
			event_id, ticker, announcement_date, effective_date, index_name, score
		) VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.pool.Exec(ctx, query,
		e.EventID,
		e.Ticker,
		e.AnnouncementDate,
		e.EffectiveDate,
		e.IndexName,
		e.Score,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// GetByID retrieves an event by its ID. Returns ErrNotFound if not exists.
func (s *EventStore) GetByID(ctx context.Context, eventID string) (*domain.Event, error) {
	query := `
		SELECT event_id, ticker, announcement_date, effective_date, index_name, score, created_at
		FROM index_events
		WHERE event_id = $1
	`

	row := s.pool.QueryRow(ctx, query, eventID)
	e, err := scanEvent(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get event by id: %w", err)
	}
	return e, nil
}

// GetAll retrieves all events, ordered by announcement date then event_id.
func (s *EventStore) GetAll(ctx context.Context) ([]*domain.Event, error) {
	query := `
		SELECT event_id, ticker, announcement_date, effective_date, index_name, score, created_at
		FROM index_events
		ORDER BY announcement_date ASC, event_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all events: %w", err)
	}
	defer rows.Close()

	var events []*domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate event rows: %w", err)
	}

	return events, nil
}

// scanEvent scans a single row into an Event. Date columns come back in
// the session time zone; normalize to UTC midnight.
func scanEvent(row pgx.Row) (*domain.Event, error) {
	var e domain.Event
	err := row.Scan(
		&e.EventID,
		&e.Ticker,
		&e.AnnouncementDate,
		&e.EffectiveDate,
		&e.IndexName,
		&e.Score,
		&e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.AnnouncementDate = midnightUTC(e.AnnouncementDate)
	e.EffectiveDate = midnightUTC(e.EffectiveDate)
	return &e, nil
}
