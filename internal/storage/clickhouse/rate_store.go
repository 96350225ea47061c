package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderhaire/index-rebalancing-strategy/internal/domain"
	"github.com/alexanderhaire/index-rebalancing-strategy/internal/storage"
)

// RateStore implements storage.RateStore using ClickHouse.
type RateStore struct {
	conn *Conn
}

// NewRateStore creates a new RateStore.
func NewRateStore(conn *Conn) *RateStore {
	return &RateStore{conn: conn}
}

// Compile-time interface check.
var _ storage.RateStore = (*RateStore)(nil)

// InsertBulk adds multiple points. Fails entire batch on duplicate date.
func (s *RateStore) InsertBulk(ctx context.Context, points []*domain.RatePoint) error {
	if len(points) == 0 {
		return nil
	}

	seen := make(map[time.Time]struct{}, len(points))
	for _, p := range points {
		if _, exists := seen[p.Date]; exists {
			return storage.ErrDuplicateKey
		}
		seen[p.Date] = struct{}{}
	}

	for _, p := range points {
		exists, err := s.exists(ctx, p.Date)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `INSERT INTO overnight_rates (date, rate)`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range points {
		if err := batch.Append(p.Date, p.Rate); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetAll retrieves all points, ordered by date ASC.
func (s *RateStore) GetAll(ctx context.Context) ([]*domain.RatePoint, error) {
	query := `SELECT date, rate FROM overnight_rates ORDER BY date ASC`

	rows, err := s.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query all rates: %w", err)
	}
	defer rows.Close()

	var points []*domain.RatePoint
	for rows.Next() {
		var p domain.RatePoint
		if err := rows.Scan(&p.Date, &p.Rate); err != nil {
			return nil, fmt.Errorf("scan rate row: %w", err)
		}
		p.Date = time.Date(p.Date.Year(), p.Date.Month(), p.Date.Day(), 0, 0, 0, 0, time.UTC)
		points = append(points, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rate rows: %w", err)
	}

	return points, nil
}

// exists checks if a point for the given date exists.
func (s *RateStore) exists(ctx context.Context, date time.Time) (bool, error) {
	query := `SELECT count(*) FROM overnight_rates WHERE date = ?`

	var count uint64
	err := s.conn.QueryRow(ctx, query, date).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
