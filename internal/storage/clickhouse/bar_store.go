package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderhaire/index-rebalancing-strategy/internal/domain"
	"github.com/alexanderhaire/index-rebalancing-strategy/internal/storage"
)

// BarStore implements storage.BarStore using ClickHouse.
type BarStore struct {
	conn *Conn
}

// NewBarStore creates a new BarStore.
func NewBarStore(conn *Conn) *BarStore {
	return &BarStore{conn: conn}
}

// Compile-time interface check.
var _ storage.BarStore = (*BarStore)(nil)

// InsertBulk adds multiple bars. Fails entire batch on duplicate
// (ticker, date). MergeTree does not enforce uniqueness, so duplicates
// are checked explicitly before the batch is sent.
func (s *BarStore) InsertBulk(ctx context.Context, bars []*domain.PriceBar) error {
	if len(bars) == 0 {
		return nil
	}

	type key struct {
		ticker string
		date   time.Time
	}
	seen := make(map[key]struct{}, len(bars))
	for _, b := range bars {
		k := key{b.Ticker, b.Date}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	for _, b := range bars {
		exists, err := s.exists(ctx, b.Ticker, b.Date)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO daily_bars (
			ticker, date, open, close, high, low, volume
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, b := range bars {
		err = batch.Append(
			b.Ticker, b.Date, b.Open, b.Close, b.High, b.Low, b.Volume,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByTicker retrieves all bars for a ticker, ordered by date ASC.
func (s *BarStore) GetByTicker(ctx context.Context, ticker string) ([]*domain.PriceBar, error) {
	query := `
		SELECT ticker, date, open, close, high, low, volume
		FROM daily_bars
		WHERE ticker = ?
		ORDER BY date ASC
	`

	rows, err := s.conn.Query(ctx, query, ticker)
	if err != nil {
		return nil, fmt.Errorf("query bars by ticker: %w", err)
	}
	defer rows.Close()

	return scanBars(rows)
}

// Tickers retrieves the distinct tickers present, ordered ASC.
func (s *BarStore) Tickers(ctx context.Context) ([]string, error) {
	query := `SELECT DISTINCT ticker FROM daily_bars ORDER BY ticker ASC`

	rows, err := s.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query distinct tickers: %w", err)
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan ticker row: %w", err)
		}
		tickers = append(tickers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ticker rows: %w", err)
	}

	return tickers, nil
}

// exists checks if a bar with the given key exists.
func (s *BarStore) exists(ctx context.Context, ticker string, date time.Time) (bool, error) {
	query := `SELECT count(*) FROM daily_bars WHERE ticker = ? AND date = ?`

	var count uint64
	err := s.conn.QueryRow(ctx, query, ticker, date).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// scanBars scans multiple rows, normalizing dates to UTC midnight.
func scanBars(rows chRows) ([]*domain.PriceBar, error) {
	var bars []*domain.PriceBar

	for rows.Next() {
		var b domain.PriceBar
		err := rows.Scan(
			&b.Ticker, &b.Date, &b.Open, &b.Close, &b.High, &b.Low, &b.Volume,
		)
		if err != nil {
			return nil, fmt.Errorf("scan bar row: %w", err)
		}
		b.Date = time.Date(b.Date.Year(), b.Date.Month(), b.Date.Day(), 0, 0, 0, 0, time.UTC)
		bars = append(bars, &b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bar rows: %w", err)
	}

	return bars, nil
}
