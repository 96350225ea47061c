package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/alexanderhaire/index-rebalancing-strategy/internal/domain"
	"github.com/alexanderhaire/index-rebalancing-strategy/internal/storage"
)

// ResultStore implements storage.ResultStore using PostgreSQL. The
// daily PnL stream is stored as JSONB alongside the headline columns.
type ResultStore struct {
	pool *Pool
}

// NewResultStore creates a new ResultStore.
func NewResultStore(pool *Pool) *ResultStore {
	return &ResultStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ResultStore = (*ResultStore)(nil)

// dailyJSON is the JSONB encoding of one daily PnL element.
type dailyJSON struct {
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
}

const resultColumns = `
	result_id, event_id, ticker, strategy, status, skip_reason,
	side, entry_date, entry_price, shares, exit_date, exit_price,
	entry_cost, exit_cost, financing_cost, nights_held,
	gross_pnl, net_pnl, daily
`

// Insert adds a new result. Returns ErrDuplicateKey if result_id exists.
func (s *ResultStore) Insert(ctx context.Context, r *domain.SimulationResult) error {
	daily := make([]dailyJSON, len(r.Daily))
	for i, d := range r.Daily {
		daily[i] = dailyJSON{Date: domain.FormatDate(d.Date), Amount: d.Amount}
	}
	dailyBytes, err := json.Marshal(daily)
	if err != nil {
		return fmt.Errorf("marshal daily stream: %w", err)
	}

	query := `
		INSERT INTO simulation_results (` + resultColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`

	_, err = s.pool.Exec(ctx, query,
		r.ResultID,
		r.EventID,
		r.Ticker,
		string(r.Strategy),
		string(r.Status),
		string(r.SkipReason),
		int(r.Position.Side),
		nullableDate(r.Position.EntryDate),
		r.Position.EntryPrice,
		r.Position.Shares,
		nullableDate(r.Position.ExitDate),
		r.Position.ExitPrice,
		r.EntryCost,
		r.ExitCost,
		r.FinancingCost,
		r.NightsHeld,
		r.GrossPnL,
		r.NetPnL,
		dailyBytes,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

// GetByID retrieves a result by its ID. Returns ErrNotFound if not exists.
func (s *ResultStore) GetByID(ctx context.Context, resultID string) (*domain.SimulationResult, error) {
	query := `SELECT ` + resultColumns + ` FROM simulation_results WHERE result_id = $1`

	row := s.pool.QueryRow(ctx, query, resultID)
	r, err := scanResult(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get result by id: %w", err)
	}
	return r, nil
}

// GetByStrategy retrieves all results for a strategy, ordered by result_id.
func (s *ResultStore) GetByStrategy(ctx context.Context, strategy domain.Strategy) ([]*domain.SimulationResult, error) {
	query := `
		SELECT ` + resultColumns + `
		FROM simulation_results
		WHERE strategy = $1
		ORDER BY result_id ASC
	`

	rows, err := s.pool.Query(ctx, query, string(strategy))
	if err != nil {
		return nil, fmt.Errorf("get results by strategy: %w", err)
	}
	defer rows.Close()

	return scanResults(rows)
}

// GetAll retrieves all results, ordered by result_id.
func (s *ResultStore) GetAll(ctx context.Context) ([]*domain.SimulationResult, error) {
	query := `SELECT ` + resultColumns + ` FROM simulation_results ORDER BY result_id ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all results: %w", err)
	}
	defer rows.Close()

	return scanResults(rows)
}

func scanResult(row pgx.Row) (*domain.SimulationResult, error) {
	var (
		r          domain.SimulationResult
		strategy   string
		status     string
		skipReason string
		side       int
		entryDate  *time.Time
		exitDate   *time.Time
		dailyBytes []byte
	)

	err := row.Scan(
		&r.ResultID,
		&r.EventID,
		&r.Ticker,
		&strategy,
		&status,
		&skipReason,
		&side,
		&entryDate,
		&r.Position.EntryPrice,
		&r.Position.Shares,
		&exitDate,
		&r.Position.ExitPrice,
		&r.EntryCost,
		&r.ExitCost,
		&r.FinancingCost,
		&r.NightsHeld,
		&r.GrossPnL,
		&r.NetPnL,
		&dailyBytes,
	)
	if err != nil {
		return nil, err
	}

	r.Strategy = domain.Strategy(strategy)
	r.Status = domain.Status(status)
	r.SkipReason = domain.SkipReason(skipReason)
	r.Position.Ticker = r.Ticker
	r.Position.Side = domain.Side(side)
	if entryDate != nil {
		r.Position.EntryDate = midnightUTC(*entryDate)
	}
	if exitDate != nil {
		r.Position.ExitDate = midnightUTC(*exitDate)
	}

	var daily []dailyJSON
	if err := json.Unmarshal(dailyBytes, &daily); err != nil {
		return nil, fmt.Errorf("unmarshal daily stream: %w", err)
	}
	for _, d := range daily {
		date, err := domain.ParseDate(d.Date)
		if err != nil {
			return nil, fmt.Errorf("daily stream date: %w", err)
		}
		r.Daily = append(r.Daily, domain.DailyPnL{Date: date, Amount: d.Amount})
	}

	return &r, nil
}

func scanResults(rows pgx.Rows) ([]*domain.SimulationResult, error) {
	var results []*domain.SimulationResult
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scan result row: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate result rows: %w", err)
	}
	return results, nil
}

// nullableDate maps the zero time to NULL so skipped results carry no
// phantom dates.
func nullableDate(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func midnightUTC(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
