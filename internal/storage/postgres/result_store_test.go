package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderhaire/index-rebalancing-strategy/internal/domain"
	"github.com/alexanderhaire/index-rebalancing-strategy/internal/idhash"
	"github.com/alexanderhaire/index-rebalancing-strategy/internal/storage"
)

func closedResult(ticker string, strategy domain.Strategy) *domain.SimulationResult {
	eventID := idhash.ComputeEventID(ticker, utcDate(2024, time.March, 1), utcDate(2024, time.March, 15), "S&P 500")
	return &domain.SimulationResult{
		ResultID: idhash.ComputeResultID(eventID, strategy),
		EventID:  eventID,
		Ticker:   ticker,
		Strategy: strategy,
		Status:   domain.StatusClosed,
		Position: domain.Position{
			Ticker:     ticker,
			Side:       domain.SideShort,
			EntryDate:  utcDate(2024, time.March, 15),
			EntryPrice: 98.5,
			Shares:     2500,
			ExitDate:   utcDate(2024, time.March, 18),
			ExitPrice:  97.2,
		},
		EntryCost:     25,
		ExitCost:      25,
		FinancingCost: 41.3,
		NightsHeld:    3,
		GrossPnL:      3250,
		NetPnL:        3158.7,
		Daily: []domain.DailyPnL{
			{Date: utcDate(2024, time.March, 15), Amount: 1000},
			{Date: utcDate(2024, time.March, 16), Amount: 1100},
			{Date: utcDate(2024, time.March, 17), Amount: 500},
			{Date: utcDate(2024, time.March, 18), Amount: 558.7},
		},
	}
}

func TestResultStore_InsertAndGetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewResultStore(pool)
	ctx := context.Background()

	result := closedResult("ACME", domain.StrategyReversion)

	err := store.Insert(ctx, result)
	require.NoError(t, err)

	retrieved, err := store.GetByID(ctx, result.ResultID)
	require.NoError(t, err)

	assert.Equal(t, result.ResultID, retrieved.ResultID)
	assert.Equal(t, result.EventID, retrieved.EventID)
	assert.Equal(t, result.Strategy, retrieved.Strategy)
	assert.Equal(t, result.Status, retrieved.Status)
	assert.Equal(t, result.Position.Side, retrieved.Position.Side)
	assert.True(t, retrieved.Position.EntryDate.Equal(result.Position.EntryDate))
	assert.True(t, retrieved.Position.ExitDate.Equal(result.Position.ExitDate))
	assert.Equal(t, result.Position.EntryPrice, retrieved.Position.EntryPrice)
	assert.Equal(t, result.Position.Shares, retrieved.Position.Shares)
	assert.Equal(t, result.FinancingCost, retrieved.FinancingCost)
	assert.Equal(t, result.NightsHeld, retrieved.NightsHeld)
	assert.Equal(t, result.NetPnL, retrieved.NetPnL)

	require.Len(t, retrieved.Daily, len(result.Daily))
	for i := range result.Daily {
		assert.True(t, retrieved.Daily[i].Date.Equal(result.Daily[i].Date))
		assert.Equal(t, result.Daily[i].Amount, retrieved.Daily[i].Amount)
	}
}

func TestResultStore_SkippedRoundTrip(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewResultStore(pool)
	ctx := context.Background()

	eventID := idhash.ComputeEventID("THIN", utcDate(2024, time.April, 1), utcDate(2024, time.April, 10), "S&P 500")
	skipped := &domain.SimulationResult{
		ResultID:   idhash.ComputeResultID(eventID, domain.StrategyMomentum),
		EventID:    eventID,
		Ticker:     "THIN",
		Strategy:   domain.StrategyMomentum,
		Status:     domain.StatusSkipped,
		SkipReason: domain.SkipZeroSize,
	}

	require.NoError(t, store.Insert(ctx, skipped))

	retrieved, err := store.GetByID(ctx, skipped.ResultID)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusSkipped, retrieved.Status)
	assert.Equal(t, domain.SkipZeroSize, retrieved.SkipReason)
	assert.True(t, retrieved.Position.EntryDate.IsZero())
	assert.True(t, retrieved.Position.ExitDate.IsZero())
	assert.Empty(t, retrieved.Daily)
}

func TestResultStore_InsertDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewResultStore(pool)
	ctx := context.Background()

	result := closedResult("ACME", domain.StrategyMomentum)

	require.NoError(t, store.Insert(ctx, result))
	err := store.Insert(ctx, result)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestResultStore_GetByStrategy(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewResultStore(pool)
	ctx := context.Background()

	mom1 := closedResult("AAA", domain.StrategyMomentum)
	mom2 := closedResult("BBB", domain.StrategyMomentum)
	rev := closedResult("AAA", domain.StrategyReversion)

	for _, r := range []*domain.SimulationResult{mom1, mom2, rev} {
		require.NoError(t, store.Insert(ctx, r))
	}

	moms, err := store.GetByStrategy(ctx, domain.StrategyMomentum)
	require.NoError(t, err)
	require.Len(t, moms, 2)
	assert.Less(t, moms[0].ResultID, moms[1].ResultID)
	for _, r := range moms {
		assert.Equal(t, domain.StrategyMomentum, r.Strategy)
	}

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
