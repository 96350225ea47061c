package clickhouse

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderhaire/index-rebalancing-strategy/internal/domain"
	"github.com/alexanderhaire/index-rebalancing-strategy/internal/storage"
)

func TestRateStore_InsertBulkAndGetAll(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewRateStore(conn)
	ctx := context.Background()

	points := []*domain.RatePoint{
		{Date: utcDate(2024, time.March, 5), Rate: 0.0533},
		{Date: utcDate(2024, time.March, 4), Rate: 0.0531},
	}
	require.NoError(t, store.InsertBulk(ctx, points))

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)

	assert.True(t, all[0].Date.Equal(utcDate(2024, time.March, 4)))
	assert.Equal(t, 0.0531, all[0].Rate)
	assert.True(t, all[1].Date.Equal(utcDate(2024, time.March, 5)))
	assert.Equal(t, 0.0533, all[1].Rate)
}

func TestRateStore_InsertBulkDuplicateDate(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewRateStore(conn)
	ctx := context.Background()

	require.NoError(t, store.InsertBulk(ctx, []*domain.RatePoint{
		{Date: utcDate(2024, time.March, 4), Rate: 0.0531},
	}))

	err := store.InsertBulk(ctx, []*domain.RatePoint{
		{Date: utcDate(2024, time.March, 4), Rate: 0.06},
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	intra := []*domain.RatePoint{
		{Date: utcDate(2024, time.March, 6), Rate: 0.05},
		{Date: utcDate(2024, time.March, 6), Rate: 0.05},
	}
	err = store.InsertBulk(ctx, intra)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}
