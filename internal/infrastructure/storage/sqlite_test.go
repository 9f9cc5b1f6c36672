package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitos/stock_grid/internal/domain"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testPlan(id, user string, created time.Time) *domain.GridPlan {
	return &domain.GridPlan{
		ID:     id,
		UserID: user,
		GridPlanConfig: domain.GridPlanConfig{
			Symbol:        "00632R",
			UpperBound:    100,
			LowerBound:    80,
			GridCount:     10,
			FeeDiscount:   0.6,
			LotSize:       1000,
			TakeProfitPct: 2,
			StopLossPct:   3,
		},
		CreatedAt: created,
	}
}

func TestSQLiteStore_Plans(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	t0 := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, store.SavePlan(ctx, testPlan("p1", "u1", t0)))
	require.NoError(t, store.SavePlan(ctx, testPlan("p2", "u1", t0.Add(time.Minute))))
	require.NoError(t, store.SavePlan(ctx, testPlan("p3", "u2", t0.Add(2*time.Minute))))

	got, err := store.GetPlan(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, testPlan("p1", "u1", t0).GridPlanConfig, got.GridPlanConfig)
	assert.True(t, t0.Equal(got.CreatedAt))

	all, err := store.ListPlans(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "p1", all[0].ID)
	assert.Equal(t, "p3", all[2].ID)

	mine, err := store.ListPlansByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	n, err := store.CountPlansByUser(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// Upsert keeps the id and owner.
	updated := testPlan("p1", "u1", t0)
	updated.UpperBound = 110
	require.NoError(t, store.SavePlan(ctx, updated))
	got, err = store.GetPlan(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 110.0, got.UpperBound)

	require.NoError(t, store.DeletePlan(ctx, "p1"))
	assert.ErrorIs(t, store.DeletePlan(ctx, "p1"), domain.ErrNotFound)
	_, err = store.GetPlan(ctx, "p1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSQLiteStore_Holdings(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	t0 := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, store.SaveHolding(ctx, &domain.Holding{ID: "h1", Symbol: "2330", Name: "TSMC", Cost: 580.5, Quantity: 2000, CreatedAt: t0}))
	require.NoError(t, store.SaveHolding(ctx, &domain.Holding{ID: "h2", Symbol: "0050", Name: "0050", Cost: 150, Quantity: 500, CreatedAt: t0.Add(time.Second)}))

	list, err := store.ListHoldings(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "TSMC", list[0].Name)
	assert.Equal(t, 580.5, list[0].Cost)
	assert.Equal(t, int64(2000), list[0].Quantity)

	require.NoError(t, store.DeleteHolding(ctx, "h1"))
	assert.ErrorIs(t, store.DeleteHolding(ctx, "h1"), domain.ErrNotFound)

	list, err = store.ListHoldings(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
