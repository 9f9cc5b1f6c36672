package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitos/stock_grid/internal/domain"
	"github.com/vitos/stock_grid/internal/usecase"
)

func TestPortfolioService_AddHolding(t *testing.T) {
	svc := usecase.NewPortfolioService(&MemHoldingRepo{}, NewMockQuotes(nil), nopLogger)
	ctx := context.Background()

	h, err := svc.AddHolding(ctx, domain.Holding{Symbol: " 2330 ", Cost: 580, Quantity: 1000})
	require.NoError(t, err)
	assert.NotEmpty(t, h.ID)
	assert.Equal(t, "2330", h.Symbol)
	assert.Equal(t, "2330", h.Name)

	tests := []struct {
		name string
		h    domain.Holding
	}{
		{"no symbol", domain.Holding{Cost: 1, Quantity: 1}},
		{"zero cost", domain.Holding{Symbol: "2330", Quantity: 1}},
		{"negative qty", domain.Holding{Symbol: "2330", Cost: 1, Quantity: -5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddHolding(ctx, tt.h)
			assert.ErrorIs(t, err, domain.ErrInvalidParameter)
		})
	}

	list, err := svc.ListHoldings(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.RemoveHolding(ctx, h.ID))
	assert.ErrorIs(t, svc.RemoveHolding(ctx, h.ID), domain.ErrNotFound)
}

func TestPortfolioService_Valuate(t *testing.T) {
	quotes := NewMockQuotes(map[string]float64{"2330": 600})
	svc := usecase.NewPortfolioService(&MemHoldingRepo{}, quotes, nopLogger)
	ctx := context.Background()

	_, err := svc.AddHolding(ctx, domain.Holding{Symbol: "2330", Cost: 500, Quantity: 2000})
	require.NoError(t, err)
	_, err = svc.AddHolding(ctx, domain.Holding{Symbol: "2330", Cost: 650, Quantity: 1000})
	require.NoError(t, err)
	_, err = svc.AddHolding(ctx, domain.Holding{Symbol: "1101", Name: "Taiwan Cement", Cost: 40, Quantity: 1000})
	require.NoError(t, err)

	vals, err := svc.Valuate(ctx)
	require.NoError(t, err)
	require.Len(t, vals, 3)

	assert.True(t, vals[0].Available)
	assert.Equal(t, 600.0, vals[0].CurrentPrice)
	assert.InDelta(t, 1_200_000, vals[0].MarketValue, 1e-6)
	assert.InDelta(t, 200_000, vals[0].UnrealizedPnL, 1e-6)
	assert.InDelta(t, 20, vals[0].PnLPct, 1e-9)

	assert.True(t, vals[1].Available)
	assert.InDelta(t, -50_000, vals[1].UnrealizedPnL, 1e-6)

	// Failed quote is flagged, not valued at cost.
	assert.False(t, vals[2].Available)
	assert.NotEmpty(t, vals[2].Error)
	assert.Zero(t, vals[2].MarketValue)
	assert.Zero(t, vals[2].UnrealizedPnL)

	assert.Equal(t, 1, quotes.CallCount("2330"))
}
