package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitos/stock_grid/internal/domain"
	"github.com/vitos/stock_grid/internal/usecase"
)

func scanQuotes() *MockQuotes {
	m := NewMockQuotes(nil)
	m.Quotes["2330"] = domain.Quote{Symbol: "2330", ChangePct: 1.5, Volume: 30_000}
	m.Quotes["2317"] = domain.Quote{Symbol: "2317", ChangePct: -2.0, Volume: 50_000}
	m.Quotes["2603"] = domain.Quote{Symbol: "2603", ChangePct: 4.0, Volume: 10_000}
	return m
}

func symbols(qs []domain.Quote) []string {
	out := make([]string, len(qs))
	for i, q := range qs {
		out[i] = q.Symbol
	}
	return out
}

func TestMarketService_Scan(t *testing.T) {
	svc := usecase.NewMarketService(scanQuotes(), nopLogger)
	ctx := context.Background()
	watch := []string{"2330", "2317", "2603", "9999"}

	tests := []struct {
		strategy usecase.ScanStrategy
		want     []string
	}{
		{usecase.ScanGainers, []string{"2603", "2330", "2317"}},
		{usecase.ScanVolume, []string{"2317", "2330", "2603"}},
		{usecase.ScanLosers, []string{"2317", "2330", "2603"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.strategy), func(t *testing.T) {
			got, err := svc.Scan(ctx, watch, tt.strategy)
			require.NoError(t, err)
			assert.Equal(t, tt.want, symbols(got))
		})
	}

	_, err := svc.Scan(ctx, watch, "momentum")
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)
}

func TestMarketService_GetQuote(t *testing.T) {
	svc := usecase.NewMarketService(scanQuotes(), nopLogger)

	q, err := svc.GetQuote(context.Background(), "2330")
	require.NoError(t, err)
	assert.Equal(t, 1.5, q.ChangePct)

	_, err = svc.GetQuote(context.Background(), "9999")
	assert.ErrorIs(t, err, domain.ErrPriceUnavailable)
}

func TestMarketService_Indicators(t *testing.T) {
	quotes := NewMockQuotes(nil)
	quotes.History["2330"] = risingCandles(30)
	quotes.History["empty"] = nil
	svc := usecase.NewMarketService(quotes, nopLogger)
	ctx := context.Background()

	ind, err := svc.Indicators(ctx, "2330", "3mo", "1d")
	require.NoError(t, err)
	assert.Equal(t, 30, ind.Bars)
	assert.Equal(t, 130.0, ind.Close)

	_, err = svc.Indicators(ctx, "empty", "3mo", "1d")
	assert.ErrorIs(t, err, domain.ErrPriceUnavailable)

	_, err = svc.Indicators(ctx, "missing", "3mo", "1d")
	assert.Error(t, err)
}

func TestMarketService_News(t *testing.T) {
	svc := usecase.NewMarketService(scanQuotes(), nopLogger)
	ctx := context.Background()

	_, err := svc.News(ctx, "", 0)
	assert.ErrorIs(t, err, domain.ErrNewsUnavailable)

	news := &MockNews{Items: []domain.NewsItem{{Title: "TSMC rallies", Link: "https://news.example/1"}}}
	svc.SetNewsSource(news)

	items, err := svc.News(ctx, " 2330 ", 0)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, "2330", news.LastQuery)
	assert.Equal(t, 5, news.LastLimit)

	_, err = svc.News(ctx, "", 500)
	require.NoError(t, err)
	assert.Equal(t, 20, news.LastLimit)

	_, err = svc.News(ctx, "", -1)
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)

	news.Err = errors.New("feed down")
	_, err = svc.News(ctx, "", 3)
	assert.ErrorIs(t, err, domain.ErrNewsUnavailable)
}
