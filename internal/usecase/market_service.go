package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/vitos/stock_grid/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type ScanStrategy string

const (
	ScanGainers ScanStrategy = "gainers"
	ScanVolume  ScanStrategy = "volume"
	ScanLosers  ScanStrategy = "losers"
)

const (
	defaultNewsLimit = 5
	maxNewsLimit     = 20
)

// DefaultWatchList seeds the scanner when the caller passes no symbols.
var DefaultWatchList = []string{"2330", "2317", "2454", "2603", "0050", "00632R"}

// MarketService wraps the quote source for the dashboard: scans and chart studies.
type MarketService struct {
	quotes      domain.QuoteSource
	news        domain.NewsSource
	logger      *zap.Logger
	maxParallel int
}

func NewMarketService(quotes domain.QuoteSource, logger *zap.Logger) *MarketService {
	return &MarketService{
		quotes:      quotes,
		logger:      logger,
		maxParallel: defaultMaxParallel,
	}
}

func (s *MarketService) SetNewsSource(news domain.NewsSource) {
	s.news = news
}

func (s *MarketService) SetMaxParallel(n int) {
	if n > 0 {
		s.maxParallel = n
	}
}

func (s *MarketService) GetQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	q, err := s.quotes.GetQuote(ctx, symbol)
	if err != nil {
		return nil, &domain.PriceUnavailableError{Symbol: symbol, Err: err}
	}
	return q, nil
}

func (s *MarketService) GetCandles(ctx context.Context, symbol, period, interval string) ([]domain.Candle, error) {
	return s.quotes.GetHistory(ctx, symbol, period, interval)
}

// Scan quotes symbols and ranks them. Symbols whose quote fails are skipped.
func (s *MarketService) Scan(ctx context.Context, symbols []string, strategy ScanStrategy) ([]domain.Quote, error) {
	var less func(a, b domain.Quote) bool
	switch strategy {
	case ScanGainers, "":
		less = func(a, b domain.Quote) bool { return a.ChangePct > b.ChangePct }
	case ScanVolume:
		less = func(a, b domain.Quote) bool { return a.Volume > b.Volume }
	case ScanLosers:
		less = func(a, b domain.Quote) bool { return a.ChangePct < b.ChangePct }
	default:
		return nil, fmt.Errorf("%w: unknown scan strategy %q", domain.ErrInvalidParameter, strategy)
	}
	if len(symbols) == 0 {
		symbols = DefaultWatchList
	}

	var (
		mu     sync.Mutex
		quotes []domain.Quote
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxParallel)
	for _, symbol := range symbols {
		g.Go(func() error {
			q, err := s.quotes.GetQuote(gctx, symbol)
			if err != nil {
				s.logger.Warn("Scan skipped symbol", zap.String("symbol", symbol), zap.Error(err))
				return nil
			}
			mu.Lock()
			quotes = append(quotes, *q)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	sort.SliceStable(quotes, func(i, j int) bool { return less(quotes[i], quotes[j]) })
	return quotes, nil
}

func (s *MarketService) Indicators(ctx context.Context, symbol, period, interval string) (*Indicators, error) {
	candles, err := s.quotes.GetHistory(ctx, symbol, period, interval)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch history for %s: %w", symbol, err)
	}
	if len(candles) == 0 {
		return nil, &domain.PriceUnavailableError{Symbol: symbol}
	}
	return ComputeIndicators(symbol, candles), nil
}

// News returns up to limit headlines for query (at most maxNewsLimit).
func (s *MarketService) News(ctx context.Context, query string, limit int) ([]domain.NewsItem, error) {
	if s.news == nil {
		return nil, fmt.Errorf("%w: no news source configured", domain.ErrNewsUnavailable)
	}
	if limit < 0 {
		return nil, &domain.InvalidParameterError{Field: "limit", Value: float64(limit), Reason: "must not be negative"}
	}
	if limit == 0 {
		limit = defaultNewsLimit
	}
	limit = min(limit, maxNewsLimit)

	items, err := s.news.GetNews(ctx, strings.TrimSpace(query), limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrNewsUnavailable, err)
	}
	return items, nil
}
