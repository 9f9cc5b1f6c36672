package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vitos/stock_grid/internal/domain"
	"go.uber.org/zap"
)

// PortfolioService keeps the user's holdings and marks them to market.
type PortfolioService struct {
	holdings domain.HoldingRepository
	quotes   domain.QuoteSource
	logger   *zap.Logger
}

func NewPortfolioService(holdings domain.HoldingRepository, quotes domain.QuoteSource, logger *zap.Logger) *PortfolioService {
	return &PortfolioService{
		holdings: holdings,
		quotes:   quotes,
		logger:   logger,
	}
}

func (s *PortfolioService) AddHolding(ctx context.Context, h domain.Holding) (*domain.Holding, error) {
	h.Symbol = strings.TrimSpace(h.Symbol)
	if h.Symbol == "" {
		return nil, fmt.Errorf("%w: symbol is required", domain.ErrInvalidParameter)
	}
	if !(h.Cost > 0) {
		return nil, &domain.InvalidParameterError{Field: "cost", Value: h.Cost, Reason: "must be positive"}
	}
	if h.Quantity <= 0 {
		return nil, &domain.InvalidParameterError{Field: "quantity", Value: float64(h.Quantity), Reason: "must be positive"}
	}
	if h.Name == "" {
		h.Name = h.Symbol
	}
	h.ID = uuid.NewString()
	h.CreatedAt = time.Now()

	if err := s.holdings.SaveHolding(ctx, &h); err != nil {
		return nil, fmt.Errorf("failed to save holding: %w", err)
	}
	s.logger.Info("Holding added", zap.String("id", h.ID), zap.String("symbol", h.Symbol), zap.Int64("qty", h.Quantity))
	return &h, nil
}

func (s *PortfolioService) RemoveHolding(ctx context.Context, id string) error {
	return s.holdings.DeleteHolding(ctx, id)
}

func (s *PortfolioService) ListHoldings(ctx context.Context) ([]*domain.Holding, error) {
	return s.holdings.ListHoldings(ctx)
}

// Valuate marks each holding to the latest price. A holding whose quote fails
// is returned with Available=false; it is never valued at cost.
func (s *PortfolioService) Valuate(ctx context.Context) ([]domain.HoldingValuation, error) {
	holdings, err := s.holdings.ListHoldings(ctx)
	if err != nil {
		return nil, err
	}

	prices := make(map[string]float64)
	failures := make(map[string]error)
	out := make([]domain.HoldingValuation, 0, len(holdings))

	for _, h := range holdings {
		v := domain.HoldingValuation{Holding: *h}

		price, seen := prices[h.Symbol]
		ferr := failures[h.Symbol]
		if !seen && ferr == nil {
			price, ferr = s.quotes.GetCurrentPrice(ctx, h.Symbol)
			if ferr == nil && !(price > 0) {
				ferr = &domain.PriceUnavailableError{Symbol: h.Symbol}
			}
			if ferr != nil {
				failures[h.Symbol] = ferr
				s.logger.Warn("Quote unavailable for holding", zap.String("symbol", h.Symbol), zap.Error(ferr))
			} else {
				prices[h.Symbol] = price
			}
		}

		if ferr != nil {
			v.Error = ferr.Error()
		} else {
			qty := float64(h.Quantity)
			v.Available = true
			v.CurrentPrice = price
			v.MarketValue = price * qty
			v.UnrealizedPnL = (price - h.Cost) * qty
			v.PnLPct = (price - h.Cost) / h.Cost * 100
		}
		out = append(out, v)
	}
	return out, nil
}
