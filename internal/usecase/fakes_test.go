package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/vitos/stock_grid/internal/domain"
	"go.uber.org/zap"
)

var nopLogger = zap.NewNop()

// MemPlanRepo
type MemPlanRepo struct {
	mu    sync.Mutex
	plans map[string]*domain.GridPlan
}

func NewMemPlanRepo() *MemPlanRepo {
	return &MemPlanRepo{plans: make(map[string]*domain.GridPlan)}
}

func (m *MemPlanRepo) SavePlan(ctx context.Context, plan *domain.GridPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *plan
	m.plans[plan.ID] = &cp
	return nil
}

func (m *MemPlanRepo) GetPlan(ctx context.Context, id string) (*domain.GridPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.plans[id]
	if !ok {
		return nil, fmt.Errorf("plan %s: %w", id, domain.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (m *MemPlanRepo) ListPlans(ctx context.Context) ([]*domain.GridPlan, error) {
	return m.list(func(*domain.GridPlan) bool { return true }), nil
}

func (m *MemPlanRepo) ListPlansByUser(ctx context.Context, userID string) ([]*domain.GridPlan, error) {
	return m.list(func(p *domain.GridPlan) bool { return p.UserID == userID }), nil
}

func (m *MemPlanRepo) CountPlansByUser(ctx context.Context, userID string) (int, error) {
	plans, _ := m.ListPlansByUser(ctx, userID)
	return len(plans), nil
}

func (m *MemPlanRepo) DeletePlan(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.plans, id)
	return nil
}

func (m *MemPlanRepo) list(keep func(*domain.GridPlan) bool) []*domain.GridPlan {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.GridPlan
	for _, p := range m.plans {
		if keep(p) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// MemHoldingRepo
type MemHoldingRepo struct {
	mu       sync.Mutex
	holdings []*domain.Holding
}

func (m *MemHoldingRepo) SaveHolding(ctx context.Context, h *domain.Holding) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *h
	m.holdings = append(m.holdings, &cp)
	return nil
}

func (m *MemHoldingRepo) ListHoldings(ctx context.Context) ([]*domain.Holding, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Holding, len(m.holdings))
	copy(out, m.holdings)
	return out, nil
}

func (m *MemHoldingRepo) DeleteHolding(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, h := range m.holdings {
		if h.ID == id {
			m.holdings = append(m.holdings[:i], m.holdings[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

// MockQuotes serves canned prices. Symbols missing from Prices fail.
type MockQuotes struct {
	mu      sync.Mutex
	Prices  map[string]float64
	Quotes  map[string]domain.Quote
	History map[string][]domain.Candle
	Calls   map[string]int
}

func NewMockQuotes(prices map[string]float64) *MockQuotes {
	return &MockQuotes{
		Prices:  prices,
		Quotes:  make(map[string]domain.Quote),
		History: make(map[string][]domain.Candle),
		Calls:   make(map[string]int),
	}
}

func (m *MockQuotes) SetPrice(symbol string, price float64) {
	m.mu.Lock()
	m.Prices[symbol] = price
	m.mu.Unlock()
}

func (m *MockQuotes) CallCount(symbol string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls[symbol]
}

func (m *MockQuotes) GetCurrentPrice(ctx context.Context, symbol string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls[symbol]++
	p, ok := m.Prices[symbol]
	if !ok {
		return 0, errors.New("quote feed down")
	}
	return p, nil
}

func (m *MockQuotes) GetQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.Quotes[symbol]
	if !ok {
		return nil, errors.New("quote feed down")
	}
	return &q, nil
}

func (m *MockQuotes) GetHistory(ctx context.Context, symbol, period, interval string) ([]domain.Candle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.History[symbol]
	if !ok {
		return nil, errors.New("history unavailable")
	}
	return h, nil
}

type pushed struct {
	To   string
	Text string
}

// MockNotifier records pushes.
type MockNotifier struct {
	mu   sync.Mutex
	Sent []pushed
	Err  error
}

func (m *MockNotifier) Push(ctx context.Context, recipientID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, pushed{To: recipientID, Text: text})
	return nil
}

func (m *MockNotifier) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}

// MockNews records the limit it was asked for and returns Items or Err.
type MockNews struct {
	Items     []domain.NewsItem
	Err       error
	LastQuery string
	LastLimit int
}

func (m *MockNews) GetNews(ctx context.Context, query string, limit int) ([]domain.NewsItem, error) {
	m.LastQuery, m.LastLimit = query, limit
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Items, nil
}
