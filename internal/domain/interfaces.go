package domain

import (
	"context"
	"time"
)

// QuoteSource provides market data. Implementations must return an error
// rather than a placeholder when no price can be obtained.
type QuoteSource interface {
	GetCurrentPrice(ctx context.Context, symbol string) (float64, error)
	GetQuote(ctx context.Context, symbol string) (*Quote, error)
	GetHistory(ctx context.Context, symbol, period, interval string) ([]Candle, error)
}

// Notifier delivers a text message to a recipient (LINE user id, Telegram chat id...).
type Notifier interface {
	Push(ctx context.Context, recipientID, text string) error
}

// AccessPolicy caps how many plans a user may watch at once.
type AccessPolicy interface {
	TierLimit(userID string) int
}

type Candle struct {
	Time   int64   `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

type Quote struct {
	Symbol    string    `json:"symbol"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	PrevClose float64   `json:"prev_close"`
	Change    float64   `json:"change"`
	ChangePct float64   `json:"change_pct"`
	Volume    float64   `json:"volume"`
	Time      time.Time `json:"time"`
}

// PlanRepository defines storage operations for grid plans.
type PlanRepository interface {
	SavePlan(ctx context.Context, plan *GridPlan) error
	GetPlan(ctx context.Context, id string) (*GridPlan, error)
	ListPlans(ctx context.Context) ([]*GridPlan, error)
	ListPlansByUser(ctx context.Context, userID string) ([]*GridPlan, error)
	CountPlansByUser(ctx context.Context, userID string) (int, error)
	DeletePlan(ctx context.Context, id string) error
}

// HoldingRepository defines storage operations for portfolio holdings.
type HoldingRepository interface {
	SaveHolding(ctx context.Context, h *Holding) error
	ListHoldings(ctx context.Context) ([]*Holding, error)
	DeleteHolding(ctx context.Context, id string) error
}

// NewsItem is one headline from a market news feed.
type NewsItem struct {
	Title     string    `json:"title"`
	Link      string    `json:"link"`
	Source    string    `json:"source,omitempty"`
	Published time.Time `json:"published"`
}

// NewsSource returns the latest headlines matching query, newest first.
type NewsSource interface {
	GetNews(ctx context.Context, query string, limit int) ([]NewsItem, error)
}
