package domain

import "time"

// Holding is a position the user keeps in the portfolio. Quantity is in shares.
type Holding struct {
	ID        string    `json:"id"`
	Symbol    string    `json:"symbol"`
	Name      string    `json:"name"`
	Cost      float64   `json:"cost"`
	Quantity  int64     `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
}

// HoldingValuation is a holding marked to the latest price. When Available is
// false the quote failed and the price-dependent fields are zero.
type HoldingValuation struct {
	Holding
	Available     bool    `json:"available"`
	CurrentPrice  float64 `json:"current_price"`
	MarketValue   float64 `json:"market_value"`
	UnrealizedPnL float64 `json:"unrealized_pnl"`
	PnLPct        float64 `json:"pnl_pct"`
	Error         string  `json:"error,omitempty"`
}
