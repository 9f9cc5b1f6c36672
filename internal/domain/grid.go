package domain

import (
	"math"
	"time"
)

// Action is the pending order a grid line represents relative to the live price.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionWait Action = "WAIT"
)

// DefaultLotSize is the number of shares in one board lot on TWSE/TPEx.
const DefaultLotSize = 1000

// GridPlanConfig describes one grid plan as entered by the user.
type GridPlanConfig struct {
	Symbol        string  `json:"symbol" yaml:"symbol"`
	UpperBound    float64 `json:"upper_bound" yaml:"upper_bound"`
	LowerBound    float64 `json:"lower_bound" yaml:"lower_bound"`
	GridCount     int     `json:"grid_count" yaml:"grid_count"`
	FeeDiscount   float64 `json:"fee_discount" yaml:"fee_discount"`
	LotSize       int     `json:"lot_size" yaml:"lot_size"`
	TakeProfitPct float64 `json:"take_profit_pct" yaml:"take_profit_pct"`
	StopLossPct   float64 `json:"stop_loss_pct" yaml:"stop_loss_pct"`
}

// Validate checks the range first, then the trading parameters.
func (c GridPlanConfig) Validate() error {
	if !finitePositive(c.UpperBound) || !finitePositive(c.LowerBound) {
		return &InvalidRangeError{Upper: c.UpperBound, Lower: c.LowerBound, GridCount: c.GridCount, Reason: "bounds must be positive and finite"}
	}
	if c.UpperBound <= c.LowerBound {
		return &InvalidRangeError{Upper: c.UpperBound, Lower: c.LowerBound, GridCount: c.GridCount, Reason: "upper bound must be greater than lower bound"}
	}
	if c.GridCount < 2 {
		return &InvalidRangeError{Upper: c.UpperBound, Lower: c.LowerBound, GridCount: c.GridCount, Reason: "grid count must be at least 2"}
	}
	if err := ValidateFeeDiscount(c.FeeDiscount); err != nil {
		return err
	}
	if c.LotSize <= 0 {
		return &InvalidParameterError{Field: "lot_size", Value: float64(c.LotSize), Reason: "must be positive"}
	}
	if !finiteNonNegative(c.TakeProfitPct) {
		return &InvalidParameterError{Field: "take_profit_pct", Value: c.TakeProfitPct, Reason: "must be finite and not negative"}
	}
	if !finiteNonNegative(c.StopLossPct) {
		return &InvalidParameterError{Field: "stop_loss_pct", Value: c.StopLossPct, Reason: "must be finite and not negative"}
	}
	return nil
}

// Comparisons are written positively so NaN fails them.
func finitePositive(v float64) bool { return v > 0 && !math.IsInf(v, 0) }

func finiteNonNegative(v float64) bool { return v >= 0 && !math.IsInf(v, 0) }

// Step is the distance between two adjacent grid lines.
func (c GridPlanConfig) Step() float64 {
	return (c.UpperBound - c.LowerBound) / float64(c.GridCount)
}

// ValidateFeeDiscount accepts discounts in (0, 1].
func ValidateFeeDiscount(d float64) error {
	if !(d > 0 && d <= 1) {
		return &InvalidParameterError{Field: "fee_discount", Value: d, Reason: "must be in (0, 1]"}
	}
	return nil
}

// GridPlan is a stored plan owned by a user.
type GridPlan struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	GridPlanConfig
	CreatedAt time.Time `json:"created_at"`
}

// PriceLevel is one grid line. EstimatedNet is the one-lot cash flow for the
// level's action: outflow for BUY, inflow for SELL, zero for WAIT.
type PriceLevel struct {
	Index        int     `json:"index"`
	Price        float64 `json:"price"`
	Action       Action  `json:"action"`
	EstimatedNet int64   `json:"estimated_net"`
	Fee          int64   `json:"fee"`
	Tax          int64   `json:"tax"`
}

// Settlement is the cash breakdown of executing at one price.
type Settlement struct {
	Gross int64 `json:"gross"`
	Net   int64 `json:"net"`
	Fee   int64 `json:"fee"`
	Tax   int64 `json:"tax"`
}

// SafetyState reports whether the price left the grid by more than the
// configured margin.
type SafetyState struct {
	BreachedUpper bool   `json:"breached_upper"`
	BreachedLower bool   `json:"breached_lower"`
	Message       string `json:"message,omitempty"`
}

// Breached is true when either side tripped.
func (s SafetyState) Breached() bool {
	return s.BreachedUpper || s.BreachedLower
}

// PlanStatus is a presentation label derived from one evaluation.
type PlanStatus string

const (
	StatusWatching   PlanStatus = "WATCHING"
	StatusBuyAlert   PlanStatus = "BUY_ALERT"
	StatusSellAlert  PlanStatus = "SELL_ALERT"
	StatusSafetyExit PlanStatus = "SAFETY_EXIT"
)

// IsAlert reports whether the status asks the user to act.
func (s PlanStatus) IsAlert() bool {
	return s == StatusBuyAlert || s == StatusSellAlert || s == StatusSafetyExit
}

// PlanSnapshot groups levels, nearest lines and safety computed against the
// same price sample. Consumers must not mix fields from different snapshots.
type PlanSnapshot struct {
	PlanID       string         `json:"plan_id,omitempty"`
	Config       GridPlanConfig `json:"config"`
	CurrentPrice float64        `json:"current_price"`
	Step         float64        `json:"step"`
	Levels       []PriceLevel   `json:"levels"`
	NearestSell  *PriceLevel    `json:"nearest_sell,omitempty"`
	NearestBuy   *PriceLevel    `json:"nearest_buy,omitempty"`
	Safety       SafetyState    `json:"safety"`
	Status       PlanStatus     `json:"status"`
	EvaluatedAt  time.Time      `json:"evaluated_at"`
}
