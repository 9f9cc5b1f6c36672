package usecase

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vitos/stock_grid/internal/domain"
)

const (
	// BaseFeeRate is the standard TWSE brokerage commission before discount.
	BaseFeeRate = 0.001425
	// TaxRateStandard is the securities transaction tax on a regular sell.
	TaxRateStandard = 0.003
	// TaxRateDayTrade is the reduced tax for same-day round trips.
	TaxRateDayTrade = 0.0015

	// DefaultRangePct is the half-width used when a plan is created without bounds.
	DefaultRangePct = 5.0

	priceDecimals = 6
)

// FeeSchedule holds the market cost rates applied to every settlement.
type FeeSchedule struct {
	BaseFeeRate float64 `yaml:"base_fee_rate"`
	TaxRate     float64 `yaml:"tax_rate"`
}

func StandardFeeSchedule() FeeSchedule {
	return FeeSchedule{BaseFeeRate: BaseFeeRate, TaxRate: TaxRateStandard}
}

func DayTradeFeeSchedule() FeeSchedule {
	return FeeSchedule{BaseFeeRate: BaseFeeRate, TaxRate: TaxRateDayTrade}
}

// FeeScheduleFor maps a regime name from config to its schedule.
func FeeScheduleFor(regime string) (FeeSchedule, error) {
	switch regime {
	case "", "standard":
		return StandardFeeSchedule(), nil
	case "day_trade":
		return DayTradeFeeSchedule(), nil
	}
	return FeeSchedule{}, fmt.Errorf("unknown tax regime %q", regime)
}

func (f FeeSchedule) Validate() error {
	if f.BaseFeeRate < 0 || math.IsNaN(f.BaseFeeRate) {
		return &domain.InvalidParameterError{Field: "base_fee_rate", Value: f.BaseFeeRate, Reason: "must not be negative"}
	}
	if f.TaxRate < 0 || math.IsNaN(f.TaxRate) {
		return &domain.InvalidParameterError{Field: "tax_rate", Value: f.TaxRate, Reason: "must not be negative"}
	}
	return nil
}

// GridPlanEngine computes grid levels, settlement estimates and safety state.
// It holds no mutable state and is safe for concurrent use.
type GridPlanEngine struct {
	fees    FeeSchedule
	feeRate decimal.Decimal
	taxRate decimal.Decimal
	timeNow func() time.Time
}

func NewGridPlanEngine(fees FeeSchedule) (*GridPlanEngine, error) {
	if err := fees.Validate(); err != nil {
		return nil, err
	}
	return &GridPlanEngine{
		fees:    fees,
		feeRate: decimal.NewFromFloat(fees.BaseFeeRate),
		taxRate: decimal.NewFromFloat(fees.TaxRate),
		timeNow: time.Now,
	}, nil
}

func (e *GridPlanEngine) Fees() FeeSchedule {
	return e.fees
}

// Classify tags a grid line relative to the live price.
func Classify(levelPrice, currentPrice float64) domain.Action {
	if levelPrice > currentPrice {
		return domain.ActionSell
	}
	if levelPrice < currentPrice {
		return domain.ActionBuy
	}
	return domain.ActionWait
}

// BuildLevels returns GridCount+1 levels ordered from the upper bound down.
// Each non-WAIT level carries the one-lot settlement for its action.
func (e *GridPlanEngine) BuildLevels(cfg domain.GridPlanConfig, currentPrice float64) ([]domain.PriceLevel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := checkPrice(cfg.Symbol, currentPrice); err != nil {
		return nil, err
	}

	step := cfg.Step()
	levels := make([]domain.PriceLevel, 0, cfg.GridCount+1)
	for i := cfg.GridCount; i >= 0; i-- {
		price := roundPrice(cfg.LowerBound + float64(i)*step)
		level := domain.PriceLevel{
			Index:  i,
			Price:  price,
			Action: Classify(price, currentPrice),
		}
		if level.Action != domain.ActionWait {
			s, err := e.EstimateSettlement(price, 1, cfg.LotSize, level.Action, cfg.FeeDiscount)
			if err != nil {
				return nil, err
			}
			level.EstimatedNet = s.Net
			level.Fee = s.Fee
			level.Tax = s.Tax
		}
		levels = append(levels, level)
	}
	return levels, nil
}

// NearestPendingLevels returns the closest SELL line above and the closest BUY
// line below currentPrice. Either may be nil.
func NearestPendingLevels(levels []domain.PriceLevel, currentPrice float64) (sell, buy *domain.PriceLevel) {
	for i := range levels {
		l := levels[i]
		switch {
		case l.Action == domain.ActionSell && l.Price > currentPrice:
			if sell == nil || l.Price < sell.Price {
				sell = &l
			}
		case l.Action == domain.ActionBuy && l.Price < currentPrice:
			if buy == nil || l.Price > buy.Price {
				buy = &l
			}
		}
	}
	return sell, buy
}

// EstimateSettlement prices an execution of lots board lots at price.
// Fee and tax are floored to whole currency units; BUY never pays tax.
func (e *GridPlanEngine) EstimateSettlement(price float64, lots, lotSize int, action domain.Action, feeDiscount float64) (domain.Settlement, error) {
	if !(price > 0) || math.IsInf(price, 0) {
		return domain.Settlement{}, &domain.InvalidParameterError{Field: "price", Value: price, Reason: "must be positive"}
	}
	if lots <= 0 {
		return domain.Settlement{}, &domain.InvalidParameterError{Field: "quantity_lots", Value: float64(lots), Reason: "must be positive"}
	}
	if lotSize <= 0 {
		return domain.Settlement{}, &domain.InvalidParameterError{Field: "lot_size", Value: float64(lotSize), Reason: "must be positive"}
	}
	if err := domain.ValidateFeeDiscount(feeDiscount); err != nil {
		return domain.Settlement{}, err
	}

	gross := decimal.NewFromFloat(price).Mul(decimal.NewFromInt(int64(lots) * int64(lotSize)))
	fee := gross.Mul(e.feeRate).Mul(decimal.NewFromFloat(feeDiscount)).Floor()

	s := domain.Settlement{
		Gross: gross.Floor().IntPart(),
		Fee:   fee.IntPart(),
	}
	switch action {
	case domain.ActionBuy:
		s.Net = gross.Add(fee).Floor().IntPart()
	case domain.ActionSell:
		tax := gross.Mul(e.taxRate).Floor()
		s.Tax = tax.IntPart()
		s.Net = gross.Sub(fee).Sub(tax).Floor().IntPart()
	default:
		return domain.Settlement{}, fmt.Errorf("%w: action %q has no settlement", domain.ErrInvalidParameter, action)
	}
	return s, nil
}

// EvaluateSafety checks the take-profit and stop-loss lines beyond the grid.
func (e *GridPlanEngine) EvaluateSafety(cfg domain.GridPlanConfig, currentPrice float64) (domain.SafetyState, error) {
	if err := cfg.Validate(); err != nil {
		return domain.SafetyState{}, err
	}
	if err := checkPrice(cfg.Symbol, currentPrice); err != nil {
		return domain.SafetyState{}, err
	}

	ceiling := cfg.UpperBound * (1 + cfg.TakeProfitPct/100)
	floor := cfg.LowerBound * (1 - cfg.StopLossPct/100)

	var st domain.SafetyState
	switch {
	case currentPrice > ceiling:
		st.BreachedUpper = true
		st.Message = fmt.Sprintf("%s %.2f broke above take-profit line %.2f: exit the whole position to lock in profit", cfg.Symbol, currentPrice, ceiling)
	case currentPrice < floor:
		st.BreachedLower = true
		st.Message = fmt.Sprintf("%s %.2f broke below stop-loss line %.2f: exit the whole position to cut the loss", cfg.Symbol, currentPrice, floor)
	}
	return st, nil
}

// Evaluate runs every calculation against the same price sample.
func (e *GridPlanEngine) Evaluate(cfg domain.GridPlanConfig, currentPrice float64) (*domain.PlanSnapshot, error) {
	levels, err := e.BuildLevels(cfg, currentPrice)
	if err != nil {
		return nil, err
	}
	safety, err := e.EvaluateSafety(cfg, currentPrice)
	if err != nil {
		return nil, err
	}
	sell, buy := NearestPendingLevels(levels, currentPrice)

	status := domain.StatusWatching
	if safety.Breached() {
		status = domain.StatusSafetyExit
	}

	return &domain.PlanSnapshot{
		Config:       cfg,
		CurrentPrice: currentPrice,
		Step:         cfg.Step(),
		Levels:       levels,
		NearestSell:  sell,
		NearestBuy:   buy,
		Safety:       safety,
		Status:       status,
		EvaluatedAt:  e.timeNow(),
	}, nil
}

// CrossedLevel finds the grid line passed when the price moved from prevPrice
// to the snapshot price. A fall onto a line fills a buy, a rise fills a sell.
func CrossedLevel(snap *domain.PlanSnapshot, prevPrice float64) (*domain.PriceLevel, domain.Action) {
	curr := snap.CurrentPrice
	if prevPrice <= 0 || prevPrice == curr {
		return nil, ""
	}
	// Levels are sorted descending: a rise reports the highest line passed,
	// a fall the lowest.
	if curr > prevPrice {
		for i := range snap.Levels {
			l := snap.Levels[i]
			if prevPrice < l.Price && curr >= l.Price {
				return &l, domain.ActionSell
			}
		}
		return nil, ""
	}
	for i := len(snap.Levels) - 1; i >= 0; i-- {
		l := snap.Levels[i]
		if prevPrice > l.Price && curr <= l.Price {
			return &l, domain.ActionBuy
		}
	}
	return nil, ""
}

// StatusAfterMove labels a snapshot given the previous price sample.
func StatusAfterMove(snap *domain.PlanSnapshot, prevPrice float64) domain.PlanStatus {
	if snap.Safety.Breached() {
		return domain.StatusSafetyExit
	}
	_, action := CrossedLevel(snap, prevPrice)
	switch action {
	case domain.ActionBuy:
		return domain.StatusBuyAlert
	case domain.ActionSell:
		return domain.StatusSellAlert
	}
	return domain.StatusWatching
}

// DefaultBounds derives a ±5% range around price, rounded to cents.
func DefaultBounds(price float64) (upper, lower float64) {
	upper = math.Round(price*(1+DefaultRangePct/100)*100) / 100
	lower = math.Round(price*(1-DefaultRangePct/100)*100) / 100
	return upper, lower
}

func checkPrice(symbol string, price float64) error {
	if !(price > 0) || math.IsInf(price, 0) {
		return &domain.PriceUnavailableError{Symbol: symbol}
	}
	return nil
}

func roundPrice(p float64) float64 {
	m := math.Pow10(priceDecimals)
	return math.Round(p*m) / m
}
