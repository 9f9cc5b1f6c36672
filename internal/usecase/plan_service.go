package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vitos/stock_grid/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultGridCount   = 10
	defaultMaxParallel = 4
)

// PlanEvaluation is the outcome of evaluating one stored plan in a cycle.
type PlanEvaluation struct {
	Plan     *domain.GridPlan     `json:"plan"`
	Snapshot *domain.PlanSnapshot `json:"snapshot,omitempty"`
	Error    string               `json:"error,omitempty"`
	Err      error                `json:"-"`
}

// PlanService owns the watch list: plan CRUD gated by the access policy,
// per-cycle evaluation and notification.
type PlanService struct {
	plans    domain.PlanRepository
	quotes   domain.QuoteSource
	notifier domain.Notifier
	access   domain.AccessPolicy
	engine   *GridPlanEngine
	logger   *zap.Logger

	maxParallel    int
	alertRecipient string
	createMu       sync.Mutex

	mu         sync.Mutex
	lastPrices map[string]float64 // plan id -> price at previous refresh
	lastStatus map[string]domain.PlanStatus
}

func NewPlanService(
	plans domain.PlanRepository,
	quotes domain.QuoteSource,
	notifier domain.Notifier,
	access domain.AccessPolicy,
	engine *GridPlanEngine,
	logger *zap.Logger,
) *PlanService {
	return &PlanService{
		plans:       plans,
		quotes:      quotes,
		notifier:    notifier,
		access:      access,
		engine:      engine,
		logger:      logger,
		maxParallel: defaultMaxParallel,
		lastPrices:  make(map[string]float64),
		lastStatus:  make(map[string]domain.PlanStatus),
	}
}

// SetAlertRecipient enables automatic pushes when a plan enters an alert state.
func (s *PlanService) SetAlertRecipient(recipientID string) {
	s.alertRecipient = recipientID
}

func (s *PlanService) SetMaxParallel(n int) {
	if n > 0 {
		s.maxParallel = n
	}
}

func (s *PlanService) Engine() *GridPlanEngine {
	return s.engine
}

// CreatePlan fills defaults, validates and stores a plan for userID. The
// caller's tier limit is checked before anything is written.
func (s *PlanService) CreatePlan(ctx context.Context, userID string, cfg domain.GridPlanConfig) (*domain.GridPlan, error) {
	if cfg.Symbol == "" {
		return nil, fmt.Errorf("%w: symbol is required", domain.ErrInvalidParameter)
	}

	s.createMu.Lock()
	defer s.createMu.Unlock()

	limit := s.access.TierLimit(userID)
	used, err := s.plans.CountPlansByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count plans: %w", err)
	}
	if used >= limit {
		return nil, fmt.Errorf("%w: %d of %d plans in use", domain.ErrPlanLimitReached, used, limit)
	}

	cfg = WithDefaults(cfg)
	if cfg.UpperBound == 0 && cfg.LowerBound == 0 {
		price, err := s.currentPrice(ctx, cfg.Symbol)
		if err != nil {
			return nil, err
		}
		cfg.UpperBound, cfg.LowerBound = DefaultBounds(price)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	plan := &domain.GridPlan{
		ID:             uuid.NewString(),
		UserID:         userID,
		GridPlanConfig: cfg,
		CreatedAt:      time.Now(),
	}
	if err := s.plans.SavePlan(ctx, plan); err != nil {
		return nil, fmt.Errorf("failed to save plan: %w", err)
	}

	s.logger.Info("Plan created",
		zap.String("id", plan.ID),
		zap.String("user", userID),
		zap.String("symbol", cfg.Symbol),
		zap.Float64("lower", cfg.LowerBound),
		zap.Float64("upper", cfg.UpperBound),
		zap.Int("grids", cfg.GridCount))
	return plan, nil
}

// WithDefaults fills the zero-valued lot size, fee discount and grid count.
func WithDefaults(cfg domain.GridPlanConfig) domain.GridPlanConfig {
	if cfg.LotSize == 0 {
		cfg.LotSize = domain.DefaultLotSize
	}
	if cfg.FeeDiscount == 0 {
		cfg.FeeDiscount = 1
	}
	if cfg.GridCount == 0 {
		cfg.GridCount = DefaultGridCount
	}
	return cfg
}

// Calculate evaluates an unsaved config. A non-positive price means "use the
// live quote"; zero bounds are derived from that price.
func (s *PlanService) Calculate(ctx context.Context, cfg domain.GridPlanConfig, price float64) (*domain.PlanSnapshot, error) {
	cfg = WithDefaults(cfg)
	if price <= 0 {
		if cfg.Symbol == "" {
			return nil, fmt.Errorf("%w: symbol or price is required", domain.ErrInvalidParameter)
		}
		p, err := s.currentPrice(ctx, cfg.Symbol)
		if err != nil {
			return nil, err
		}
		price = p
	}
	if cfg.UpperBound == 0 && cfg.LowerBound == 0 {
		cfg.UpperBound, cfg.LowerBound = DefaultBounds(price)
	}
	return s.engine.Evaluate(cfg, price)
}

func (s *PlanService) DeletePlan(ctx context.Context, id string) error {
	if _, err := s.plans.GetPlan(ctx, id); err != nil {
		return err
	}
	if err := s.plans.DeletePlan(ctx, id); err != nil {
		return fmt.Errorf("failed to delete plan: %w", err)
	}

	s.mu.Lock()
	delete(s.lastPrices, id)
	delete(s.lastStatus, id)
	s.mu.Unlock()

	s.logger.Info("Plan deleted", zap.String("id", id))
	return nil
}

func (s *PlanService) GetPlan(ctx context.Context, id string) (*domain.GridPlan, error) {
	return s.plans.GetPlan(ctx, id)
}

// ListPlans returns the plans of userID, or every plan when userID is empty.
func (s *PlanService) ListPlans(ctx context.Context, userID string) ([]*domain.GridPlan, error) {
	if userID == "" {
		return s.plans.ListPlans(ctx)
	}
	return s.plans.ListPlansByUser(ctx, userID)
}

// Usage reports how many plans userID holds against the tier limit.
func (s *PlanService) Usage(ctx context.Context, userID string) (used, limit int, err error) {
	used, err = s.plans.CountPlansByUser(ctx, userID)
	if err != nil {
		return 0, 0, err
	}
	return used, s.access.TierLimit(userID), nil
}

// EvaluatePlan fetches one price and evaluates the plan against it.
func (s *PlanService) EvaluatePlan(ctx context.Context, id string) (*domain.PlanSnapshot, error) {
	plan, err := s.plans.GetPlan(ctx, id)
	if err != nil {
		return nil, err
	}
	price, err := s.currentPrice(ctx, plan.Symbol)
	if err != nil {
		return nil, err
	}
	snap, err := s.evaluate(plan, price)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	prev := s.lastPrices[id]
	s.mu.Unlock()
	snap.Status = StatusAfterMove(snap, prev)
	return snap, nil
}

// EvaluateAll evaluates every stored plan. Prices are fetched once per symbol
// and every plan of that symbol is evaluated against the same sample. A failed
// plan is reported in its PlanEvaluation and does not stop the others.
func (s *PlanService) EvaluateAll(ctx context.Context) ([]PlanEvaluation, error) {
	plans, err := s.plans.ListPlans(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}

	results := make([]PlanEvaluation, len(plans))
	bySymbol := make(map[string][]int)
	for i, p := range plans {
		results[i].Plan = p
		bySymbol[p.Symbol] = append(bySymbol[p.Symbol], i)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxParallel)
	for symbol, idx := range bySymbol {
		g.Go(func() error {
			price, err := s.currentPrice(gctx, symbol)
			for _, i := range idx {
				if err != nil {
					results[i].Err = err
					continue
				}
				results[i].Snapshot, results[i].Err = s.evaluate(results[i].Plan, price)
			}
			return nil
		})
	}
	_ = g.Wait()

	for i := range results {
		if results[i].Err != nil {
			results[i].Error = results[i].Err.Error()
		}
	}
	return results, nil
}

// Refresh runs one watch cycle: evaluate everything, label each snapshot from
// the price move since the previous cycle and push an alert for every crossed
// grid line and for each new safety breach.
func (s *PlanService) Refresh(ctx context.Context) ([]PlanEvaluation, error) {
	results, err := s.EvaluateAll(ctx)
	if err != nil {
		return nil, err
	}

	type alert struct {
		planID string
		text   string
	}
	var alerts []alert

	live := make(map[string]bool, len(results))
	s.mu.Lock()
	for _, r := range results {
		id := r.Plan.ID
		live[id] = true
		if r.Err != nil {
			s.logger.Warn("Plan evaluation failed", zap.String("id", id), zap.String("symbol", r.Plan.Symbol), zap.Error(r.Err))
			continue
		}
		snap := r.Snapshot
		prevPrice := s.lastPrices[id]
		prevStatus := s.lastStatus[id]
		snap.Status = StatusAfterMove(snap, prevPrice)
		s.lastPrices[id] = snap.CurrentPrice
		s.lastStatus[id] = snap.Status

		// Every crossed line is a new fill; a breach is reported once until it clears.
		var push bool
		if snap.Status == domain.StatusSafetyExit {
			push = prevStatus != domain.StatusSafetyExit
		} else {
			level, _ := CrossedLevel(snap, prevPrice)
			push = level != nil
		}
		if push {
			s.logger.Info("Plan alert",
				zap.String("id", id),
				zap.String("symbol", r.Plan.Symbol),
				zap.String("status", string(snap.Status)),
				zap.Float64("price", snap.CurrentPrice))
			alerts = append(alerts, alert{planID: id, text: FormatSummary(snap)})
		}
	}
	for id := range s.lastPrices {
		if !live[id] {
			delete(s.lastPrices, id)
			delete(s.lastStatus, id)
		}
	}
	s.mu.Unlock()

	if s.alertRecipient != "" && s.notifier != nil {
		for _, a := range alerts {
			if err := s.notifier.Push(ctx, s.alertRecipient, a.text); err != nil {
				s.logger.Error("Failed to push alert", zap.String("id", a.planID), zap.Error(err))
			}
		}
	}
	return results, nil
}

// NotifyPlan evaluates the plan and pushes its summary to recipientID, or to
// the configured alert recipient when recipientID is empty.
func (s *PlanService) NotifyPlan(ctx context.Context, id, recipientID string) (*domain.PlanSnapshot, error) {
	if s.notifier == nil {
		return nil, errors.New("no notifier configured")
	}
	if recipientID == "" {
		recipientID = s.alertRecipient
	}
	if recipientID == "" {
		return nil, fmt.Errorf("%w: recipient is required", domain.ErrInvalidParameter)
	}

	snap, err := s.EvaluatePlan(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.notifier.Push(ctx, recipientID, FormatSummary(snap)); err != nil {
		return nil, fmt.Errorf("failed to push summary: %w", err)
	}
	return snap, nil
}

func (s *PlanService) evaluate(plan *domain.GridPlan, price float64) (*domain.PlanSnapshot, error) {
	snap, err := s.engine.Evaluate(plan.GridPlanConfig, price)
	if err != nil {
		return nil, err
	}
	snap.PlanID = plan.ID
	return snap, nil
}

// currentPrice never substitutes a fallback: any failure is PriceUnavailableError.
func (s *PlanService) currentPrice(ctx context.Context, symbol string) (float64, error) {
	price, err := s.quotes.GetCurrentPrice(ctx, symbol)
	if err != nil {
		return 0, &domain.PriceUnavailableError{Symbol: symbol, Err: err}
	}
	if !(price > 0) {
		return 0, &domain.PriceUnavailableError{Symbol: symbol}
	}
	return price, nil
}
