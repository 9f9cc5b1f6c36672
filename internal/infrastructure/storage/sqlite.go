package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/vitos/stock_grid/internal/domain"
)

// MemoryDSN keeps everything in one shared in-memory database for the life of the process.
const MemoryDSN = "file:gridwatch?mode=memory&cache=shared"

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = MemoryDSN
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	// One connection keeps an in-memory database alive and serialises writers.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS plans (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			symbol TEXT NOT NULL,
			upper_bound REAL NOT NULL,
			lower_bound REAL NOT NULL,
			grid_count INTEGER NOT NULL,
			fee_discount REAL NOT NULL DEFAULT 1,
			lot_size INTEGER NOT NULL DEFAULT 1000,
			take_profit_pct REAL NOT NULL DEFAULT 0,
			stop_loss_pct REAL NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_plans_user ON plans(user_id);`,
		`CREATE TABLE IF NOT EXISTS holdings (
			id TEXT PRIMARY KEY,
			symbol TEXT NOT NULL,
			name TEXT NOT NULL,
			cost REAL NOT NULL,
			quantity INTEGER NOT NULL,
			created_at DATETIME NOT NULL
		);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("failed to exec query %s: %w", q, err)
		}
	}
	return nil
}

// PlanRepository Implementation

const planColumns = `id, user_id, symbol, upper_bound, lower_bound, grid_count, fee_discount, lot_size, take_profit_pct, stop_loss_pct, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanPlan(row scanner) (*domain.GridPlan, error) {
	var p domain.GridPlan
	err := row.Scan(&p.ID, &p.UserID, &p.Symbol, &p.UpperBound, &p.LowerBound, &p.GridCount,
		&p.FeeDiscount, &p.LotSize, &p.TakeProfitPct, &p.StopLossPct, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *SQLiteStore) SavePlan(ctx context.Context, plan *domain.GridPlan) error {
	query := `INSERT INTO plans (` + planColumns + `)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			  ON CONFLICT(id) DO UPDATE SET
			  symbol=excluded.symbol,
			  upper_bound=excluded.upper_bound,
			  lower_bound=excluded.lower_bound,
			  grid_count=excluded.grid_count,
			  fee_discount=excluded.fee_discount,
			  lot_size=excluded.lot_size,
			  take_profit_pct=excluded.take_profit_pct,
			  stop_loss_pct=excluded.stop_loss_pct`
	_, err := s.db.ExecContext(ctx, query,
		plan.ID, plan.UserID, plan.Symbol, plan.UpperBound, plan.LowerBound, plan.GridCount,
		plan.FeeDiscount, plan.LotSize, plan.TakeProfitPct, plan.StopLossPct, plan.CreatedAt)
	return err
}

func (s *SQLiteStore) GetPlan(ctx context.Context, id string) (*domain.GridPlan, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+planColumns+` FROM plans WHERE id = ?`, id)
	p, err := scanPlan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("plan %s: %w", id, domain.ErrNotFound)
	}
	return p, err
}

func (s *SQLiteStore) ListPlans(ctx context.Context) ([]*domain.GridPlan, error) {
	return s.queryPlans(ctx, `SELECT `+planColumns+` FROM plans ORDER BY created_at, id`)
}

func (s *SQLiteStore) ListPlansByUser(ctx context.Context, userID string) ([]*domain.GridPlan, error) {
	return s.queryPlans(ctx, `SELECT `+planColumns+` FROM plans WHERE user_id = ? ORDER BY created_at, id`, userID)
}

func (s *SQLiteStore) CountPlansByUser(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM plans WHERE user_id = ?`, userID).Scan(&n)
	return n, err
}

func (s *SQLiteStore) DeletePlan(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM plans WHERE id = ?", id)
	if err != nil {
		return err
	}
	return expectOne(res, "plan", id)
}

func (s *SQLiteStore) queryPlans(ctx context.Context, query string, args ...any) ([]*domain.GridPlan, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []*domain.GridPlan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

// HoldingRepository Implementation

func (s *SQLiteStore) SaveHolding(ctx context.Context, h *domain.Holding) error {
	query := `INSERT INTO holdings (id, symbol, name, cost, quantity, created_at)
			  VALUES (?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query, h.ID, h.Symbol, h.Name, h.Cost, h.Quantity, h.CreatedAt)
	return err
}

func (s *SQLiteStore) ListHoldings(ctx context.Context) ([]*domain.Holding, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, symbol, name, cost, quantity, created_at FROM holdings ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holdings []*domain.Holding
	for rows.Next() {
		var h domain.Holding
		if err := rows.Scan(&h.ID, &h.Symbol, &h.Name, &h.Cost, &h.Quantity, &h.CreatedAt); err != nil {
			return nil, err
		}
		holdings = append(holdings, &h)
	}
	return holdings, rows.Err()
}

func (s *SQLiteStore) DeleteHolding(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM holdings WHERE id = ?", id)
	if err != nil {
		return err
	}
	return expectOne(res, "holding", id)
}

func expectOne(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, domain.ErrNotFound)
	}
	return nil
}
