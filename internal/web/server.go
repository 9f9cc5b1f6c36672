package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/vitos/stock_grid/internal/usecase"
	"go.uber.org/zap"
)

type Server struct {
	router    *http.ServeMux
	server    *http.Server
	plans     *usecase.PlanService
	portfolio *usecase.PortfolioService
	market    *usecase.MarketService
	hub       *Hub
	scanList  []string
	startedAt time.Time
	logger    *zap.Logger
}

func NewServer(
	port int,
	plans *usecase.PlanService,
	portfolio *usecase.PortfolioService,
	market *usecase.MarketService,
	hub *Hub,
	scanList []string,
	logger *zap.Logger,
) *Server {
	s := &Server{
		router:    http.NewServeMux(),
		plans:     plans,
		portfolio: portfolio,
		market:    market,
		hub:       hub,
		scanList:  scanList,
		startedAt: time.Now(),
		logger:    logger,
	}
	s.routes()
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	// Plans
	s.router.HandleFunc("GET /api/plans", s.handleListPlans)
	s.router.HandleFunc("POST /api/plans", s.handleCreatePlan)
	s.router.HandleFunc("DELETE /api/plans/{id}", s.handleDeletePlan)
	s.router.HandleFunc("GET /api/plans/{id}/evaluate", s.handleEvaluatePlan)
	s.router.HandleFunc("POST /api/plans/{id}/notify", s.handleNotifyPlan)
	s.router.HandleFunc("GET /api/usage", s.handleUsage)

	// Calculator
	s.router.HandleFunc("POST /api/calc", s.handleCalc)

	// Portfolio
	s.router.HandleFunc("GET /api/holdings", s.handleListHoldings)
	s.router.HandleFunc("POST /api/holdings", s.handleAddHolding)
	s.router.HandleFunc("DELETE /api/holdings/{id}", s.handleDeleteHolding)
	s.router.HandleFunc("GET /api/holdings/valuation", s.handleValuation)

	// Market
	s.router.HandleFunc("GET /api/quote", s.handleQuote)
	s.router.HandleFunc("GET /api/candles", s.handleGetCandles)
	s.router.HandleFunc("GET /api/indicators", s.handleIndicators)
	s.router.HandleFunc("GET /api/scan", s.handleScan)
	s.router.HandleFunc("GET /api/news", s.handleNews)

	// Live snapshots
	s.router.HandleFunc("GET /ws", s.hub.ServeWS)

	// Status
	s.router.HandleFunc("GET /status", s.handleStatus)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.logger.Info("Starting web server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	return s.server.Shutdown(ctx)
}
