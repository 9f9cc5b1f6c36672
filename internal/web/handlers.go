package web

import (
	"net/http"
	"time"

	"github.com/vitos/stock_grid/internal/domain"
)

type createPlanRequest struct {
	UserID string `json:"user_id"`
	domain.GridPlanConfig
}

type calcRequest struct {
	Config domain.GridPlanConfig `json:"config"`
	Price  float64               `json:"price"`
}

type notifyRequest struct {
	RecipientID string `json:"recipient_id"`
}

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := s.plans.ListPlans(r.Context(), r.URL.Query().Get("user"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if plans == nil {
		plans = []*domain.GridPlan{}
	}
	s.writeJSON(w, http.StatusOK, plans)
}

func (s *Server) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	var req createPlanRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	plan, err := s.plans.CreatePlan(r.Context(), req.UserID, req.GridPlanConfig)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, plan)
}

func (s *Server) handleDeletePlan(w http.ResponseWriter, r *http.Request) {
	if err := s.plans.DeletePlan(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEvaluatePlan(w http.ResponseWriter, r *http.Request) {
	snap, err := s.plans.EvaluatePlan(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleNotifyPlan(w http.ResponseWriter, r *http.Request) {
	var req notifyRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	snap, err := s.plans.NotifyPlan(r.Context(), r.PathValue("id"), req.RecipientID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	user := r.URL.Query().Get("user")
	used, limit, err := s.plans.Usage(r.Context(), user)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"user": user, "used": used, "limit": limit})
}

func (s *Server) handleCalc(w http.ResponseWriter, r *http.Request) {
	var req calcRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	snap, err := s.plans.Calculate(r.Context(), req.Config, req.Price)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleListHoldings(w http.ResponseWriter, r *http.Request) {
	holdings, err := s.portfolio.ListHoldings(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if holdings == nil {
		holdings = []*domain.Holding{}
	}
	s.writeJSON(w, http.StatusOK, holdings)
}

func (s *Server) handleAddHolding(w http.ResponseWriter, r *http.Request) {
	var h domain.Holding
	if err := decodeJSON(w, r, &h); err != nil {
		s.writeError(w, r, err)
		return
	}
	added, err := s.portfolio.AddHolding(r.Context(), h)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, added)
}

func (s *Server) handleDeleteHolding(w http.ResponseWriter, r *http.Request) {
	if err := s.portfolio.RemoveHolding(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleValuation(w http.ResponseWriter, r *http.Request) {
	vals, err := s.portfolio.Valuate(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var value, pnl float64
	for _, v := range vals {
		if v.Available {
			value += v.MarketValue
			pnl += v.UnrealizedPnL
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"holdings":       vals,
		"market_value":   value,
		"unrealized_pnl": pnl,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	plans, err := s.plans.ListPlans(r.Context(), "")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"plans":      len(plans),
		"ws_clients": s.hub.ClientCount(),
		"uptime":     time.Since(s.startedAt).Round(time.Second).String(),
	})
}
