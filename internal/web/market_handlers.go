package web

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/vitos/stock_grid/internal/domain"
	"github.com/vitos/stock_grid/internal/usecase"
)

func requireSymbol(r *http.Request) (string, error) {
	symbol := strings.TrimSpace(r.URL.Query().Get("symbol"))
	if symbol == "" {
		return "", fmt.Errorf("%w: symbol is required", domain.ErrInvalidParameter)
	}
	return symbol, nil
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	symbol, err := requireSymbol(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	q, err := s.market.GetQuote(r.Context(), symbol)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, q)
}

func (s *Server) handleGetCandles(w http.ResponseWriter, r *http.Request) {
	symbol, err := requireSymbol(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	candles, err := s.market.GetCandles(r.Context(), symbol, q.Get("period"), q.Get("interval"))
	if err != nil {
		s.writeError(w, r, &domain.PriceUnavailableError{Symbol: symbol, Err: err})
		return
	}
	if candles == nil {
		candles = []domain.Candle{}
	}
	s.writeJSON(w, http.StatusOK, candles)
}

func (s *Server) handleIndicators(w http.ResponseWriter, r *http.Request) {
	symbol, err := requireSymbol(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	ind, err := s.market.Indicators(r.Context(), symbol, q.Get("period"), q.Get("interval"))
	if err != nil {
		s.writeError(w, r, &domain.PriceUnavailableError{Symbol: symbol, Err: err})
		return
	}
	s.writeJSON(w, http.StatusOK, ind)
}

// handleScan ranks ?symbols=a,b,c (or the configured scan list) by ?strategy=.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	symbols := s.scanList
	if raw := q.Get("symbols"); raw != "" {
		symbols = nil
		for _, sym := range strings.Split(raw, ",") {
			if sym = strings.TrimSpace(sym); sym != "" {
				symbols = append(symbols, sym)
			}
		}
	}
	quotes, err := s.market.Scan(r.Context(), symbols, usecase.ScanStrategy(q.Get("strategy")))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if quotes == nil {
		quotes = []domain.Quote{}
	}
	s.writeJSON(w, http.StatusOK, quotes)
}

// handleNews serves ?q= headlines, ?limit= of them.
func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			s.writeError(w, r, fmt.Errorf("%w: limit %q is not a number", domain.ErrInvalidParameter, raw))
			return
		}
		limit = n
	}
	items, err := s.market.News(r.Context(), q.Get("q"), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if items == nil {
		items = []domain.NewsItem{}
	}
	s.writeJSON(w, http.StatusOK, items)
}
