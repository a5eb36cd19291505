package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"tradesim/internal/backtest"
	"tradesim/internal/model"
	"tradesim/internal/risk"
	"tradesim/internal/storage"
	"tradesim/internal/strategy"
)

// BacktestRequest is the POST /api/backtest payload.
type BacktestRequest struct {
	Symbol         string          `json:"symbol"`
	Strategy       string          `json:"strategy"`
	Days           int             `json:"days"`
	InitialCapital float64         `json:"initial_capital"`
	Parameters     strategy.Params `json:"parameters,omitempty"`
	RiskManaged    bool            `json:"risk_managed,omitempty"`
}

// TradeRequest is the POST /api/trades payload.
type TradeRequest struct {
	Symbol    string  `json:"symbol"`
	Strategy  string  `json:"strategy"`
	TradeType string  `json:"trade_type"`
	Price     float64 `json:"price"`
	Shares    int     `json:"shares"`
}

// PortfolioRequest is the POST /api/portfolio payload.
type PortfolioRequest struct {
	Cash       float64 `json:"cash"`
	TotalValue float64 `json:"total_value"`
	PnL        float64 `json:"pnl"`
	Strategy   string  `json:"strategy"`
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message":    "tradesim API",
		"strategies": strategy.IDs(),
		"endpoints": []string{
			"/api/historical/{symbol}",
			"/api/backtest",
			"/api/backtest/results",
			"/api/trades",
			"/api/portfolio",
			"/ws/live",
		},
	})
}

func (s *Server) handleHistorical(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	interval := queryDefault(r, "interval", s.cfg.Interval)
	count := queryIntDefault(r, "count", 100)

	candles, err := s.market.GetCandles(r.Context(), symbol, interval, count)
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"symbol": symbol,
		"data":   candles,
	})
}

func (s *Server) handleBacktest(w http.ResponseWriter, r *http.Request) {
	var req BacktestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Symbol == "" || req.Strategy == "" {
		writeError(w, http.StatusBadRequest, errors.New("symbol and strategy are required"))
		return
	}
	if req.Days <= 0 {
		req.Days = 365
	}
	if req.InitialCapital <= 0 {
		req.InitialCapital = s.cfg.InitialCapital
	}

	candles, err := s.market.GetHistoricalCandles(r.Context(), req.Symbol, s.cfg.Interval, req.Days)
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}

	engine := backtest.NewEngine(req.InitialCapital)
	if req.RiskManaged {
		engine.SetPolicy(backtest.RiskManagedSizing{
			Manager: risk.NewManager(risk.Config{
				InitialCapital:  req.InitialCapital,
				MaxPositionSize: s.cfg.MaxPositionSize,
				StopLossPct:     s.cfg.StopLossPct,
				TakeProfitPct:   s.cfg.TakeProfitPct,
				MaxDrawdownPct:  s.cfg.MaxDrawdownPct,
			}),
		})
	}

	result, err := engine.Run(candles, req.Strategy, req.Parameters)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, backtest.ErrInsufficientData) || errors.Is(err, backtest.ErrUnknownStrategy) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err)
		return
	}

	if s.db != nil {
		if _, err := s.db.SaveBacktestResult(req.Strategy, req.Symbol, req.Parameters, result); err != nil {
			s.logger.Error().Err(err).Msg("Failed to persist backtest result")
		}
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleBacktestResults(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("persistence not configured"))
		return
	}

	results, err := s.db.ListBacktestResults(queryIntDefault(r, "limit", 10))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *Server) handleLogTrade(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("persistence not configured"))
		return
	}

	var req TradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	id, err := s.db.SaveTrade(storage.TradeRecord{
		Strategy:  req.Strategy,
		Symbol:    req.Symbol,
		TradeType: model.TradeSide(req.TradeType),
		Price:     req.Price,
		Shares:    req.Shares,
		Value:     req.Price * float64(req.Shares),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"id": id, "message": "Trade logged successfully"})
}

func (s *Server) handleGetTrades(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("persistence not configured"))
		return
	}

	trades, err := s.db.ListTrades(r.URL.Query().Get("strategy"), queryIntDefault(r, "limit", 100))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"trades": trades})
}

func (s *Server) handleGetPortfolio(w http.ResponseWriter, _ *http.Request) {
	if s.db == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("persistence not configured"))
		return
	}

	snap, err := s.db.LatestPortfolio()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if snap == nil {
		snap = &storage.PortfolioSnapshot{
			Cash:       s.cfg.InitialCapital,
			TotalValue: s.cfg.InitialCapital,
		}
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleUpdatePortfolio(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("persistence not configured"))
		return
	}

	var req PortfolioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.db.SavePortfolio(storage.PortfolioSnapshot{
		Cash:       req.Cash,
		TotalValue: req.TotalValue,
		PnL:        req.PnL,
		Strategy:   req.Strategy,
	}); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"message": "Portfolio updated successfully"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"detail": err.Error()})
}

func queryDefault(r *http.Request, key, def string) string {
	if v := r.URL.Query().Get(key); v != "" {
		return v
	}
	return def
}

func queryIntDefault(r *http.Request, key string, def int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}
