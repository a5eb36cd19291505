// Package api exposes the backtest engine and its collaborators over HTTP:
// REST endpoints for running backtests and querying history, plus a
// WebSocket hub for live price streaming.
package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"tradesim/internal/config"
	"tradesim/internal/marketdata"
	"tradesim/internal/storage"
)

// Server wires the REST handlers and the WebSocket hub together.
type Server struct {
	cfg    *config.Config
	db     *storage.DB
	market *marketdata.Client
	hub    *Hub
	logger zerolog.Logger
}

// NewServer creates a Server with the given collaborators. db may be nil,
// in which case persistence endpoints report service unavailable.
func NewServer(cfg *config.Config, db *storage.DB, market *marketdata.Client, hub *Hub) *Server {
	return &Server{
		cfg:    cfg,
		db:     db,
		market: market,
		hub:    hub,
		logger: log.With().Str("component", "api_server").Logger(),
	}
}

// Router builds the HTTP route table.
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter().StrictSlash(true)
	router.Use(s.requestLogger)

	router.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	router.HandleFunc("/api/historical/{symbol}", s.handleHistorical).Methods(http.MethodGet)
	router.HandleFunc("/api/backtest", s.handleBacktest).Methods(http.MethodPost)
	router.HandleFunc("/api/backtest/results", s.handleBacktestResults).Methods(http.MethodGet)
	router.HandleFunc("/api/trades", s.handleGetTrades).Methods(http.MethodGet)
	router.HandleFunc("/api/trades", s.handleLogTrade).Methods(http.MethodPost)
	router.HandleFunc("/api/portfolio", s.handleGetPortfolio).Methods(http.MethodGet)
	router.HandleFunc("/api/portfolio", s.handleUpdatePortfolio).Methods(http.MethodPost)
	router.HandleFunc("/ws/live", s.hub.HandleLive).Methods(http.MethodGet)

	return router
}

// requestLogger logs every request with its latency.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.RequestURI).
			Dur("elapsed", time.Since(start)).
			Msg("Request handled")
	})
}
