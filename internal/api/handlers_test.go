package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradesim/internal/config"
	"tradesim/internal/marketdata"
	"tradesim/internal/model"
)

// marketStub serves a daily candle series built from closes, newest first,
// the way the upstream provider does.
func marketStub(t *testing.T, closes []float64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		values := make([]string, 0, len(closes))
		for i := len(closes) - 1; i >= 0; i-- {
			day := base.AddDate(0, 0, i).Format("2006-01-02")
			values = append(values, fmt.Sprintf(
				`{"datetime": %q, "open": "%[2]v", "high": "%[2]v", "low": "%[2]v", "close": "%[2]v", "volume": "1000"}`,
				day, closes[i],
			))
		}
		fmt.Fprintf(w, `{"meta":{"symbol":"AAPL","interval":"1day"},"values":[%s],"status":"ok"}`, strings.Join(values, ","))
	}))
}

func newTestServer(marketURL string) *Server {
	cfg := &config.Config{
		Interval:        "1day",
		InitialCapital:  100000,
		MaxPositionSize: 0.2,
		StopLossPct:     0.05,
		TakeProfitPct:   0.10,
		MaxDrawdownPct:  0.20,
	}
	market := marketdata.NewClient(marketdata.ClientOptions{APIKey: "test", BaseURL: marketURL})
	return NewServer(cfg, nil, market, NewHub())
}

func TestHandleIndex(t *testing.T) {
	srv := newTestServer("http://unused")

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Strategies []string `json:"strategies"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Strategies, "sma_cross")
	assert.Contains(t, body.Strategies, "rsi")
}

func TestHandleBacktest(t *testing.T) {
	market := marketStub(t, []float64{10, 11, 9, 12, 8})
	defer market.Close()
	srv := newTestServer(market.URL)

	payload := `{
		"symbol": "AAPL",
		"strategy": "sma_cross",
		"days": 5,
		"initial_capital": 100,
		"parameters": {"short_window": 1, "long_window": 2}
	}`

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/backtest", strings.NewReader(payload))
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result model.BacktestResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 2, result.TotalTrades)
	assert.InDelta(t, 68, result.FinalValue, 1e-9)
	assert.Len(t, result.EquityCurve, 5)
}

func TestHandleBacktestValidation(t *testing.T) {
	srv := newTestServer("http://unused")

	tests := []struct {
		name    string
		payload string
	}{
		{"missing symbol", `{"strategy": "sma_cross"}`},
		{"missing strategy", `{"symbol": "AAPL"}`},
		{"malformed json", `{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/backtest", strings.NewReader(tt.payload))
			srv.Router().ServeHTTP(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHandleBacktestUnknownStrategy(t *testing.T) {
	market := marketStub(t, []float64{10, 11, 9, 12, 8})
	defer market.Close()
	srv := newTestServer(market.URL)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/backtest",
		strings.NewReader(`{"symbol": "AAPL", "strategy": "nope"}`))
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown strategy")
}

func TestPersistenceEndpointsWithoutDB(t *testing.T) {
	srv := newTestServer("http://unused")

	requests := []*http.Request{
		httptest.NewRequest(http.MethodGet, "/api/backtest/results", nil),
		httptest.NewRequest(http.MethodGet, "/api/trades", nil),
		httptest.NewRequest(http.MethodPost, "/api/trades", strings.NewReader(`{}`)),
		httptest.NewRequest(http.MethodGet, "/api/portfolio", nil),
		httptest.NewRequest(http.MethodPost, "/api/portfolio", strings.NewReader(`{}`)),
	}

	for _, req := range requests {
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, "%s %s", req.Method, req.URL.Path)
	}
}
