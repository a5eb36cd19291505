// Package model holds the shared domain types passed between the strategy,
// backtest, risk, storage and API layers.
package model

import "time"

// Candle represents a single OHLCV price candle.
type Candle struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    int64     `json:"volume,omitempty"`
}

// TradeSide distinguishes buy and sell trades.
type TradeSide string

const (
	SideBuy  TradeSide = "BUY"
	SideSell TradeSide = "SELL"
)

// ExitReason records why a position was closed when risk management is
// active. Empty on BUY trades and on unmanaged runs.
type ExitReason string

const (
	ExitSignal     ExitReason = "signal"
	ExitStopLoss   ExitReason = "stop_loss"
	ExitTakeProfit ExitReason = "take_profit"
)

// Trade is one executed trade in a backtest ledger. Records are appended in
// chronological order and never mutated afterwards.
type Trade struct {
	Side       TradeSide  `json:"type"`
	Price      float64    `json:"price"`
	Shares     int        `json:"shares"`
	Value      float64    `json:"value"`
	Profit     float64    `json:"profit,omitempty"` // SELL only: exit value - entry value
	Timestamp  time.Time  `json:"date"`
	ExitReason ExitReason `json:"exit_reason,omitempty"`
}

// EquityPoint is one sample of total portfolio value, one per candle.
type EquityPoint struct {
	Timestamp time.Time `json:"date"`
	Value     float64   `json:"value"`
}

// BacktestResult summarises a completed backtest run.
type BacktestResult struct {
	InitialCapital float64       `json:"initial_capital"`
	FinalValue     float64       `json:"final_value"`
	TotalReturn    float64       `json:"total_return"` // percent
	TotalTrades    int           `json:"total_trades"`
	WinRate        float64       `json:"win_rate"`     // percent of SELLs
	MaxDrawdown    float64       `json:"max_drawdown"` // percent
	SharpeRatio    float64       `json:"sharpe_ratio"`
	Trades         []Trade       `json:"trades"`
	EquityCurve    []EquityPoint `json:"equity_curve"`
}

// Closes extracts the close price series from a slice of candles.
func Closes(candles []Candle) []float64 {
	closes := make([]float64, len(candles))
	for i := range candles {
		closes[i] = candles[i].Close
	}
	return closes
}
