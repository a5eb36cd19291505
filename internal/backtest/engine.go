// Package backtest simulates trading strategies against historical candle
// data. The engine walks the candle sequence once, consulting the configured
// sizing policy on entries and exits, and produces a trade ledger, an equity
// curve and summary performance metrics.
package backtest

import (
	"errors"
	"fmt"
	"math"

	"tradesim/internal/model"
	"tradesim/internal/strategy"
)

// DefaultInitialCapital is used when the caller does not set one.
const DefaultInitialCapital = 100000.0

var (
	// ErrInsufficientData is returned when the candle series is too short to
	// derive a single signal transition.
	ErrInsufficientData = errors.New("insufficient candle data")

	// ErrUnknownStrategy is returned when the strategy identifier is not
	// registered.
	ErrUnknownStrategy = errors.New("unknown strategy")
)

// position is the single open position an engine may hold. It exists only
// between a BUY and its matching SELL.
type position struct {
	entryPrice float64
	entryValue float64
	shares     int
}

// Engine runs backtests. Each run owns its state exclusively; create one
// Engine (and one risk.Manager, if managed) per run.
type Engine struct {
	initialCapital float64
	policy         Policy
}

// NewEngine creates an engine with the given starting capital and the naive
// all-cash sizing policy. Non-positive capital falls back to the default.
func NewEngine(initialCapital float64) *Engine {
	if initialCapital <= 0 {
		initialCapital = DefaultInitialCapital
	}
	return &Engine{
		initialCapital: initialCapital,
		policy:         NaiveSizing{},
	}
}

// SetPolicy selects the sizing policy for subsequent runs.
func (e *Engine) SetPolicy(p Policy) {
	if p != nil {
		e.policy = p
	}
}

// Run executes a backtest of the identified strategy over the candle series.
// It fails fast on empty or too-short input and on unknown strategy ids;
// risk vetoes during the run are not errors, they simply skip trades.
func (e *Engine) Run(candles []model.Candle, strategyID string, params strategy.Params) (*model.BacktestResult, error) {
	if len(candles) < 2 {
		return nil, fmt.Errorf("%w: got %d candles, need at least 2", ErrInsufficientData, len(candles))
	}

	gen, ok := strategy.Lookup(strategyID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategyID)
	}
	signals := gen.Generate(candles, params)

	cash := e.initialCapital
	var pos *position
	trades := make([]model.Trade, 0)
	equityCurve := make([]model.EquityPoint, 0, len(candles))

	for i, candle := range candles {
		price := candle.Close

		// Forced exits (stop-loss / take-profit) are evaluated before the
		// strategy signal so the protective exit wins on a shared bar.
		if pos != nil {
			if reason, exit := e.policy.CheckExit(pos.entryPrice, price); exit {
				cash, trades = e.closePosition(cash, trades, pos, price, candle, reason)
				pos = nil
			}
		}

		switch {
		case signals.Change[i] == strategy.ChangeEntry && pos == nil:
			shares := e.policy.EntrySize(cash, price)
			if shares > 0 {
				cost := float64(shares) * price
				cash -= cost
				pos = &position{entryPrice: price, entryValue: cost, shares: shares}
				trades = append(trades, model.Trade{
					Side:      model.SideBuy,
					Price:     price,
					Shares:    shares,
					Value:     cost,
					Timestamp: candle.Timestamp,
				})
			}

		case signals.Change[i] == strategy.ChangeExit && pos != nil:
			cash, trades = e.closePosition(cash, trades, pos, price, candle, e.policy.SignalExitReason())
			pos = nil
		}

		totalValue := cash
		if pos != nil {
			totalValue += float64(pos.shares) * price
		}
		equityCurve = append(equityCurve, model.EquityPoint{
			Timestamp: candle.Timestamp,
			Value:     totalValue,
		})
	}

	finalValue := cash
	if pos != nil {
		finalValue += float64(pos.shares) * candles[len(candles)-1].Close
	}

	result := &model.BacktestResult{
		InitialCapital: e.initialCapital,
		FinalValue:     finalValue,
		TotalReturn:    (finalValue - e.initialCapital) / e.initialCapital * 100,
		TotalTrades:    len(trades),
		WinRate:        winRate(trades),
		MaxDrawdown:    MaxDrawdown(equityCurve) * 100,
		SharpeRatio:    SharpeRatio(PeriodReturns(equityCurve)),
		Trades:         trades,
		EquityCurve:    equityCurve,
	}
	return result, nil
}

// closePosition credits the exit value, records the SELL with its realised
// profit against the entry value, and returns the updated cash and ledger.
func (e *Engine) closePosition(
	cash float64,
	trades []model.Trade,
	pos *position,
	price float64,
	candle model.Candle,
	reason model.ExitReason,
) (float64, []model.Trade) {
	value := float64(pos.shares) * price
	cash += value
	trades = append(trades, model.Trade{
		Side:       model.SideSell,
		Price:      price,
		Shares:     pos.shares,
		Value:      value,
		Profit:     value - pos.entryValue,
		Timestamp:  candle.Timestamp,
		ExitReason: reason,
	})
	return cash, trades
}

// winRate is the percentage of SELL trades that closed with a profit, 0 when
// no position was ever closed.
func winRate(trades []model.Trade) float64 {
	var sells, wins int
	for _, t := range trades {
		if t.Side != model.SideSell {
			continue
		}
		sells++
		if t.Profit > 0 {
			wins++
		}
	}
	if sells == 0 {
		return 0
	}
	return float64(wins) / float64(sells) * 100
}

// MaxDrawdown scans the equity curve once, maintaining the running peak, and
// returns the largest fractional decline from that peak.
func MaxDrawdown(curve []model.EquityPoint) float64 {
	if len(curve) == 0 {
		return 0
	}

	maxDrawdown := 0.0
	peak := curve[0].Value
	for _, p := range curve {
		if p.Value > peak {
			peak = p.Value
		}
		drawdown := (peak - p.Value) / peak
		if drawdown > maxDrawdown {
			maxDrawdown = drawdown
		}
	}
	return maxDrawdown
}

// PeriodReturns converts an equity curve into fractional period-over-period
// returns. The first point has no return.
func PeriodReturns(curve []model.EquityPoint) []float64 {
	if len(curve) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		returns = append(returns, (curve[i].Value-curve[i-1].Value)/curve[i-1].Value)
	}
	return returns
}

// SharpeRatio annualizes mean over standard deviation of the periodic
// returns assuming 252 trading days. Returns 0 with fewer than 2
// observations or zero variance.
func SharpeRatio(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var sumSquaredDiff float64
	for _, r := range returns {
		diff := r - mean
		sumSquaredDiff += diff * diff
	}
	stdDev := math.Sqrt(sumSquaredDiff / float64(len(returns)-1))
	if stdDev == 0 {
		return 0
	}

	return mean / stdDev * math.Sqrt(252)
}
