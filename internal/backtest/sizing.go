package backtest

import (
	"tradesim/internal/model"
	"tradesim/internal/risk"
)

// Policy decides how entries are sized and whether an open position must be
// closed ahead of a strategy signal. Policies are selected per run.
type Policy interface {
	// EntrySize returns the number of shares to buy at price with the given
	// cash, 0 to skip the entry.
	EntrySize(cash, price float64) int

	// CheckExit reports whether the open position must be closed at the
	// current price before the strategy signals an exit, and why.
	CheckExit(entryPrice, currentPrice float64) (model.ExitReason, bool)

	// SignalExitReason returns the annotation recorded on strategy-signalled
	// exits. Unmanaged policies leave it empty.
	SignalExitReason() model.ExitReason
}

// NaiveSizing spends all available cash on every entry and never forces an
// exit. This reproduces the plain unmanaged backtest.
type NaiveSizing struct{}

// EntrySize returns the largest whole share count the cash can buy.
func (NaiveSizing) EntrySize(cash, price float64) int {
	if price <= 0 {
		return 0
	}
	return int(cash / price)
}

// CheckExit never forces an exit.
func (NaiveSizing) CheckExit(_, _ float64) (model.ExitReason, bool) {
	return "", false
}

// SignalExitReason returns no annotation.
func (NaiveSizing) SignalExitReason() model.ExitReason { return "" }

// RiskManagedSizing consults a risk.Manager on every entry and enforces
// stop-loss/take-profit exits while a position is open.
type RiskManagedSizing struct {
	Manager *risk.Manager
}

// EntrySize gates the entry through the manager's ShouldEnter decision,
// using the configured take-profit level as the target price. A veto sizes
// the entry at 0, which skips the trade.
func (s RiskManagedSizing) EntrySize(cash, price float64) int {
	targetPrice := price * (1 + s.Manager.Config().TakeProfitPct)
	decision := s.Manager.ShouldEnter(cash, price, targetPrice)
	if !decision.Enter {
		return 0
	}
	return decision.Shares
}

// CheckExit triggers on the stop-loss first, then the take-profit.
func (s RiskManagedSizing) CheckExit(entryPrice, currentPrice float64) (model.ExitReason, bool) {
	if s.Manager.CheckStopLoss(entryPrice, currentPrice) {
		return model.ExitStopLoss, true
	}
	if s.Manager.CheckTakeProfit(entryPrice, currentPrice) {
		return model.ExitTakeProfit, true
	}
	return "", false
}

// SignalExitReason tags strategy-signalled exits as such.
func (RiskManagedSizing) SignalExitReason() model.ExitReason { return model.ExitSignal }
