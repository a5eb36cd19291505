package risk

import "tradesim/internal/model"

// ApplyManagement replays an existing trade ledger through the risk rules.
// Each BUY is gated through ShouldEnter (with a take-profit target); vetoed
// BUYs are dropped together with their matching SELL. Surviving SELLs are
// tagged with the exit reason a managed run would have recorded: stop_loss,
// take_profit, or plain signal. The ledger is annotated and filtered only;
// cash and share counts are never re-simulated.
func ApplyManagement(trades []model.Trade, m *Manager) []model.Trade {
	managed := make([]model.Trade, 0, len(trades))
	var open *model.Trade

	for _, trade := range trades {
		switch trade.Side {
		case model.SideBuy:
			targetPrice := trade.Price * (1 + m.cfg.TakeProfitPct)
			decision := m.ShouldEnter(m.cfg.InitialCapital, trade.Price, targetPrice)
			if !decision.Enter {
				continue
			}
			managed = append(managed, trade)
			entry := trade
			open = &entry

		case model.SideSell:
			if open == nil {
				continue
			}
			switch {
			case m.CheckStopLoss(open.Price, trade.Price):
				trade.ExitReason = model.ExitStopLoss
			case m.CheckTakeProfit(open.Price, trade.Price):
				trade.ExitReason = model.ExitTakeProfit
			default:
				trade.ExitReason = model.ExitSignal
			}
			managed = append(managed, trade)
			open = nil
		}
	}

	return managed
}
