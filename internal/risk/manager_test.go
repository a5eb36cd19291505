package risk

import (
	"math"
	"testing"
	"time"

	"tradesim/internal/model"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestPositionSize(t *testing.T) {
	m := NewManager(Config{InitialCapital: 100000})

	tests := []struct {
		name       string
		capital    float64
		price      float64
		volatility float64
		want       int
	}{
		{"base allocation", 100000, 50, 0, 400},
		{"fractional shares floored", 100000, 120, 0, 166},
		{"kelly capped at quarter", 100000, 50, 2, 100},
		{"kelly from volatility", 100000, 50, 10, 40},
		{"zero capital", 0, 50, 0, 0},
		{"negative capital", -100, 50, 0, 0},
		{"zero price", 100000, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.PositionSize(tt.capital, tt.price, tt.volatility); got != tt.want {
				t.Errorf("PositionSize(%v, %v, %v) = %d, want %d", tt.capital, tt.price, tt.volatility, got, tt.want)
			}
		})
	}
}

func TestStopLossTakeProfit(t *testing.T) {
	m := NewManager(Config{InitialCapital: 100000})

	if !m.CheckStopLoss(100, 95) {
		t.Error("5% loss must trigger the stop")
	}
	if m.CheckStopLoss(100, 96) {
		t.Error("4% loss must not trigger the stop")
	}
	if !m.CheckTakeProfit(100, 110) {
		t.Error("10% gain must trigger the take-profit")
	}
	if m.CheckTakeProfit(100, 109) {
		t.Error("9% gain must not trigger the take-profit")
	}
}

func TestDrawdownRatchet(t *testing.T) {
	m := NewManager(Config{InitialCapital: 100000})

	status := m.UpdateDrawdown(120000)
	if status.PeakValue != 120000 || status.Drawdown != 0 {
		t.Fatalf("after raise: %+v", status)
	}

	status = m.UpdateDrawdown(90000)
	if !almostEqual(status.Drawdown, 0.25) {
		t.Errorf("Drawdown = %v, want 0.25 against the 120000 peak", status.Drawdown)
	}
	if !status.HaltTrading {
		t.Error("25% drawdown must halt trading")
	}

	// The peak never falls, so recovery shrinks the drawdown but keeps the
	// old peak as reference.
	status = m.UpdateDrawdown(110000)
	if status.PeakValue != 120000 {
		t.Errorf("PeakValue = %v, want 120000 (monotonic)", status.PeakValue)
	}
	if status.HaltTrading {
		t.Error("recovered portfolio must not stay halted")
	}
}

func TestRiskRewardRatio(t *testing.T) {
	if got := RiskRewardRatio(100, 120, 90); !almostEqual(got, 2) {
		t.Errorf("RiskRewardRatio(100,120,90) = %v, want 2", got)
	}
	if got := RiskRewardRatio(100, 110, 100); got != 0 {
		t.Errorf("zero potential loss: got %v, want 0", got)
	}
	if got := RiskRewardRatio(100, 110, 105); got != 0 {
		t.Errorf("negative potential loss: got %v, want 0", got)
	}
}

func TestShouldEnter(t *testing.T) {
	t.Run("approved", func(t *testing.T) {
		m := NewManager(Config{InitialCapital: 100000})
		d := m.ShouldEnter(100000, 100, 110)
		if !d.Enter {
			t.Fatalf("vetoed: %+v", d)
		}
		if d.Shares != 200 {
			t.Errorf("Shares = %d, want 200", d.Shares)
		}
		if !almostEqual(d.StopLossPrice, 95) {
			t.Errorf("StopLossPrice = %v, want 95", d.StopLossPrice)
		}
		if !almostEqual(d.MaxLoss, 1000) {
			t.Errorf("MaxLoss = %v, want 1000", d.MaxLoss)
		}
		if !almostEqual(d.RiskReward, 2) {
			t.Errorf("RiskReward = %v, want 2", d.RiskReward)
		}
	})

	t.Run("poor risk reward", func(t *testing.T) {
		m := NewManager(Config{InitialCapital: 100000})
		d := m.ShouldEnter(100000, 100, 105)
		if d.Enter {
			t.Fatal("1:1 trade must be vetoed")
		}
		if d.Reason != ReasonPoorRiskReward {
			t.Errorf("Reason = %q, want %q", d.Reason, ReasonPoorRiskReward)
		}
	})

	t.Run("drawdown halt", func(t *testing.T) {
		m := NewManager(Config{InitialCapital: 100000})
		m.UpdateDrawdown(120000)
		d := m.ShouldEnter(90000, 100, 110)
		if d.Enter {
			t.Fatal("halted manager must veto entries")
		}
		if d.Reason != ReasonDrawdownExceeded {
			t.Errorf("Reason = %q, want %q", d.Reason, ReasonDrawdownExceeded)
		}
	})

	t.Run("insufficient capital", func(t *testing.T) {
		m := NewManager(Config{InitialCapital: 100})
		d := m.ShouldEnter(100, 1000, 1100)
		if d.Enter {
			t.Fatal("unaffordable entry must be vetoed")
		}
		if d.Reason != ReasonInsufficientCapital {
			t.Errorf("Reason = %q, want %q", d.Reason, ReasonInsufficientCapital)
		}
	})
}

func TestApplyManagement(t *testing.T) {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewManager(Config{InitialCapital: 100000})

	trades := []model.Trade{
		{Side: model.SideBuy, Price: 100, Shares: 10, Value: 1000, Timestamp: ts},
		{Side: model.SideSell, Price: 94, Shares: 10, Value: 940, Profit: -60, Timestamp: ts},
		{Side: model.SideBuy, Price: 100, Shares: 10, Value: 1000, Timestamp: ts},
		{Side: model.SideSell, Price: 112, Shares: 10, Value: 1120, Profit: 120, Timestamp: ts},
		{Side: model.SideBuy, Price: 100, Shares: 10, Value: 1000, Timestamp: ts},
		{Side: model.SideSell, Price: 103, Shares: 10, Value: 1030, Profit: 30, Timestamp: ts},
	}

	managed := ApplyManagement(trades, m)
	if len(managed) != 6 {
		t.Fatalf("got %d trades, want all 6 (defaults pass the risk/reward gate)", len(managed))
	}

	wantReasons := []model.ExitReason{model.ExitStopLoss, model.ExitTakeProfit, model.ExitSignal}
	var got []model.ExitReason
	for _, trade := range managed {
		if trade.Side == model.SideSell {
			got = append(got, trade.ExitReason)
		}
	}
	if len(got) != len(wantReasons) {
		t.Fatalf("got %d sells, want %d", len(got), len(wantReasons))
	}
	for i, want := range wantReasons {
		if got[i] != want {
			t.Errorf("sell %d tagged %q, want %q", i, got[i], want)
		}
	}
}

func TestApplyManagementDropsVetoedPairs(t *testing.T) {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewManager(Config{InitialCapital: 100000})

	// Drive the manager into a halted state so every entry is vetoed.
	m.UpdateDrawdown(200000)
	m.UpdateDrawdown(100000)

	trades := []model.Trade{
		{Side: model.SideBuy, Price: 100, Shares: 10, Value: 1000, Timestamp: ts},
		{Side: model.SideSell, Price: 110, Shares: 10, Value: 1100, Profit: 100, Timestamp: ts},
	}

	if managed := ApplyManagement(trades, m); len(managed) != 0 {
		t.Errorf("got %d trades, want vetoed BUY and its SELL both dropped", len(managed))
	}
}
