// Package risk implements capital preservation rules for backtest runs:
// position sizing, stop-loss/take-profit checks, a drawdown ratchet that can
// halt trading, and advanced portfolio risk metrics.
package risk

import "math"

// Default risk parameters, matching the conventional 20%/5%/10%/20% setup.
const (
	DefaultMaxPositionSize = 0.2
	DefaultStopLossPct     = 0.05
	DefaultTakeProfitPct   = 0.10
	DefaultMaxDrawdownPct  = 0.20
)

// Position size derived from volatility is capped at a quarter of the base
// allocation (simplified Kelly criterion).
const kellyCap = 0.25

// A trade must offer at least this much reward per unit of risk.
const minRiskReward = 2.0

// Entry rejection reason codes. Rejections are decisions, not errors.
const (
	ReasonDrawdownExceeded    = "max_drawdown_exceeded"
	ReasonPoorRiskReward      = "poor_risk_reward"
	ReasonInsufficientCapital = "insufficient_capital"
)

// Config holds the tunable risk parameters for one Manager. Zero-valued
// fields fall back to the package defaults.
type Config struct {
	InitialCapital  float64
	MaxPositionSize float64
	StopLossPct     float64
	TakeProfitPct   float64
	MaxDrawdownPct  float64
}

func (c Config) withDefaults() Config {
	if c.MaxPositionSize <= 0 {
		c.MaxPositionSize = DefaultMaxPositionSize
	}
	if c.StopLossPct <= 0 {
		c.StopLossPct = DefaultStopLossPct
	}
	if c.TakeProfitPct <= 0 {
		c.TakeProfitPct = DefaultTakeProfitPct
	}
	if c.MaxDrawdownPct <= 0 {
		c.MaxDrawdownPct = DefaultMaxDrawdownPct
	}
	return c
}

// Manager tracks peak equity and drawdown across one backtest run and
// arbitrates trade entries. It must not be shared between runs: the peak
// ratchet is stateful and never resets.
type Manager struct {
	cfg Config

	peakValue       float64
	currentDrawdown float64
}

// NewManager creates a Manager seeded with the configured initial capital as
// the starting peak.
func NewManager(cfg Config) *Manager {
	cfg = cfg.withDefaults()
	return &Manager{
		cfg:       cfg,
		peakValue: cfg.InitialCapital,
	}
}

// Config returns the effective configuration after defaults were applied.
func (m *Manager) Config() Config { return m.cfg }

// PositionSize computes the number of shares for a new position: the
// configured fraction of capital at the current price, optionally reduced by
// a volatility-scaled Kelly fraction. Degenerate inputs yield 0 shares.
func (m *Manager) PositionSize(capital, price, volatility float64) int {
	if capital <= 0 || price <= 0 {
		return 0
	}

	maxInvestment := capital * m.cfg.MaxPositionSize
	shares := int(maxInvestment / price)

	if volatility > 0 {
		kelly := math.Min(kellyCap, 1/volatility)
		shares = int(float64(shares) * kelly)
	}

	if shares < 0 {
		return 0
	}
	return shares
}

// CheckStopLoss reports whether the loss from entry to current price has
// reached the stop-loss threshold.
func (m *Manager) CheckStopLoss(entryPrice, currentPrice float64) bool {
	lossPct := (entryPrice - currentPrice) / entryPrice
	return lossPct >= m.cfg.StopLossPct
}

// CheckTakeProfit reports whether the gain from entry to current price has
// reached the take-profit threshold.
func (m *Manager) CheckTakeProfit(entryPrice, currentPrice float64) bool {
	profitPct := (currentPrice - entryPrice) / entryPrice
	return profitPct >= m.cfg.TakeProfitPct
}

// DrawdownStatus reports the state of the drawdown ratchet after an update.
type DrawdownStatus struct {
	Drawdown    float64 `json:"current_drawdown"`
	MaxDrawdown float64 `json:"max_drawdown"`
	PeakValue   float64 `json:"peak_value"`
	HaltTrading bool    `json:"halt_trading"`
}

// UpdateDrawdown records a new portfolio value, raising the peak when
// exceeded (the peak never falls), and reports whether the drawdown limit
// has been breached.
func (m *Manager) UpdateDrawdown(currentValue float64) DrawdownStatus {
	if currentValue > m.peakValue {
		m.peakValue = currentValue
	}
	m.currentDrawdown = (m.peakValue - currentValue) / m.peakValue

	return DrawdownStatus{
		Drawdown:    m.currentDrawdown,
		MaxDrawdown: m.cfg.MaxDrawdownPct,
		PeakValue:   m.peakValue,
		HaltTrading: m.currentDrawdown >= m.cfg.MaxDrawdownPct,
	}
}

// RiskRewardRatio computes potential profit per unit of potential loss for
// a proposed trade. Returns 0 when the potential loss is not positive.
func RiskRewardRatio(entryPrice, targetPrice, stopLossPrice float64) float64 {
	potentialProfit := targetPrice - entryPrice
	potentialLoss := entryPrice - stopLossPrice

	if potentialLoss <= 0 {
		return 0
	}
	return potentialProfit / potentialLoss
}

// EntryDecision is the outcome of an entry check. When Enter is false the
// Reason code explains the veto; the engine skips the trade and continues.
type EntryDecision struct {
	Enter         bool    `json:"enter"`
	Reason        string  `json:"reason,omitempty"`
	Drawdown      float64 `json:"drawdown,omitempty"`
	RiskReward    float64 `json:"risk_reward,omitempty"`
	Shares        int     `json:"position_size,omitempty"`
	StopLossPrice float64 `json:"stop_loss_price,omitempty"`
	MaxLoss       float64 `json:"max_loss,omitempty"`
}

// ShouldEnter decides whether a new position may be opened. It updates the
// drawdown ratchet with the current capital, requires the minimum
// risk/reward ratio against the stop-loss price, and sizes the position.
func (m *Manager) ShouldEnter(capital, entryPrice, targetPrice float64) EntryDecision {
	stopLossPrice := entryPrice * (1 - m.cfg.StopLossPct)

	status := m.UpdateDrawdown(capital)
	if status.HaltTrading {
		return EntryDecision{
			Reason:   ReasonDrawdownExceeded,
			Drawdown: status.Drawdown,
		}
	}

	riskReward := RiskRewardRatio(entryPrice, targetPrice, stopLossPrice)
	if riskReward < minRiskReward {
		return EntryDecision{
			Reason:     ReasonPoorRiskReward,
			RiskReward: riskReward,
		}
	}

	shares := m.PositionSize(capital, entryPrice, 0)
	if shares == 0 {
		return EntryDecision{Reason: ReasonInsufficientCapital}
	}

	return EntryDecision{
		Enter:         true,
		Shares:        shares,
		StopLossPrice: stopLossPrice,
		RiskReward:    riskReward,
		MaxLoss:       float64(shares) * entryPrice * m.cfg.StopLossPct,
	}
}
