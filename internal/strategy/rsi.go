package strategy

import (
	"math"

	"tradesim/internal/model"
)

// Default RSI momentum parameters.
const (
	DefaultRSIPeriod     = 14
	DefaultRSIOversold   = 30
	DefaultRSIOverbought = 70
)

// RSIMomentum signals long when the RSI falls below the oversold threshold
// and short when it rises above the overbought threshold.
type RSIMomentum struct{}

// ID returns "rsi".
func (RSIMomentum) ID() string { return "rsi" }

// Generate computes the RSI signal. Recognised params: period, oversold,
// overbought.
func (RSIMomentum) Generate(candles []model.Candle, params Params) SignalSeries {
	period := params.Int("period", DefaultRSIPeriod)
	oversold := params.Float("oversold", DefaultRSIOversold)
	overbought := params.Float("overbought", DefaultRSIOverbought)

	rsi := wilderRSI(model.Closes(candles), period)

	direction := make([]int, len(candles))
	for i := range candles {
		if math.IsNaN(rsi[i]) {
			continue
		}
		switch {
		case rsi[i] < oversold:
			direction[i] = DirLong
		case rsi[i] > overbought:
			direction[i] = DirShort
		}
	}

	return SignalSeries{Direction: direction, Change: changesFrom(direction)}
}
