package strategy

import (
	"math"

	"tradesim/internal/model"
)

// Default Bollinger band parameters.
const (
	DefaultBBPeriod = 20
	DefaultBBStdDev = 2.0
)

// Bollinger is a mean reversion strategy: long when the close drops below
// the lower band, short when it rises above the upper band.
type Bollinger struct{}

// ID returns "bollinger".
func (Bollinger) ID() string { return "bollinger" }

// Generate computes the Bollinger band signal. Recognised params: period,
// std_dev.
func (Bollinger) Generate(candles []model.Candle, params Params) SignalSeries {
	period := params.Int("period", DefaultBBPeriod)
	mult := params.Float("std_dev", DefaultBBStdDev)

	closes := model.Closes(candles)
	middle := rollingSMA(closes, period)
	sd := rollingStdDev(closes, period)

	direction := make([]int, len(candles))
	for i := range candles {
		if math.IsNaN(middle[i]) || math.IsNaN(sd[i]) {
			continue
		}
		upper := middle[i] + sd[i]*mult
		lower := middle[i] - sd[i]*mult
		switch {
		case closes[i] < lower:
			direction[i] = DirLong
		case closes[i] > upper:
			direction[i] = DirShort
		}
	}

	return SignalSeries{Direction: direction, Change: changesFrom(direction)}
}
