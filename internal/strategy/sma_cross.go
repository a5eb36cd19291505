package strategy

import (
	"math"

	"tradesim/internal/model"
)

// Default SMA crossover windows.
const (
	DefaultSMAShortWindow = 20
	DefaultSMALongWindow  = 50
)

// SMACross is the simple moving average crossover strategy: long while the
// short-window SMA is above the long-window SMA, short while below.
type SMACross struct{}

// ID returns "sma_cross".
func (SMACross) ID() string { return "sma_cross" }

// Generate computes the crossover signal. Recognised params: short_window,
// long_window.
func (SMACross) Generate(candles []model.Candle, params Params) SignalSeries {
	short := params.Int("short_window", DefaultSMAShortWindow)
	long := params.Int("long_window", DefaultSMALongWindow)

	closes := model.Closes(candles)
	smaShort := rollingSMA(closes, short)
	smaLong := rollingSMA(closes, long)

	direction := make([]int, len(candles))
	for i := range candles {
		if math.IsNaN(smaShort[i]) || math.IsNaN(smaLong[i]) {
			continue
		}
		switch {
		case smaShort[i] > smaLong[i]:
			direction[i] = DirLong
		case smaShort[i] < smaLong[i]:
			direction[i] = DirShort
		}
	}

	return SignalSeries{Direction: direction, Change: changesFrom(direction)}
}
