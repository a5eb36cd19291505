package strategy

import (
	"math"

	"tradesim/internal/model"
)

// Standard MACD periods. The MACD strategy takes no parameters.
const (
	macdFastPeriod   = 12
	macdSlowPeriod   = 26
	macdSignalPeriod = 9
)

// MACD signals long while the MACD line is above its signal line and short
// while below.
type MACD struct{}

// ID returns "macd".
func (MACD) ID() string { return "macd" }

// Generate computes the MACD signal using the standard 12/26/9 periods.
func (MACD) Generate(candles []model.Candle, _ Params) SignalSeries {
	closes := model.Closes(candles)
	macdLine, signalLine := macdLines(closes)

	direction := make([]int, len(candles))
	for i := range candles {
		if math.IsNaN(macdLine[i]) || math.IsNaN(signalLine[i]) {
			continue
		}
		switch {
		case macdLine[i] > signalLine[i]:
			direction[i] = DirLong
		case macdLine[i] < signalLine[i]:
			direction[i] = DirShort
		}
	}

	return SignalSeries{Direction: direction, Change: changesFrom(direction)}
}

// macdLines returns the MACD line (fast EMA - slow EMA) and its signal line
// (EMA of the MACD line), both NaN until their warmup completes.
func macdLines(closes []float64) (macdLine, signalLine []float64) {
	fast := emaSeries(closes, macdFastPeriod)
	slow := emaSeries(closes, macdSlowPeriod)

	macdLine = nanSeries(len(closes))
	for i := range closes {
		if !math.IsNaN(fast[i]) && !math.IsNaN(slow[i]) {
			macdLine[i] = fast[i] - slow[i]
		}
	}

	signalLine = nanSeries(len(closes))
	if len(closes) < macdSlowPeriod {
		return macdLine, signalLine
	}

	// The signal line is an EMA over the defined portion of the MACD line,
	// which starts where the slow EMA first exists.
	defined := macdLine[macdSlowPeriod-1:]
	signal := emaSeries(defined, macdSignalPeriod)
	copy(signalLine[macdSlowPeriod-1:], signal)

	return macdLine, signalLine
}
