package strategy

import "math"

// rollingSMA returns the simple moving average over the trailing window for
// each index. Entries before the window has filled are NaN.
func rollingSMA(prices []float64, window int) []float64 {
	out := nanSeries(len(prices))
	if window <= 0 || len(prices) < window {
		return out
	}

	var sum float64
	for i, p := range prices {
		sum += p
		if i >= window {
			sum -= prices[i-window]
		}
		if i >= window-1 {
			out[i] = sum / float64(window)
		}
	}
	return out
}

// rollingStdDev returns the population standard deviation over the trailing
// window for each index, NaN until the window has filled.
func rollingStdDev(prices []float64, window int) []float64 {
	out := nanSeries(len(prices))
	if window <= 0 || len(prices) < window {
		return out
	}

	for i := window - 1; i < len(prices); i++ {
		var sum float64
		for j := i - window + 1; j <= i; j++ {
			sum += prices[j]
		}
		mean := sum / float64(window)

		var variance float64
		for j := i - window + 1; j <= i; j++ {
			diff := prices[j] - mean
			variance += diff * diff
		}
		out[i] = math.Sqrt(variance / float64(window))
	}
	return out
}

// emaSeries returns the exponential moving average series for the given
// period. The EMA is seeded with the SMA of the first period values, so
// entries before index period-1 are NaN.
func emaSeries(prices []float64, period int) []float64 {
	out := nanSeries(len(prices))
	if period <= 0 || len(prices) < period {
		return out
	}

	var sum float64
	for i := 0; i < period; i++ {
		sum += prices[i]
	}
	ema := sum / float64(period)
	out[period-1] = ema

	multiplier := 2.0 / float64(period+1)
	for i := period; i < len(prices); i++ {
		ema = (prices[i]-ema)*multiplier + ema
		out[i] = ema
	}
	return out
}

// wilderRSI returns the RSI series using Wilder smoothing. Entries before
// index period are NaN since the first period price changes seed the
// averages.
func wilderRSI(prices []float64, period int) []float64 {
	out := nanSeries(len(prices))
	if period <= 0 || len(prices) < period+1 {
		return out
	}

	var gains, losses float64
	for i := 1; i <= period; i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}
	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	out[period] = rsiValue(avgGain, avgLoss)

	for i := period + 1; i < len(prices); i++ {
		change := prices[i] - prices[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - (100.0 / (1.0 + rs))
}

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
