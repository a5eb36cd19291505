package risk

import (
	"math"
	"sort"
)

// DefaultConfidence is the confidence level used for VaR and CVaR when the
// caller does not specify one.
const DefaultConfidence = 0.95

// TradingDaysPerYear is the usual annualization period for daily returns.
const TradingDaysPerYear = 252

// ValueAtRisk returns the (1-confidence) percentile of the return
// distribution, linearly interpolated between observations. With the default
// 95% confidence this is the 5th percentile: the loss not exceeded in 95% of
// periods.
func ValueAtRisk(returns []float64, confidence float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	return percentile(returns, (1-confidence)*100)
}

// ConditionalVaR returns the mean of all returns at or below the VaR
// threshold (expected shortfall).
func ConditionalVaR(returns []float64, confidence float64) float64 {
	if len(returns) == 0 {
		return 0
	}

	threshold := ValueAtRisk(returns, confidence)
	var sum float64
	var count int
	for _, r := range returns {
		if r <= threshold {
			sum += r
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// SortinoRatio is the annualized mean excess return over the downside
// deviation (root mean square of the negative excess returns only). Returns
// 0 when there are no downside observations or the downside deviation is 0.
func SortinoRatio(returns []float64, riskFreeRate float64, periodsPerYear int) float64 {
	if len(returns) == 0 {
		return 0
	}

	perPeriodRate := riskFreeRate / float64(periodsPerYear)
	excess := make([]float64, len(returns))
	var downsideSquares float64
	var downsideCount int
	for i, r := range returns {
		excess[i] = r - perPeriodRate
		if excess[i] < 0 {
			downsideSquares += excess[i] * excess[i]
			downsideCount++
		}
	}

	if downsideCount == 0 {
		return 0
	}
	downsideDev := math.Sqrt(downsideSquares / float64(downsideCount))
	if downsideDev == 0 {
		return 0
	}

	return mean(excess) / downsideDev * math.Sqrt(float64(periodsPerYear))
}

// CalmarRatio is the annualized compounded return divided by the maximum
// drawdown of the cumulative return curve. Returns 0 when the curve never
// draws down.
func CalmarRatio(returns []float64, periodsPerYear int) float64 {
	if len(returns) == 0 {
		return 0
	}

	cumulative := make([]float64, len(returns))
	value := 1.0
	for i, r := range returns {
		value *= 1 + r
		cumulative[i] = value
	}

	maxDrawdown := 0.0
	peak := cumulative[0]
	for _, v := range cumulative {
		if v > peak {
			peak = v
		}
		drawdown := (peak - v) / peak
		if drawdown > maxDrawdown {
			maxDrawdown = drawdown
		}
	}
	if maxDrawdown == 0 {
		return 0
	}

	annualized := math.Pow(cumulative[len(cumulative)-1], float64(periodsPerYear)/float64(len(returns))) - 1
	return annualized / maxDrawdown
}

// Beta measures systematic risk as the covariance of asset and market
// returns over the market variance. Returns 0 when the market variance is 0
// or the series lengths differ.
func Beta(assetReturns, marketReturns []float64) float64 {
	if len(assetReturns) != len(marketReturns) || len(assetReturns) < 2 {
		return 0
	}

	marketVariance := variance(marketReturns)
	if marketVariance == 0 {
		return 0
	}
	return covariance(assetReturns, marketReturns) / marketVariance
}

// InformationRatio is the mean active return (portfolio minus benchmark)
// over the tracking error. Returns 0 when the tracking error is 0.
func InformationRatio(portfolioReturns, benchmarkReturns []float64) float64 {
	if len(portfolioReturns) != len(benchmarkReturns) || len(portfolioReturns) == 0 {
		return 0
	}

	active := make([]float64, len(portfolioReturns))
	for i := range portfolioReturns {
		active[i] = portfolioReturns[i] - benchmarkReturns[i]
	}

	trackingError := stdDev(active)
	if trackingError == 0 {
		return 0
	}
	return mean(active) / trackingError
}

// percentile returns the q-th percentile (0-100) of values, linearly
// interpolating between the two nearest observations.
func percentile(values []float64, q float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	if q <= 0 {
		return sorted[0]
	}
	if q >= 100 {
		return sorted[len(sorted)-1]
	}

	pos := q / 100 * float64(len(sorted)-1)
	lower := int(math.Floor(pos))
	upper := int(math.Ceil(pos))
	if lower == upper {
		return sorted[lower]
	}
	frac := pos - float64(lower)
	return sorted[lower]*(1-frac) + sorted[upper]*frac
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stdDev is the sample standard deviation (n-1 denominator).
func stdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	var sumSquaredDiff float64
	for _, v := range values {
		diff := v - m
		sumSquaredDiff += diff * diff
	}
	return math.Sqrt(sumSquaredDiff / float64(len(values)-1))
}

// variance is the sample variance (n-1 denominator).
func variance(values []float64) float64 {
	sd := stdDev(values)
	return sd * sd
}

// covariance is the sample covariance of two equal-length series.
func covariance(a, b []float64) float64 {
	if len(a) < 2 {
		return 0
	}
	meanA, meanB := mean(a), mean(b)
	var sum float64
	for i := range a {
		sum += (a[i] - meanA) * (b[i] - meanB)
	}
	return sum / float64(len(a)-1)
}
