package indicators

import (
	"math"
)

// tradingDaysPerYear annualizes daily return volatility
const tradingDaysPerYear = 252

// RealizedVol computes annualized realized volatility as the sample standard
// deviation of daily log returns over the trailing window observations,
// scaled by sqrt(252). Returns false when fewer than two returns exist.
func RealizedVol(closes []float64, window int) (float64, bool) {
	returns := make([]float64, 0, window)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] <= 0 || closes[i] <= 0 {
			continue
		}
		returns = append(returns, math.Log(closes[i]/closes[i-1]))
	}
	if len(returns) > window {
		returns = returns[len(returns)-window:]
	}
	if len(returns) < 2 {
		return 0, false
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	var ss float64
	for _, r := range returns {
		d := r - mean
		ss += d * d
	}
	std := math.Sqrt(ss / float64(len(returns)-1))

	hv := std * math.Sqrt(tradingDaysPerYear)
	if math.IsNaN(hv) || math.IsInf(hv, 0) {
		return 0, false
	}
	return hv, true
}
