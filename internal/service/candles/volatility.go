package candles

import (
	"math"

	"PulseFeed/internal/domain/models"
)

// Volatility is the sample standard deviation of log returns over the
// candle closes. Returned raw (per candle period); annualization is the
// caller's concern. Fewer than two usable closes yield zero.
func Volatility(candles []models.Candle) float64 {
	returns := logReturns(candles)
	if len(returns) < 2 {
		return 0
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	var ss float64
	for _, r := range returns {
		ss += (r - mean) * (r - mean)
	}
	return math.Sqrt(ss / float64(len(returns)-1))
}

func logReturns(candles []models.Candle) []float64 {
	out := make([]float64, 0, len(candles))
	for i := 1; i < len(candles); i++ {
		prev, cur := candles[i-1].Close, candles[i].Close
		if prev <= 0 || cur <= 0 {
			continue
		}
		out = append(out, math.Log(cur/prev))
	}
	return out
}
