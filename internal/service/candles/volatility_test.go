package candles

import (
	"math"
	"testing"

	"PulseFeed/internal/domain/models"

	"github.com/stretchr/testify/assert"
)

func closes(prices ...float64) []models.Candle {
	out := make([]models.Candle, len(prices))
	for i, p := range prices {
		out[i] = models.Candle{Timestamp: int64(i) * 60_000, Close: p}
	}
	return out
}

func TestVolatilityConstantPriceIsZero(t *testing.T) {
	assert.Equal(t, 0.0, Volatility(closes(100, 100, 100, 100)))
}

func TestVolatilityKnownSeries(t *testing.T) {
	// Log returns of 100, 110, 99 are ln(1.1) and ln(0.9); the sample
	// stdev of two values a, b is |a-b|/sqrt(2).
	a, b := math.Log(1.1), math.Log(0.9)
	want := math.Abs(a-b) / math.Sqrt2
	assert.InDelta(t, want, Volatility(closes(100, 110, 99)), 1e-12)
}

func TestVolatilitySkipsNonPositiveCloses(t *testing.T) {
	// The zero close breaks the chain; only one return remains.
	assert.Equal(t, 0.0, Volatility(closes(100, 0, 110, 121)))
}

func TestVolatilityTooFewCandles(t *testing.T) {
	assert.Equal(t, 0.0, Volatility(nil))
	assert.Equal(t, 0.0, Volatility(closes(100)))
	assert.Equal(t, 0.0, Volatility(closes(100, 110)))
}
