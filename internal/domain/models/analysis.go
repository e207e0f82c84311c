package models

// Trend classifies the direction of the percentile history.
type Trend string

const (
	TrendRising  Trend = "rising"
	TrendFalling Trend = "falling"
	TrendStable  Trend = "stable"
)

// PercentilePoint is one historical percentile observation.
type PercentilePoint struct {
	Timestamp  int64   `json:"timestamp"`
	Percentile float64 `json:"percentile"`
	HoursAgo   float64 `json:"hours_ago"`
}

// PercentileAnalysis summarizes where a price sits across the retained
// forecast history. Derived on demand, never persisted.
type PercentileAnalysis struct {
	Asset             string            `json:"asset"`
	CurrentPrice      float64           `json:"current_price"`
	DataPoints        []PercentilePoint `json:"data_points"`
	Min               float64           `json:"min"`
	Max               float64           `json:"max"`
	Average           float64           `json:"average"`
	Median            float64           `json:"median"`
	Trend             Trend             `json:"trend"`
	TrendStrength     float64           `json:"trend_strength"`
	CurrentPercentile float64           `json:"current_percentile"`
	Range             float64           `json:"range"`
}

// NeutralAnalysis is the defined fallback when no snapshots fall inside the
// analysis window.
func NeutralAnalysis(asset string, currentPrice float64) PercentileAnalysis {
	return PercentileAnalysis{
		Asset:             asset,
		CurrentPrice:      currentPrice,
		DataPoints:        []PercentilePoint{},
		Min:               50,
		Max:               50,
		Average:           50,
		Median:            50,
		Trend:             TrendStable,
		TrendStrength:     0,
		CurrentPercentile: 50,
		Range:             0,
	}
}
