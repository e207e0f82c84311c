package analytics

import (
	"math"

	"PulseFeed/internal/domain/models"
)

// Slope magnitudes below this, in percentile points per hour, read as noise.
const stableSlopeThreshold = 0.5

// classifyTrend fits a simple linear regression of percentile against hours
// elapsed since the earliest point and classifies the slope. Strength is the
// R-squared of the fit, zero when fewer than two points exist.
func classifyTrend(points []models.PercentilePoint) (models.Trend, float64) {
	if len(points) < 2 {
		return models.TrendStable, 0
	}

	// Points arrive sorted ascending by timestamp, so the first is oldest.
	origin := points[0].HoursAgo
	n := float64(len(points))

	var sumX, sumY, sumXY, sumXX float64
	for _, p := range points {
		x := origin - p.HoursAgo
		y := p.Percentile
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return models.TrendStable, 0
	}
	slope := (n*sumXY - sumX*sumY) / denom
	intercept := (sumY - slope*sumX) / n

	meanY := sumY / n
	var ssTot, ssRes float64
	for _, p := range points {
		x := origin - p.HoursAgo
		pred := intercept + slope*x
		ssTot += (p.Percentile - meanY) * (p.Percentile - meanY)
		ssRes += (p.Percentile - pred) * (p.Percentile - pred)
	}

	strength := 0.0
	if ssTot > 0 {
		strength = math.Abs(1 - ssRes/ssTot)
		if strength > 1 {
			strength = 1
		}
	}

	switch {
	case math.Abs(slope) < stableSlopeThreshold:
		return models.TrendStable, strength
	case slope > 0:
		return models.TrendRising, strength
	default:
		return models.TrendFalling, strength
	}
}
