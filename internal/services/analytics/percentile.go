package analytics

import (
	"sort"
	"time"

	"PulseFeed/internal/domain/models"
	"PulseFeed/internal/store"
	applogger "PulseFeed/pkg/logger"
	"PulseFeed/pkg/util"
)

// Analysis window: snapshots younger than windowMin are too noisy for the
// 24h forecast horizon, snapshots older than windowMax are stale.
const (
	windowMin = 3 * time.Hour
	windowMax = 24 * time.Hour
)

// Engine derives percentile statistics and a trend classification from the
// snapshot history. It holds no state of its own: every Analyze call reads
// the store fresh.
type Engine struct {
	store *store.Store
	log   *applogger.Logger
	now   func() time.Time
}

type Option func(*Engine)

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(s *store.Store, log *applogger.Logger, opts ...Option) *Engine {
	e := &Engine{store: s, log: log, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Analyze reports where currentPrice sits within the asset's forecast
// history. Snapshots strictly between 3 and 24 hours old are converted to
// percentiles at currentPrice and summarized. An empty window yields the
// neutral default; Analyze never fails.
func (e *Engine) Analyze(asset string, currentPrice float64) models.PercentileAnalysis {
	nowMs := util.UnixMs(e.now())
	minAge := windowMin.Milliseconds()
	maxAge := windowMax.Milliseconds()

	selected := e.store.Query(asset, func(ts int64) bool {
		age := nowMs - ts
		return age > minAge && age < maxAge
	})
	if len(selected) == 0 {
		return models.NeutralAnalysis(asset, currentPrice)
	}

	points := make([]models.PercentilePoint, 0, len(selected))
	for _, snap := range selected {
		points = append(points, models.PercentilePoint{
			Timestamp:  snap.Timestamp,
			Percentile: PercentileForPrice(snap.Bounds.Levels, currentPrice),
			HoursAgo:   util.HoursBetween(snap.Timestamp, nowMs),
		})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Timestamp < points[j].Timestamp })

	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.Percentile
	}

	min, max := values[0], values[0]
	sum := 0.0
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		sum += v
	}

	trend, strength := classifyTrend(points)

	return models.PercentileAnalysis{
		Asset:             asset,
		CurrentPrice:      currentPrice,
		DataPoints:        points,
		Min:               min,
		Max:               max,
		Average:           sum / float64(len(values)),
		Median:            median(values),
		Trend:             trend,
		TrendStrength:     strength,
		CurrentPercentile: points[len(points)-1].Percentile,
		Range:             max - min,
	}
}

// PercentileForPrice evaluates a forecast distribution at the given price,
// returning the probability mass below it scaled to 0..100. Between levels
// the value is linearly interpolated; outside the level range it clamps to
// the nearest level.
func PercentileForPrice(levels []models.BoundLevel, price float64) float64 {
	if len(levels) == 0 {
		return 50
	}

	sorted := append([]models.BoundLevel(nil), levels...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Price < sorted[j].Price })

	if price <= sorted[0].Price {
		return clampPercentile(sorted[0].ProbabilityBelow * 100)
	}
	last := sorted[len(sorted)-1]
	if price >= last.Price {
		return clampPercentile(last.ProbabilityBelow * 100)
	}

	for i := 1; i < len(sorted); i++ {
		lo, hi := sorted[i-1], sorted[i]
		if price > hi.Price {
			continue
		}
		span := hi.Price - lo.Price
		if span == 0 {
			return clampPercentile(hi.ProbabilityBelow * 100)
		}
		frac := (price - lo.Price) / span
		p := lo.ProbabilityBelow + frac*(hi.ProbabilityBelow-lo.ProbabilityBelow)
		return clampPercentile(p * 100)
	}
	return clampPercentile(last.ProbabilityBelow * 100)
}

func clampPercentile(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
