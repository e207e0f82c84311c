package analytics

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"PulseFeed/internal/domain/models"
	"PulseFeed/internal/store"
	applogger "PulseFeed/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 10, 10, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

func newTestEngine(t *testing.T, clock *fakeClock) (*Engine, *store.Store) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "snapshots.json")
	s := store.New(store.Config{Path: path, Retention: 7 * 24 * time.Hour}, applogger.Nop(), store.WithClock(clock.Now))
	t.Cleanup(func() { _ = s.Close() })
	return NewEngine(s, applogger.Nop(), WithClock(clock.Now)), s
}

// appendAt records a single-level distribution so that the percentile at
// that level's price equals pct.
func appendAt(s *store.Store, asset string, price, pct float64) {
	s.Append(asset, models.ProbabilityBounds{
		Asset:   asset,
		Horizon: "24h",
		Levels:  []models.BoundLevel{{Price: price, ProbabilityAbove: 1 - pct/100, ProbabilityBelow: pct / 100}},
	})
}

func TestAnalyzeScenario(t *testing.T) {
	clock := newFakeClock()
	engine, s := newTestEngine(t, clock)

	// Snapshots ending up 23h, 10h and 4h old at analysis time.
	appendAt(s, "BTC", 65000, 20)
	clock.Advance(13 * time.Hour)
	appendAt(s, "BTC", 65000, 50)
	clock.Advance(6 * time.Hour)
	appendAt(s, "BTC", 65000, 80)
	clock.Advance(4 * time.Hour)

	analysis := engine.Analyze("BTC", 65000)

	require.Len(t, analysis.DataPoints, 3)
	assert.Equal(t, 20.0, analysis.Min)
	assert.Equal(t, 80.0, analysis.Max)
	assert.Equal(t, 50.0, analysis.Average)
	assert.Equal(t, 50.0, analysis.Median)
	assert.Equal(t, 80.0, analysis.CurrentPercentile)
	assert.Equal(t, 60.0, analysis.Range)
	assert.Equal(t, models.TrendRising, analysis.Trend)
	assert.Greater(t, analysis.TrendStrength, 0.9)

	// Points are oldest first with correct ages.
	assert.InDelta(t, 23, analysis.DataPoints[0].HoursAgo, 0.01)
	assert.InDelta(t, 10, analysis.DataPoints[1].HoursAgo, 0.01)
	assert.InDelta(t, 4, analysis.DataPoints[2].HoursAgo, 0.01)
}

func TestAnalyzeEmptyStoreReturnsNeutral(t *testing.T) {
	clock := newFakeClock()
	engine, _ := newTestEngine(t, clock)

	analysis := engine.Analyze("BTC", 65000)
	assert.Equal(t, models.NeutralAnalysis("BTC", 65000), analysis)
}

func TestAnalyzeExcludesSnapshotsOutsideWindow(t *testing.T) {
	clock := newFakeClock()
	engine, s := newTestEngine(t, clock)

	appendAt(s, "BTC", 65000, 30) // will be 25h old, too stale
	clock.Advance(23 * time.Hour)
	appendAt(s, "BTC", 65000, 70) // will be 2h old, too fresh
	clock.Advance(2 * time.Hour)

	analysis := engine.Analyze("BTC", 65000)
	assert.Empty(t, analysis.DataPoints)
	assert.Equal(t, models.TrendStable, analysis.Trend)
	assert.Equal(t, 50.0, analysis.CurrentPercentile)
}

func TestAnalyzeFlatHistoryIsStable(t *testing.T) {
	clock := newFakeClock()
	engine, s := newTestEngine(t, clock)

	for i := 0; i < 3; i++ {
		appendAt(s, "ETH", 3500, 55)
		clock.Advance(5 * time.Hour)
	}

	analysis := engine.Analyze("ETH", 3500)
	require.NotEmpty(t, analysis.DataPoints)
	assert.Equal(t, models.TrendStable, analysis.Trend)
	assert.Equal(t, 0.0, analysis.Range)
}

func TestAnalyzeFallingTrend(t *testing.T) {
	clock := newFakeClock()
	engine, s := newTestEngine(t, clock)

	for _, pct := range []float64{90, 60, 30} {
		appendAt(s, "BTC", 65000, pct)
		clock.Advance(6 * time.Hour)
	}
	// Last append is now 6h old, first is 18h old.

	analysis := engine.Analyze("BTC", 65000)
	require.Len(t, analysis.DataPoints, 3)
	assert.Equal(t, models.TrendFalling, analysis.Trend)
	assert.Equal(t, 30.0, analysis.CurrentPercentile)
}

func TestPercentileForPrice(t *testing.T) {
	levels := []models.BoundLevel{
		{Price: 60000, ProbabilityAbove: 0.8, ProbabilityBelow: 0.2},
		{Price: 70000, ProbabilityAbove: 0.2, ProbabilityBelow: 0.8},
	}

	tests := []struct {
		name  string
		price float64
		want  float64
	}{
		{"at lower level", 60000, 20},
		{"at upper level", 70000, 80},
		{"midpoint interpolates", 65000, 50},
		{"quarter interpolates", 62500, 35},
		{"below range clamps", 50000, 20},
		{"above range clamps", 90000, 80},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, PercentileForPrice(levels, tt.price), 1e-9)
		})
	}
}

func TestPercentileForPriceEmptyLevels(t *testing.T) {
	assert.Equal(t, 50.0, PercentileForPrice(nil, 65000))
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 50.0, median([]float64{20, 50, 80}))
	assert.Equal(t, 35.0, median([]float64{20, 50}))
	assert.Equal(t, 42.0, median([]float64{42}))
}
