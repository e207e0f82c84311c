package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"PulseFeed/internal/domain/models"
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

func testBounds(asset string) models.ProbabilityBounds {
	return models.ProbabilityBounds{
		Asset:   asset,
		Horizon: "24h",
		Levels: []models.BoundLevel{
			{Price: 60000, ProbabilityAbove: 0.8, ProbabilityBelow: 0.2},
			{Price: 70000, ProbabilityAbove: 0.2, ProbabilityBelow: 0.8},
		},
	}
}

func newTestStore(t *testing.T, clock *fakeClock) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "snapshots.json")
	s := New(Config{Path: path, Retention: 7 * 24 * time.Hour}, applogger.Nop(), WithClock(clock.Now))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestAppendKeepsInsertionOrder(t *testing.T) {
	clock := newFakeClock()
	s := newTestStore(t, clock)

	first := s.Append("BTC", testBounds("BTC"))
	clock.Advance(time.Hour)
	second := s.Append("BTC", testBounds("BTC"))

	seq := s.Snapshots("BTC")
	require.Len(t, seq, 2)
	assert.Equal(t, first.Timestamp, seq[0].Timestamp)
	assert.Equal(t, second.Timestamp, seq[1].Timestamp)
	assert.Equal(t, time.Hour.Milliseconds(), second.Timestamp-first.Timestamp)
}

func TestPersistenceRoundTrip(t *testing.T) {
	clock := newFakeClock()
	path := filepath.Join(t.TempDir(), "snapshots.json")

	s := New(Config{Path: path, Retention: 7 * 24 * time.Hour}, applogger.Nop(), WithClock(clock.Now))
	s.Append("BTC", testBounds("BTC"))
	clock.Advance(time.Hour)
	s.Append("ETH", testBounds("ETH"))
	require.NoError(t, s.Close())

	reloaded := New(Config{Path: path, Retention: 7 * 24 * time.Hour}, applogger.Nop(), WithClock(clock.Now))
	t.Cleanup(func() { _ = reloaded.Close() })
	reloaded.Load()

	assert.Equal(t, []string{"BTC", "ETH"}, reloaded.Assets())
	assert.Equal(t, s.Snapshots("BTC"), reloaded.Snapshots("BTC"))
	assert.Equal(t, s.Snapshots("ETH"), reloaded.Snapshots("ETH"))
}

func TestLoadMissingFileStartsEmpty(t *testing.T) {
	clock := newFakeClock()
	s := newTestStore(t, clock)
	s.Load()
	assert.Empty(t, s.Assets())
}

func TestLoadCorruptFileStartsEmpty(t *testing.T) {
	clock := newFakeClock()
	path := filepath.Join(t.TempDir(), "snapshots.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s := New(Config{Path: path, Retention: 7 * 24 * time.Hour}, applogger.Nop(), WithClock(clock.Now))
	t.Cleanup(func() { _ = s.Close() })
	s.Load()
	assert.Empty(t, s.Assets())
}

func TestLoadVersionMismatchStartsEmpty(t *testing.T) {
	clock := newFakeClock()
	path := filepath.Join(t.TempDir(), "snapshots.json")

	doc := models.StoreDocument{
		Version: "0",
		Snapshots: map[string][]models.Snapshot{
			"BTC": {{Timestamp: clock.Now().UnixMilli(), Bounds: testBounds("BTC")}},
		},
	}
	b, err := json.Marshal(&doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o644))

	s := New(Config{Path: path, Retention: 7 * 24 * time.Hour}, applogger.Nop(), WithClock(clock.Now))
	t.Cleanup(func() { _ = s.Close() })
	s.Load()
	assert.Empty(t, s.Assets())
}

func TestRetentionPruning(t *testing.T) {
	clock := newFakeClock()
	s := newTestStore(t, clock)

	old := s.Append("BTC", testBounds("BTC"))
	clock.Advance(8 * 24 * time.Hour) // past the 7d retention window
	recent := s.Append("BTC", testBounds("BTC"))

	seq := s.Snapshots("BTC")
	require.Len(t, seq, 1)
	assert.Equal(t, recent.Timestamp, seq[0].Timestamp)
	assert.NotEqual(t, old.Timestamp, seq[0].Timestamp)

	// Pruning again with no time passed is a no-op.
	s.Prune()
	assert.Len(t, s.Snapshots("BTC"), 1)
}

func TestNearest(t *testing.T) {
	clock := newFakeClock()
	s := newTestStore(t, clock)

	// Build snapshots at fixed timestamps by loading a crafted document.
	base := clock.Now().UnixMilli()
	for _, offset := range []int64{100, 200, 400} {
		s.mu.Lock()
		s.snapshots["BTC"] = append(s.snapshots["BTC"], models.Snapshot{
			Timestamp: base + offset,
			Bounds:    testBounds("BTC"),
		})
		s.mu.Unlock()
	}

	snap, ok := s.Nearest("BTC", base+250)
	require.True(t, ok)
	assert.Equal(t, base+200, snap.Timestamp)

	// Exact tie goes to the earlier entry in stored order.
	snap, ok = s.Nearest("BTC", base+300)
	require.True(t, ok)
	assert.Equal(t, base+200, snap.Timestamp)

	_, ok = s.Nearest("ETH", base)
	assert.False(t, ok)
}

func TestQueryFiltersByTimestamp(t *testing.T) {
	clock := newFakeClock()
	s := newTestStore(t, clock)

	s.Append("BTC", testBounds("BTC"))
	clock.Advance(time.Hour)
	s.Append("BTC", testBounds("BTC"))
	clock.Advance(time.Hour)
	cut := clock.Now().UnixMilli()
	clock.Advance(time.Hour)
	s.Append("BTC", testBounds("BTC"))

	recent := s.Query("BTC", func(ts int64) bool { return ts > cut })
	assert.Len(t, recent, 1)
	all := s.Query("BTC", func(ts int64) bool { return true })
	assert.Len(t, all, 3)
}

func TestSufficiency(t *testing.T) {
	clock := newFakeClock()
	s := newTestStore(t, clock)

	report := s.Sufficiency("BTC", 2, 12)
	assert.False(t, report.OK)
	assert.Zero(t, report.Count)

	s.Append("BTC", testBounds("BTC"))
	clock.Advance(13 * time.Hour)
	s.Append("BTC", testBounds("BTC"))

	report = s.Sufficiency("BTC", 2, 12)
	assert.True(t, report.OK)
	assert.Equal(t, 2, report.Count)
	assert.InDelta(t, 13, report.OldestHours, 0.01)

	// Enough age but not enough entries.
	report = s.Sufficiency("BTC", 3, 12)
	assert.False(t, report.OK)
}

func TestHealthReportsPersistOutcome(t *testing.T) {
	clock := newFakeClock()
	s := newTestStore(t, clock)

	s.Append("BTC", testBounds("BTC"))
	require.NoError(t, s.Flush())

	h := s.Health()
	assert.NotZero(t, h.LastPersist)
	assert.Empty(t, h.LastError)
}

func TestCrashSafeWriteLeavesNoTempFile(t *testing.T) {
	clock := newFakeClock()
	path := filepath.Join(t.TempDir(), "snapshots.json")
	s := New(Config{Path: path, Retention: 7 * 24 * time.Hour}, applogger.Nop(), WithClock(clock.Now))
	t.Cleanup(func() { _ = s.Close() })

	s.Append("BTC", testBounds("BTC"))
	require.NoError(t, s.Close())

	_, err := os.Stat(path)
	require.NoError(t, err)
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}
