package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

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

func newTestCache(clock *fakeClock) *FreshCache {
	ttls := DefaultTTLs()
	return New(ttls, applogger.Nop(), WithClock(clock.Now))
}

func TestGetCachesWithinTTL(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(clock)

	var calls int32
	fetch := func(ctx context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		return "v1", nil
	}

	v, err := c.Get(context.Background(), ResourceTokens, false, fetch)
	require.NoError(t, err)
	assert.Equal(t, "v1", v)

	// Just under the TTL: served from cache, no second fetch.
	clock.Advance(time.Minute - time.Millisecond)
	v, err = c.Get(context.Background(), ResourceTokens, false, fetch)
	require.NoError(t, err)
	assert.Equal(t, "v1", v)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	// Past the TTL: refetched.
	clock.Advance(2 * time.Millisecond)
	_, err = c.Get(context.Background(), ResourceTokens, false, fetch)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGetCoalescesConcurrentCallers(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(clock)

	var calls int32
	started := make(chan struct{})
	release := make(chan struct{})
	fetch := func(ctx context.Context) (any, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			close(started)
		}
		<-release
		return 42, nil
	}

	const n = 10
	results := make([]any, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = c.Get(context.Background(), ResourceMarkets, false, fetch)
		}(i)
	}

	<-started
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, 42, results[i])
	}
}

func TestGetPropagatesFailureToAllWaiters(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(clock)

	boom := errors.New("upstream down")
	var calls int32
	started := make(chan struct{})
	release := make(chan struct{})
	fetch := func(ctx context.Context) (any, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			close(started)
		}
		<-release
		return nil, boom
	}

	const n = 5
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.Get(context.Background(), ResourcePositions, false, fetch)
		}(i)
	}
	<-started
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for i := 0; i < n; i++ {
		assert.ErrorIs(t, errs[i], boom)
	}

	// Failures are never cached: the next call fetches again.
	ok := func(ctx context.Context) (any, error) { return "recovered", nil }
	v, err := c.Get(context.Background(), ResourcePositions, false, ok)
	require.NoError(t, err)
	assert.Equal(t, "recovered", v)
}

func TestInvalidateForcesRefetch(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(clock)

	var calls int32
	fetch := func(ctx context.Context) (any, error) {
		return atomic.AddInt32(&calls, 1), nil
	}

	_, err := c.Get(context.Background(), ResourceTokens, false, fetch)
	require.NoError(t, err)

	// Entry is still inside its TTL window.
	clock.Advance(time.Second)
	c.Invalidate(ResourceTokens)

	v, err := c.Get(context.Background(), ResourceTokens, false, fetch)
	require.NoError(t, err)
	assert.Equal(t, int32(2), v)
}

func TestInvalidateAllClearsEveryResource(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(clock)

	fetch := func(ctx context.Context) (any, error) { return 1, nil }
	_, _ = c.Get(context.Background(), ResourceTokens, false, fetch)
	_, _ = c.Get(context.Background(), VolatilityKey("BTC"), false, fetch)

	c.InvalidateAll()
	assert.Empty(t, c.Ages())
}

func TestForceRefreshSkipsFreshEntry(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(clock)

	var calls int32
	fetch := func(ctx context.Context) (any, error) {
		return atomic.AddInt32(&calls, 1), nil
	}

	_, _ = c.Get(context.Background(), ResourceMarkets, false, fetch)
	v, err := c.Get(context.Background(), ResourceMarkets, true, fetch)
	require.NoError(t, err)
	assert.Equal(t, int32(2), v)
}

func TestKeysAreIndependent(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(clock)

	var btcCalls, ethCalls int32
	btc := func(ctx context.Context) (any, error) { return atomic.AddInt32(&btcCalls, 1), nil }
	eth := func(ctx context.Context) (any, error) { return atomic.AddInt32(&ethCalls, 1), nil }

	_, _ = c.Get(context.Background(), VolatilityKey("BTC"), false, btc)
	_, _ = c.Get(context.Background(), VolatilityKey("ETH"), false, eth)

	c.Invalidate(VolatilityKey("BTC"))
	_, _ = c.Get(context.Background(), VolatilityKey("BTC"), false, btc)
	_, _ = c.Get(context.Background(), VolatilityKey("ETH"), false, eth)

	assert.Equal(t, int32(2), atomic.LoadInt32(&btcCalls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&ethCalls))
}

func TestStatusReportsFreshness(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(clock)

	fetch := func(ctx context.Context) (any, error) { return "v", nil }
	_, _ = c.Get(context.Background(), ResourceTokens, false, fetch)

	st := c.Status()
	require.Contains(t, st, ResourceTokens)
	assert.True(t, st[ResourceTokens].Exists)
	assert.True(t, st[ResourceTokens].Fresh)
	assert.False(t, st[ResourceMarkets].Exists)
	assert.False(t, st[ResourceMarkets].Fresh)

	clock.Advance(2 * time.Minute)
	st = c.Status()
	assert.True(t, st[ResourceTokens].Exists)
	assert.False(t, st[ResourceTokens].Fresh)
	assert.Equal(t, int64(2*60*1000), st[ResourceTokens].AgeMs)
}

func TestGetTyped(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(clock)

	v, err := GetTyped(context.Background(), c, ResourceTokens, false, func(ctx context.Context) ([]string, error) {
		return []string{"BTC", "ETH"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"BTC", "ETH"}, v)
}
