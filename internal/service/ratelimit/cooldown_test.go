package ratelimit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuardSpacesSequentialCalls(t *testing.T) {
	const interval = 60 * time.Millisecond
	g := New("test", interval)

	var dispatches []time.Time
	record := func(ctx context.Context) error {
		dispatches = append(dispatches, time.Now())
		return nil
	}

	require.NoError(t, g.Guard(context.Background(), record))
	require.NoError(t, g.Guard(context.Background(), record))

	require.Len(t, dispatches, 2)
	assert.GreaterOrEqual(t, dispatches[1].Sub(dispatches[0]), interval-5*time.Millisecond)
}

func TestGuardSpacesOverlappingSlowCalls(t *testing.T) {
	const interval = 60 * time.Millisecond
	g := New("test", interval)

	var mu sync.Mutex
	var dispatches []time.Time
	slow := func(ctx context.Context) error {
		mu.Lock()
		dispatches = append(dispatches, time.Now())
		mu.Unlock()
		time.Sleep(2 * interval) // call takes longer than the cooldown
		return nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = g.Guard(context.Background(), slow)
		}()
	}
	wg.Wait()

	require.Len(t, dispatches, 3)
	for i := 1; i < len(dispatches); i++ {
		assert.GreaterOrEqual(t, dispatches[i].Sub(dispatches[i-1]), interval-5*time.Millisecond,
			"dispatch %d too close to previous", i)
	}
}

func TestGuardKeepsTimestampOnFailure(t *testing.T) {
	const interval = 60 * time.Millisecond
	g := New("test", interval)

	boom := errors.New("upstream error")
	var first, second time.Time

	err := g.Guard(context.Background(), func(ctx context.Context) error {
		first = time.Now()
		return boom
	})
	assert.ErrorIs(t, err, boom)

	require.NoError(t, g.Guard(context.Background(), func(ctx context.Context) error {
		second = time.Now()
		return nil
	}))

	// The failed call still claimed the slot, so the second waits it out.
	assert.GreaterOrEqual(t, second.Sub(first), interval-5*time.Millisecond)
}

func TestGuardFirstCallIsImmediate(t *testing.T) {
	g := New("test", time.Minute)

	start := time.Now()
	require.NoError(t, g.Guard(context.Background(), func(ctx context.Context) error { return nil }))
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestGuardHonorsContextCancellation(t *testing.T) {
	g := New("test", time.Minute)
	require.NoError(t, g.Guard(context.Background(), func(ctx context.Context) error { return nil }))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := g.Guard(ctx, func(ctx context.Context) error {
		t.Fatal("fn must not run after cancellation")
		return nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
