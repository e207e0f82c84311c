package ratelimit

import (
	"context"
	"sync"
	"time"

	"PulseFeed/internal/domain/repository"
)

// Cooldown enforces a minimum spacing between successive dispatches against
// one rate-limited endpoint. The spacing is measured dispatch-to-dispatch:
// the timestamp is claimed immediately before the wrapped call is issued and
// kept even when the call fails, so overlapping slow calls and error loops
// cannot compress the interval.
type Cooldown struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time

	endpoint string
	metrics  repository.Metrics
	now      func() time.Time
}

// Option configures Cooldown.
type Option func(*Cooldown)

// WithClock overrides the time source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(g *Cooldown) {
		g.now = now
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m repository.Metrics) Option {
	return func(g *Cooldown) {
		g.metrics = m
	}
}

// New creates a cooldown gate for one endpoint.
func New(endpoint string, interval time.Duration, opts ...Option) *Cooldown {
	g := &Cooldown{
		interval: interval,
		endpoint: endpoint,
		metrics:  repository.NopMetrics{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Guard waits out any remaining cooldown, claims the dispatch slot, then
// runs fn. The wait is a suspension of the calling goroutine only.
func (g *Cooldown) Guard(ctx context.Context, fn func(ctx context.Context) error) error {
	start := g.now()
	if err := g.reserve(ctx); err != nil {
		return err
	}
	if waited := g.now().Sub(start); waited > 0 {
		g.metrics.RecordCooldownWait(g.endpoint, waited)
	}
	return fn(ctx)
}

// reserve blocks until the cooldown has elapsed and claims the slot.
// Competing callers loop: whichever wins the slot pushes the others' wait
// forward by a full interval.
func (g *Cooldown) reserve(ctx context.Context) error {
	for {
		g.mu.Lock()
		now := g.now()
		wait := g.interval - now.Sub(g.last)
		if g.last.IsZero() || wait <= 0 {
			g.last = now
			g.mu.Unlock()
			return nil
		}
		g.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// LastDispatch reports when the slot was last claimed; zero if never.
func (g *Cooldown) LastDispatch() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.last
}
