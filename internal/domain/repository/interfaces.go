package repository

import (
	"context"
	"time"

	"PulseFeed/internal/domain/models"
)

// MarketFetcher supplies raw market, token and position data.
type MarketFetcher interface {
	FetchMarkets(ctx context.Context) (*models.MarketData, error)
	FetchTokens(ctx context.Context) ([]models.TokenInfo, error)
	FetchPositions(ctx context.Context, md *models.MarketData) ([]models.Position, error)
	FetchPositionsInfo(ctx context.Context, md *models.MarketData) ([]models.PositionInfo, error)
}

// CandleFetcher supplies OHLCV bars for volatility derivation.
type CandleFetcher interface {
	FetchCandles(ctx context.Context, asset, period string, limit int) ([]models.Candle, error)
}

// BoundsFetcher supplies forecast probability bounds for an asset.
// Implementations sit behind the cooldown gate; callers see only the result.
type BoundsFetcher interface {
	FetchBounds(ctx context.Context, asset string) (*models.ProbabilityBounds, error)
}

// SnapshotArchive receives every accepted snapshot for long-term storage
// outside the retention window. Failures are logged by the caller, never
// propagated to the append path.
type SnapshotArchive interface {
	Archive(ctx context.Context, asset string, snap models.Snapshot) error
	Name() string
	Close() error
}

// PriceStream exposes the latest observed spot price per asset.
type PriceStream interface {
	Run(ctx context.Context)
	Latest(asset string) (float64, bool)
	Close() error
}

// Metrics records operational counters for the freshness layer.
type Metrics interface {
	RecordCacheHit(resource string)
	RecordCacheMiss(resource string)
	RecordCoalescedWaiter(resource string)
	RecordFetch(resource string, d time.Duration, err error)
	RecordCooldownWait(endpoint string, d time.Duration)
	RecordPersistFailure()
	RecordArchiveError(backend string)
	SetSnapshotCount(asset string, n int)
}

// NopMetrics is a Metrics that records nothing. Used in tests and when
// metrics are disabled.
type NopMetrics struct{}

func (NopMetrics) RecordCacheHit(string)                       {}
func (NopMetrics) RecordCacheMiss(string)                      {}
func (NopMetrics) RecordCoalescedWaiter(string)                {}
func (NopMetrics) RecordFetch(string, time.Duration, error)    {}
func (NopMetrics) RecordCooldownWait(string, time.Duration)    {}
func (NopMetrics) RecordPersistFailure()                       {}
func (NopMetrics) RecordArchiveError(string)                   {}
func (NopMetrics) SetSnapshotCount(string, int)                {}
