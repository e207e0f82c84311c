package usecase

import (
	"context"

	"PulseFeed/internal/domain/models"
	drepo "PulseFeed/internal/domain/repository"
	svccache "PulseFeed/internal/service/cache"
	"PulseFeed/internal/service/candles"
	"PulseFeed/internal/store"
	applogger "PulseFeed/pkg/logger"
)

// MarketData is the single entry point consumers use to read market state.
// Every getter goes through the freshness cache; callers never talk to an
// upstream directly and never observe a missing value because of staleness.
type MarketData struct {
	cache   *svccache.FreshCache
	markets drepo.MarketFetcher
	candles drepo.CandleFetcher
	bounds  drepo.BoundsFetcher
	store   *store.Store
	log     *applogger.Logger
}

func NewMarketData(
	cache *svccache.FreshCache,
	markets drepo.MarketFetcher,
	candleFetcher drepo.CandleFetcher,
	bounds drepo.BoundsFetcher,
	snapshots *store.Store,
	log *applogger.Logger,
) *MarketData {
	return &MarketData{
		cache:   cache,
		markets: markets,
		candles: candleFetcher,
		bounds:  bounds,
		store:   snapshots,
		log:     log,
	}
}

func (u *MarketData) Tokens(ctx context.Context, force bool) ([]models.TokenInfo, error) {
	return svccache.GetTyped(ctx, u.cache, svccache.ResourceTokens, force, func(ctx context.Context) ([]models.TokenInfo, error) {
		return u.markets.FetchTokens(ctx)
	})
}

func (u *MarketData) Markets(ctx context.Context, force bool) (*models.MarketData, error) {
	return svccache.GetTyped(ctx, u.cache, svccache.ResourceMarkets, force, func(ctx context.Context) (*models.MarketData, error) {
		return u.markets.FetchMarkets(ctx)
	})
}

// Positions resolves against the cached market set; a positions request may
// therefore trigger a markets fetch first when that entry is stale.
func (u *MarketData) Positions(ctx context.Context, force bool) ([]models.Position, error) {
	return svccache.GetTyped(ctx, u.cache, svccache.ResourcePositions, force, func(ctx context.Context) ([]models.Position, error) {
		md, err := u.Markets(ctx, false)
		if err != nil {
			return nil, err
		}
		return u.markets.FetchPositions(ctx, md)
	})
}

func (u *MarketData) PositionsInfo(ctx context.Context, force bool) ([]models.PositionInfo, error) {
	return svccache.GetTyped(ctx, u.cache, svccache.ResourcePositionInfo, force, func(ctx context.Context) ([]models.PositionInfo, error) {
		md, err := u.Markets(ctx, false)
		if err != nil {
			return nil, err
		}
		return u.markets.FetchPositionsInfo(ctx, md)
	})
}

// Volatility derives the volatility scalar from fresh candles; the cache
// stores only the scalar, candle payload caching lives in the candle client.
func (u *MarketData) Volatility(ctx context.Context, asset string, force bool) (float64, error) {
	return svccache.GetTyped(ctx, u.cache, svccache.VolatilityKey(asset), force, func(ctx context.Context) (float64, error) {
		bars, err := u.candles.FetchCandles(ctx, asset, "", 0)
		if err != nil {
			return 0, err
		}
		return candles.Volatility(bars), nil
	})
}

// Bounds fetches the forecast distribution. Every successful upstream fetch
// is also appended to the snapshot store; cache hits are not, so the store
// records at most one snapshot per upstream call.
func (u *MarketData) Bounds(ctx context.Context, asset string, force bool) (*models.ProbabilityBounds, error) {
	return svccache.GetTyped(ctx, u.cache, svccache.BoundsKey(asset), force, func(ctx context.Context) (*models.ProbabilityBounds, error) {
		b, err := u.bounds.FetchBounds(ctx, asset)
		if err != nil {
			return nil, err
		}
		snap := u.store.Append(asset, *b)
		u.log.Debug("snapshot recorded",
			applogger.String("asset", asset),
			applogger.Int64("timestamp", snap.Timestamp),
		)
		return b, nil
	})
}

func (u *MarketData) Invalidate(resource string) {
	u.cache.Invalidate(resource)
}

func (u *MarketData) InvalidateAll() {
	u.cache.InvalidateAll()
}

func (u *MarketData) CacheStatus() map[string]svccache.ResourceStatus {
	return u.cache.Status()
}

func (u *MarketData) CacheAges() map[string]int64 {
	return u.cache.Ages()
}
