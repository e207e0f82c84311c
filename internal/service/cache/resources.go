package cache

import (
	"strings"
	"time"
)

// Resource keys for the singleton resource classes.
const (
	ResourceTokens       = "tokens"
	ResourceMarkets      = "markets"
	ResourcePositions    = "positions"
	ResourcePositionInfo = "position-info"
)

// Per-asset resource class prefixes.
const (
	prefixVolatility = "volatility:"
	prefixBounds     = "bounds:"
)

// VolatilityKey returns the cache key for an asset's volatility scalar.
func VolatilityKey(asset string) string {
	return prefixVolatility + asset
}

// BoundsKey returns the cache key for an asset's forecast bounds.
func BoundsKey(asset string) string {
	return prefixBounds + asset
}

// ResourceClass maps a key to its resource class label, used for TTL lookup
// and metrics cardinality.
func ResourceClass(key string) string {
	switch {
	case strings.HasPrefix(key, prefixVolatility):
		return "volatility"
	case strings.HasPrefix(key, prefixBounds):
		return "bounds"
	default:
		return key
	}
}

// TTLTable resolves a TTL per resource class. Unknown classes get Default.
type TTLTable struct {
	Tokens       time.Duration
	Markets      time.Duration
	Positions    time.Duration
	PositionInfo time.Duration
	Volatility   time.Duration
	Bounds       time.Duration
	Default      time.Duration
}

// DefaultTTLs returns the production TTL assignment.
func DefaultTTLs() TTLTable {
	return TTLTable{
		Tokens:       time.Minute,
		Markets:      time.Minute,
		Positions:    30 * time.Second,
		PositionInfo: 30 * time.Second,
		Volatility:   5 * time.Minute,
		Bounds:       15 * time.Minute,
		Default:      time.Minute,
	}
}

// TTLFor returns the TTL governing a cache key.
func (t TTLTable) TTLFor(key string) time.Duration {
	switch ResourceClass(key) {
	case ResourceTokens:
		return t.Tokens
	case ResourceMarkets:
		return t.Markets
	case ResourcePositions:
		return t.Positions
	case ResourcePositionInfo:
		return t.PositionInfo
	case "volatility":
		return t.Volatility
	case "bounds":
		return t.Bounds
	default:
		return t.Default
	}
}
