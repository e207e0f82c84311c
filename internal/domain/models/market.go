package models

// TokenInfo describes one tradable token.
type TokenInfo struct {
	Symbol   string  `json:"symbol"`
	Name     string  `json:"name"`
	Address  string  `json:"address"`
	Decimals int     `json:"decimals"`
	PriceUSD float64 `json:"price_usd"`
}

// MarketInfo describes one market.
type MarketInfo struct {
	ID         string  `json:"id"`
	Slug       string  `json:"slug"`
	BaseAsset  string  `json:"base_asset"`
	QuoteAsset string  `json:"quote_asset"`
	TickSize   float64 `json:"tick_size"`
	Active     bool    `json:"active"`
}

// MarketData bundles markets with the tokens they reference; fetched as one
// unit because positions resolution needs both.
type MarketData struct {
	Markets []MarketInfo `json:"markets"`
	Tokens  []TokenInfo  `json:"tokens"`
}

// Position is one open position in a market.
type Position struct {
	MarketID   string  `json:"market_id"`
	Token      string  `json:"token"`
	Size       float64 `json:"size"`
	EntryPrice float64 `json:"entry_price"`
}

// PositionInfo carries valuation details for a position.
type PositionInfo struct {
	MarketID      string  `json:"market_id"`
	Token         string  `json:"token"`
	Size          float64 `json:"size"`
	ValueUSD      float64 `json:"value_usd"`
	UnrealizedPnL float64 `json:"unrealized_pnl"`
}

// Candle is one OHLCV bar.
type Candle struct {
	Timestamp int64   `json:"timestamp"` // ms since epoch
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}
