package candles

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"PulseFeed/internal/domain/models"
	"PulseFeed/internal/domain/repository"
	"PulseFeed/pkg/cache"
	"PulseFeed/pkg/config"
	xhttp "PulseFeed/pkg/http"
	applogger "PulseFeed/pkg/logger"
)

// Client fetches OHLCV candles, caching raw upstream payloads in a bytes
// cache so repeated volatility derivations within the TTL skip the network.
type Client struct {
	baseURL string
	period  string
	limit   int
	ttl     time.Duration
	client  *xhttp.Client
	bytes   cache.Service
	log     *applogger.Logger
}

func NewClient(cfg *config.Config, bytesCache cache.Service, log *applogger.Logger) *Client {
	return &Client{
		baseURL: cfg.Candles.BaseURL,
		period:  cfg.Candles.Period,
		limit:   cfg.Candles.Limit,
		ttl:     cfg.Candles.CacheTTL,
		client:  xhttp.NewClient(xhttp.WithTimeout(cfg.Candles.Timeout)),
		bytes:   bytesCache,
		log:     log,
	}
}

type candlesResponse struct {
	Candles []models.Candle `json:"candles"`
}

func (c *Client) FetchCandles(ctx context.Context, asset, period string, limit int) ([]models.Candle, error) {
	if period == "" {
		period = c.period
	}
	if limit <= 0 {
		limit = c.limit
	}

	key := cache.Key("candles", asset, period, limit)
	if b, err := c.bytes.Get(ctx, key); err == nil {
		var resp candlesResponse
		if err := json.Unmarshal(b, &resp); err == nil {
			return resp.Candles, nil
		}
		// stale or malformed payload, drop it and refetch
		_ = c.bytes.Delete(ctx, key)
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		c.log.Warn("candle cache read failed", applogger.String("key", key), applogger.Error(err))
	}

	var resp candlesResponse
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/v1/candles",
		QueryParams: map[string][]string{
			"asset":  {asset},
			"period": {period},
			"limit":  {fmt.Sprintf("%d", limit)},
		},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("fetch candles %s: %w", asset, err)
	}

	if b, err := json.Marshal(&resp); err == nil {
		if err := c.bytes.Set(ctx, key, b, c.ttl); err != nil {
			c.log.Warn("candle cache write failed", applogger.String("key", key), applogger.Error(err))
		}
	}
	return resp.Candles, nil
}

var _ repository.CandleFetcher = (*Client)(nil)
