package exchange

import (
	"context"
	"fmt"

	"PulseFeed/internal/domain/models"
	"PulseFeed/internal/domain/repository"
	"PulseFeed/pkg/config"
	xhttp "PulseFeed/pkg/http"
	applogger "PulseFeed/pkg/logger"
)

// Client fetches markets, tokens and positions from the exchange REST API.
// It carries no caching or rate limiting of its own; freshness policy lives
// with the caller.
type Client struct {
	baseURL string
	client  *xhttp.Client
	log     *applogger.Logger
}

func NewClient(cfg *config.Config, log *applogger.Logger) *Client {
	return &Client{
		baseURL: cfg.Exchange.BaseURL,
		client:  xhttp.NewClient(xhttp.WithTimeout(cfg.Exchange.Timeout)),
		log:     log,
	}
}

type marketsResponse struct {
	Markets []models.MarketInfo `json:"markets"`
	Tokens  []models.TokenInfo  `json:"tokens"`
}

func (c *Client) FetchMarkets(ctx context.Context) (*models.MarketData, error) {
	var resp marketsResponse
	if err := c.client.GetJSON(ctx, c.baseURL+"/v1/markets", nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch markets: %w", err)
	}
	return &models.MarketData{Markets: resp.Markets, Tokens: resp.Tokens}, nil
}

type tokensResponse struct {
	Tokens []models.TokenInfo `json:"tokens"`
}

func (c *Client) FetchTokens(ctx context.Context) ([]models.TokenInfo, error) {
	var resp tokensResponse
	if err := c.client.GetJSON(ctx, c.baseURL+"/v1/tokens", nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch tokens: %w", err)
	}
	return resp.Tokens, nil
}

type positionsResponse struct {
	Positions []models.Position `json:"positions"`
}

// FetchPositions resolves open positions against the provided market set.
// Positions referencing unknown markets are dropped with a warning rather
// than failing the whole batch.
func (c *Client) FetchPositions(ctx context.Context, md *models.MarketData) ([]models.Position, error) {
	var resp positionsResponse
	if err := c.client.GetJSON(ctx, c.baseURL+"/v1/positions", nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch positions: %w", err)
	}

	known := marketIndex(md)
	out := make([]models.Position, 0, len(resp.Positions))
	for _, p := range resp.Positions {
		if _, ok := known[p.MarketID]; !ok {
			c.log.Warn("position references unknown market",
				applogger.String("market_id", p.MarketID),
				applogger.String("token", p.Token),
			)
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

type positionInfoResponse struct {
	Positions []models.PositionInfo `json:"positions"`
}

func (c *Client) FetchPositionsInfo(ctx context.Context, md *models.MarketData) ([]models.PositionInfo, error) {
	var resp positionInfoResponse
	if err := c.client.GetJSON(ctx, c.baseURL+"/v1/positions/info", nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch positions info: %w", err)
	}

	known := marketIndex(md)
	out := make([]models.PositionInfo, 0, len(resp.Positions))
	for _, p := range resp.Positions {
		if _, ok := known[p.MarketID]; !ok {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func marketIndex(md *models.MarketData) map[string]models.MarketInfo {
	idx := make(map[string]models.MarketInfo)
	if md == nil {
		return idx
	}
	for _, m := range md.Markets {
		idx[m.ID] = m
	}
	return idx
}

var _ repository.MarketFetcher = (*Client)(nil)
