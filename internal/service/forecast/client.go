package forecast

import (
	"context"
	"fmt"

	"PulseFeed/internal/domain/models"
	"PulseFeed/internal/domain/repository"
	"PulseFeed/internal/service/ratelimit"
	"PulseFeed/pkg/config"
	xhttp "PulseFeed/pkg/http"
	applogger "PulseFeed/pkg/logger"
)

// Client fetches probability-bound forecasts. The upstream enforces a hard
// rate limit, so every request passes through the cooldown gate regardless
// of which asset it is for.
type Client struct {
	baseURL string
	apiKey  string
	horizon string
	gate    *ratelimit.Cooldown
	client  *xhttp.Client
	log     *applogger.Logger
}

func NewClient(cfg *config.Config, gate *ratelimit.Cooldown, log *applogger.Logger) *Client {
	return &Client{
		baseURL: cfg.Forecast.BaseURL,
		apiKey:  cfg.Forecast.APIKey,
		horizon: cfg.Forecast.Horizon,
		gate:    gate,
		client:  xhttp.NewClient(xhttp.WithTimeout(cfg.Forecast.Timeout)),
		log:     log,
	}
}

type boundsResponse struct {
	Asset   string              `json:"asset"`
	Horizon string              `json:"horizon"`
	Levels  []models.BoundLevel `json:"levels"`
}

// FetchBounds retrieves the forecast distribution for one asset. Non-2xx
// responses surface as a StatusError carrying status and body text so the
// caller can distinguish rate-limit rejections from other failures.
func (c *Client) FetchBounds(ctx context.Context, asset string) (*models.ProbabilityBounds, error) {
	var resp boundsResponse
	err := c.gate.Guard(ctx, func(ctx context.Context) error {
		return c.client.SendAndParse(ctx, &xhttp.RequestOptions{
			Method: xhttp.MethodGet,
			URL:    c.baseURL + "/v1/bounds",
			Headers: map[string]string{
				"X-Api-Key": c.apiKey,
			},
			QueryParams: map[string][]string{
				"asset":   {asset},
				"horizon": {c.horizon},
			},
		}, &resp)
	})
	if err != nil {
		if se, ok := xhttp.AsStatusError(err); ok {
			c.log.Warn("bounds fetch rejected",
				applogger.String("asset", asset),
				applogger.Int("status", se.Status),
			)
		}
		return nil, fmt.Errorf("fetch bounds %s: %w", asset, err)
	}

	return &models.ProbabilityBounds{
		Asset:   resp.Asset,
		Horizon: resp.Horizon,
		Levels:  resp.Levels,
	}, nil
}

var _ repository.BoundsFetcher = (*Client)(nil)
