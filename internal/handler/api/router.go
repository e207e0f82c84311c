package api

import (
	xhttp "PulseFeed/pkg/http"

	"github.com/labstack/echo/v4"
)

// Router bundles the API handlers behind a single route registrar.
type Router struct {
	market   *MarketDataHandler
	analysis *AnalysisHandler
}

func NewRouter(market *MarketDataHandler, analysis *AnalysisHandler) *Router {
	return &Router{market: market, analysis: analysis}
}

func (r *Router) RegisterRoutes(e *echo.Echo) {
	r.market.RegisterRoutes(e)
	r.analysis.RegisterRoutes(e)
}

var _ xhttp.Handler = (*Router)(nil)
