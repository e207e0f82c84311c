package api

import (
	"strconv"

	models "PulseFeed/internal/domain/models"
	"PulseFeed/internal/usecase"
	xhttp "PulseFeed/pkg/http"
	xlogger "PulseFeed/pkg/logger"

	"github.com/labstack/echo/v4"
)

// MarketDataHandler exposes the cached market data plus cache
// introspection over HTTP.
type MarketDataHandler struct {
	logger *xlogger.Logger
	data   *usecase.MarketData
}

func NewMarketDataHandler(logger *xlogger.Logger, data *usecase.MarketData) *MarketDataHandler {
	return &MarketDataHandler{logger: logger, data: data}
}

func (h *MarketDataHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/tokens", h.Tokens)
	g.GET("/markets", h.Markets)
	g.GET("/positions", h.Positions)
	g.GET("/positions/info", h.PositionsInfo)
	g.GET("/volatility", h.Volatility)
	g.GET("/bounds", h.Bounds)
	g.GET("/cache/status", h.CacheStatus)
	g.GET("/cache/ages", h.CacheAges)
	g.POST("/cache/invalidate", h.Invalidate)
}

func force(c echo.Context) bool {
	f, _ := strconv.ParseBool(c.QueryParam("force"))
	return f
}

func (h *MarketDataHandler) Tokens(c echo.Context) error {
	tokens, err := h.data.Tokens(c.Request().Context(), force(c))
	if err != nil {
		h.logger.Error("tokens fetch error", xlogger.Error(err))
		return xhttp.UpstreamErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, tokens)
}

func (h *MarketDataHandler) Markets(c echo.Context) error {
	md, err := h.data.Markets(c.Request().Context(), force(c))
	if err != nil {
		h.logger.Error("markets fetch error", xlogger.Error(err))
		return xhttp.UpstreamErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, md)
}

func (h *MarketDataHandler) Positions(c echo.Context) error {
	positions, err := h.data.Positions(c.Request().Context(), force(c))
	if err != nil {
		h.logger.Error("positions fetch error", xlogger.Error(err))
		return xhttp.UpstreamErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, positions)
}

func (h *MarketDataHandler) PositionsInfo(c echo.Context) error {
	info, err := h.data.PositionsInfo(c.Request().Context(), force(c))
	if err != nil {
		h.logger.Error("positions info fetch error", xlogger.Error(err))
		return xhttp.UpstreamErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, info)
}

type assetRequest struct {
	Asset string `query:"asset" validate:"required"`
}

func (h *MarketDataHandler) Volatility(c echo.Context) error {
	req := &assetRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	v, err := h.data.Volatility(c.Request().Context(), req.Asset, force(c))
	if err != nil {
		h.logger.Error("volatility fetch error", xlogger.String("asset", req.Asset), xlogger.Error(err))
		return xhttp.UpstreamErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{"asset": req.Asset, "volatility": v})
}

func (h *MarketDataHandler) Bounds(c echo.Context) error {
	req := &assetRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	bounds, err := h.data.Bounds(c.Request().Context(), req.Asset, force(c))
	if err != nil {
		h.logger.Error("bounds fetch error", xlogger.String("asset", req.Asset), xlogger.Error(err))
		return xhttp.UpstreamErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, bounds)
}

func (h *MarketDataHandler) CacheStatus(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.data.CacheStatus())
}

func (h *MarketDataHandler) CacheAges(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.data.CacheAges())
}

func (h *MarketDataHandler) Invalidate(c echo.Context) error {
	req := &models.InvalidateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	if req.Resource == "" {
		h.data.InvalidateAll()
	} else {
		h.data.Invalidate(req.Resource)
	}
	return xhttp.SuccessResponse(c, map[string]string{"invalidated": req.Resource})
}
