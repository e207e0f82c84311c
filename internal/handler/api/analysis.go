package api

import (
	models "PulseFeed/internal/domain/models"
	domrepo "PulseFeed/internal/domain/repository"
	"PulseFeed/internal/services/analytics"
	"PulseFeed/internal/store"
	xhttp "PulseFeed/pkg/http"
	xlogger "PulseFeed/pkg/logger"

	"github.com/labstack/echo/v4"
)

// AnalysisHandler serves percentile analytics and snapshot history over the
// retained forecast snapshots.
type AnalysisHandler struct {
	logger *xlogger.Logger
	engine *analytics.Engine
	store  *store.Store
	stream domrepo.PriceStream
}

func NewAnalysisHandler(logger *xlogger.Logger, engine *analytics.Engine, s *store.Store, stream domrepo.PriceStream) *AnalysisHandler {
	return &AnalysisHandler{logger: logger, engine: engine, store: s, stream: stream}
}

func (h *AnalysisHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/analysis", h.Analysis)
	g.GET("/snapshots/:asset/nearest", h.Nearest)
	g.GET("/snapshots/:asset/sufficiency", h.Sufficiency)
	e.GET("/healthz", h.Health)
}

func (h *AnalysisHandler) Analysis(c echo.Context) error {
	req := &models.AnalysisRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	price := req.Price
	if price == 0 {
		live, ok := h.stream.Latest(req.Asset)
		if !ok {
			return xhttp.BadRequestResponse(c, []xhttp.ValidationError{{
				Code:    "ERR_NO_PRICE",
				Field:   "price",
				Message: "no live price for " + req.Asset + ", pass price explicitly",
			}})
		}
		price = live
	}

	return xhttp.SuccessResponse(c, h.engine.Analyze(req.Asset, price))
}

func (h *AnalysisHandler) Nearest(c echo.Context) error {
	req := &models.NearestRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	asset := c.Param("asset")

	snap, ok := h.store.Nearest(asset, req.T)
	if !ok {
		return xhttp.NotFoundResponse(c, "no snapshots for "+asset)
	}
	return xhttp.SuccessResponse(c, snap)
}

func (h *AnalysisHandler) Sufficiency(c echo.Context) error {
	req := &models.SufficiencyRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	asset := c.Param("asset")

	return xhttp.SuccessResponse(c, h.store.Sufficiency(asset, req.MinCount, req.MinHours))
}

func (h *AnalysisHandler) Health(c echo.Context) error {
	health := h.store.Health()
	status := map[string]interface{}{
		"status":       "ok",
		"last_persist": health.LastPersist,
		"assets":       h.store.Assets(),
	}
	if health.LastError != "" {
		status["status"] = "degraded"
		status["last_persist_error"] = health.LastError
		status["last_persist_error_at"] = health.LastErrorAt
	}
	return xhttp.SuccessResponse(c, status)
}
