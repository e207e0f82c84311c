package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// DataResponse writes an API response with the given status and data.
func DataResponse(c echo.Context, statusCode int, data interface{}) error {
	return c.JSON(http.StatusOK, APIResponse{
		Status:  statusCode,
		Message: http.StatusText(statusCode),
		Data:    data,
	})
}

// SuccessResponse writes a success response.
func SuccessResponse(c echo.Context, data interface{}) error {
	return DataResponse(c, http.StatusOK, data)
}

// BadRequestResponse writes a bad request error.
func BadRequestResponse(c echo.Context, data interface{}) error {
	return DataResponse(c, http.StatusBadRequest, data)
}

// NotFoundResponse writes a not found error.
func NotFoundResponse(c echo.Context, data interface{}) error {
	return DataResponse(c, http.StatusNotFound, data)
}

// UpstreamErrorResponse maps an upstream fetch failure onto the response.
// StatusError details are passed through; everything else is a bad gateway.
func UpstreamErrorResponse(c echo.Context, err error) error {
	if se, ok := AsStatusError(err); ok {
		return DataResponse(c, http.StatusBadGateway, map[string]interface{}{
			"upstream_status": se.Status,
			"upstream_body":   se.Body,
		})
	}
	return DataResponse(c, http.StatusBadGateway, err.Error())
}
