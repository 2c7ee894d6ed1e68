package middleware

import (
	"net/http"

	"freshBite/pkg/logger"
	jsonres "freshBite/pkg/response"

	"github.com/labstack/echo/v4"
)

// ErrorHandler is the echo HTTPErrorHandler: known HTTP errors pass
// through with their status, anything else becomes a logged 500.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	if he, ok := err.(*echo.HTTPError); ok {
		message := http.StatusText(he.Code)
		if s, ok := he.Message.(string); ok {
			message = s
		}
		_ = c.JSON(he.Code, jsonres.Error("ERROR", message, nil))
		return
	}

	logger.Error("unhandled request error",
		"method", c.Request().Method,
		"path", c.Path(),
		"error", err,
	)
	_ = c.JSON(http.StatusInternalServerError, jsonres.Error(
		"INTERNAL_ERROR", "Internal server error", nil,
	))
}
