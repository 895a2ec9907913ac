package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/anonto42/tipbox/backend/internal/apperrors"
	"github.com/anonto42/tipbox/backend/internal/middleware"
	"github.com/labstack/echo/v4"
)

func getUserIDFromContext(c echo.Context) uint {
	return middleware.UserIDFromContext(c)
}

// toHTTPError maps domain errors to their status and hides everything else
// behind a logged 500.
func toHTTPError(logger *slog.Logger, err error) error {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	var domainErr *apperrors.Error
	if errors.As(err, &domainErr) {
		return echo.NewHTTPError(domainErr.HTTPStatus(), domainErr.Message)
	}

	logger.Error("request failed", slog.String("error", err.Error()))
	return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
}

func parseIDParam(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid "+name)
	}
	return uint(id), nil
}

func intQuery(c echo.Context, name string, def int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid "+name)
	}
	return v, nil
}

func respond(c echo.Context, status int, data any) error {
	return c.JSON(status, echo.Map{"success": true, "data": data})
}
