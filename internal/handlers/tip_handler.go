package handlers

import (
	"log/slog"
	"net/http"

	"github.com/anonto42/tipbox/backend/internal/models"
	"github.com/anonto42/tipbox/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// TipHandler handles tip preview, registration, update and deletion
type TipHandler struct {
	tipService *services.TipService
	logger     *slog.Logger
}

// NewTipHandler creates a new TipHandler
func NewTipHandler(tipService *services.TipService, logger *slog.Logger) *TipHandler {
	return &TipHandler{tipService: tipService, logger: logger}
}

// RegisterTipRoutes registers tip routes; g must require a user
func (h *TipHandler) RegisterTipRoutes(g *echo.Group) {
	g.POST("/tips/generate", h.GenerateTip)
	g.POST("/tips/register", h.RegisterTip)
	g.PUT("/tips/:id", h.UpdateTip)
	g.DELETE("/tips/:id", h.DeleteTip)
}

// GenerateTip runs enrichment for a URL and returns the draft. It can take
// as long as the enrichment budget.
func (h *TipHandler) GenerateTip(c echo.Context) error {
	var req models.GenerateTipRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	draft, err := h.tipService.Preview(c.Request().Context(), req)
	if err != nil {
		return toHTTPError(h.logger, err)
	}
	return respond(c, http.StatusOK, draft)
}

// RegisterTip stores a tip in a storage
func (h *TipHandler) RegisterTip(c echo.Context) error {
	var req models.RegisterTipRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	tip, err := h.tipService.Register(c.Request().Context(), getUserIDFromContext(c), req)
	if err != nil {
		return toHTTPError(h.logger, err)
	}
	return respond(c, http.StatusCreated, tip)
}

// UpdateTip changes a tip owned by the current user
func (h *TipHandler) UpdateTip(c echo.Context) error {
	tipID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	var req models.UpdateTipRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	tip, err := h.tipService.Update(c.Request().Context(), getUserIDFromContext(c), tipID, req)
	if err != nil {
		return toHTTPError(h.logger, err)
	}
	return respond(c, http.StatusOK, tip)
}

// DeleteTip removes a tip owned by the current user
func (h *TipHandler) DeleteTip(c echo.Context) error {
	tipID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.tipService.Delete(c.Request().Context(), getUserIDFromContext(c), tipID); err != nil {
		return toHTTPError(h.logger, err)
	}
	return c.NoContent(http.StatusNoContent)
}
