package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db *gorm.DB
}

func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// HealthCheck reports 503 when the database does not answer a ping
func (h *HealthHandler) HealthCheck(c echo.Context) error {
	status, code := "healthy", http.StatusOK

	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	if sqlDB, err := h.db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		status, code = "degraded", http.StatusServiceUnavailable
	}

	return c.JSON(code, map[string]string{
		"status":  status,
		"service": "tipbox-api",
	})
}
