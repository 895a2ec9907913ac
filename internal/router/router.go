package router

import (
	"log/slog"

	"github.com/anonto42/tipbox/backend/internal/handlers"
	"github.com/anonto42/tipbox/backend/internal/identity"
	"github.com/anonto42/tipbox/backend/internal/middleware"
	"github.com/anonto42/tipbox/backend/internal/realtime"
	"github.com/anonto42/tipbox/backend/internal/repositories"
	"github.com/anonto42/tipbox/backend/internal/services"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// Dependencies are the wired components the routes need
type Dependencies struct {
	DB            *gorm.DB
	Store         *repositories.Store
	Resolver      identity.Resolver
	TipService    *services.TipService
	SearchService *services.SearchService
	Stream        *realtime.StreamHandler
	Logger        *slog.Logger
}

// SetupRoutes configures all application routes
func SetupRoutes(e *echo.Echo, deps Dependencies) {
	logger := deps.Logger

	// Health check - always accessible
	health := handlers.NewHealthHandler(deps.DB)
	e.GET("/health", health.HealthCheck)

	// The stream authenticates itself so browsers can pass the token as a query parameter
	e.GET("/api/v1/realtime/stream", deps.Stream.Stream)

	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware(deps.Resolver, logger))
	requireUser := middleware.RequireUser()

	searchHandler := handlers.NewSearchHandler(deps.SearchService, logger)
	searchHandler.RegisterSearchRoutes(api, requireUser)

	user := api.Group("", requireUser)

	tipHandler := handlers.NewTipHandler(deps.TipService, logger)
	tipHandler.RegisterTipRoutes(user)

	notificationHandler := handlers.NewNotificationHandler(deps.Store.Notifications, deps.Store.Users, logger)
	notificationHandler.RegisterNotificationRoutes(user)

	logger.Info("routes configured", slog.Int("count", len(e.Routes())))
}
