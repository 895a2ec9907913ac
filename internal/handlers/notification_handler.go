package handlers

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/anonto42/tipbox/backend/internal/models"
	"github.com/anonto42/tipbox/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// NotificationHandler serves the persisted notifications of the current user.
// It is the durable read path behind the realtime nudges.
type NotificationHandler struct {
	notificationRepository repositories.NotificationRepository
	userRepository         repositories.UserRepository
	logger                 *slog.Logger
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notifRepo repositories.NotificationRepository, userRepo repositories.UserRepository, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{
		notificationRepository: notifRepo,
		userRepository:         userRepo,
		logger:                 logger,
	}
}

// RegisterNotificationRoutes registers notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.GetNotifications)
	g.GET("/notifications/unread-count", h.GetUnreadCount)
	g.PUT("/notifications/:id/read", h.MarkAsRead)
	g.PUT("/notifications/read-all", h.MarkAllAsRead)
}

// EnrichedNotification includes the actor's display name
type EnrichedNotification struct {
	models.Notification
	ActorName string `json:"actor_name"`
}

func (h *NotificationHandler) enrichNotifications(c echo.Context, notifications []models.Notification) []EnrichedNotification {
	enriched := make([]EnrichedNotification, len(notifications))
	names := make(map[uint]string)

	for i, n := range notifications {
		enriched[i] = EnrichedNotification{Notification: n}
		name, ok := names[n.ActorID]
		if !ok {
			if user, err := h.userRepository.GetUserByID(c.Request().Context(), n.ActorID); err == nil {
				name = user.DisplayName()
			}
			names[n.ActorID] = name
		}
		enriched[i].ActorName = name
	}
	return enriched
}

// GetNotifications returns paginated notifications, newest first
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)

	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 20
	}

	notifications, total, err := h.notificationRepository.GetByRecipientID(c.Request().Context(), currentUserID, page, limit)
	if err != nil {
		return toHTTPError(h.logger, err)
	}

	totalPages := int(math.Ceil(float64(total) / float64(limit)))

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"notifications": h.enrichNotifications(c, notifications),
		},
		"meta": echo.Map{
			"currentPage":     page,
			"totalPages":      totalPages,
			"totalItems":      total,
			"itemsPerPage":    limit,
			"hasNextPage":     page < totalPages,
			"hasPreviousPage": page > 1,
		},
	})
}

// GetUnreadCount returns the unread notification count
func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	count, err := h.notificationRepository.GetUnreadCount(c.Request().Context(), getUserIDFromContext(c))
	if err != nil {
		return toHTTPError(h.logger, err)
	}
	return respond(c, http.StatusOK, echo.Map{"count": count})
}

// MarkAsRead marks one of the current user's notifications as read
func (h *NotificationHandler) MarkAsRead(c echo.Context) error {
	notifID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	updated, err := h.notificationRepository.MarkAsRead(c.Request().Context(), getUserIDFromContext(c), notifID)
	if err != nil {
		return toHTTPError(h.logger, err)
	}
	if !updated {
		return echo.NewHTTPError(http.StatusNotFound, "Notification not found")
	}
	return respond(c, http.StatusOK, echo.Map{"success": true})
}

// MarkAllAsRead marks all notifications as read
func (h *NotificationHandler) MarkAllAsRead(c echo.Context) error {
	if err := h.notificationRepository.MarkAllAsRead(c.Request().Context(), getUserIDFromContext(c)); err != nil {
		return toHTTPError(h.logger, err)
	}
	return respond(c, http.StatusOK, echo.Map{"success": true})
}
