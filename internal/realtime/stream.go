package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/anonto42/tipbox/backend/internal/identity"
	"github.com/labstack/echo/v4"
)

// StreamHandler serves the server-sent event stream at GET /realtime/stream.
// The credential comes from the Authorization header or, for browser
// EventSource clients, the access_token query parameter.
type StreamHandler struct {
	hub       *Hub
	resolver  identity.Resolver
	heartbeat time.Duration
	logger    *slog.Logger
}

func NewStreamHandler(hub *Hub, resolver identity.Resolver, heartbeat time.Duration, logger *slog.Logger) *StreamHandler {
	if heartbeat <= 0 {
		heartbeat = 30 * time.Second
	}
	return &StreamHandler{hub: hub, resolver: resolver, heartbeat: heartbeat, logger: logger}
}

func (h *StreamHandler) Stream(c echo.Context) error {
	req := c.Request()

	token, _ := identity.BearerToken(req.Header.Get(echo.HeaderAuthorization))
	if token == "" {
		token = c.QueryParam("access_token")
	}

	principal, err := h.resolver.Resolve(req.Context(), token)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredential) {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to authenticate stream")
	}

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set(echo.HeaderCacheControl, "no-cache")
	w.Header().Set(echo.HeaderConnection, "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	if err := rc.Flush(); err != nil {
		h.logger.Error("failed to flush headers", slog.String("error", err.Error()))
		return nil
	}

	client := h.hub.Connect(principal)
	defer h.hub.Disconnect(client.ID)

	clientLogger := h.logger.With(slog.String("client_id", client.ID))

	if err := writeEvent(w, rc, Event{Type: EventConnected, Channel: principal.Key, EmittedAt: time.Now()}); err != nil {
		clientLogger.Warn("failed to send connected event", slog.String("error", err.Error()))
		return nil
	}

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	ctx := req.Context()
	for {
		select {
		case event, ok := <-client.Events:
			if !ok {
				return nil
			}
			if err := writeEvent(w, rc, event); err != nil {
				clientLogger.Info("client disconnected during send")
				return nil
			}
		case <-heartbeat.C:
			if err := writeEvent(w, rc, NewHeartbeatEvent()); err != nil {
				clientLogger.Info("client disconnected during heartbeat")
				return nil
			}
		case <-client.Done:
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}

func writeEvent(w http.ResponseWriter, rc *http.ResponseController, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data); err != nil {
		return err
	}
	return rc.Flush()
}
