package realtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/anonto42/tipbox/backend/internal/identity"
	"github.com/google/uuid"
)

// Client is one connected stream.
type Client struct {
	ID          string
	Principal   identity.Principal
	Events      chan Event
	Done        chan struct{}
	ConnectedAt time.Time
}

// Hub keeps the connected clients of this instance and routes events to
// them: public events to everyone, private events to the matching principal.
type Hub struct {
	clients map[string]*Client
	buffer  int
	logger  *slog.Logger
	mu      sync.RWMutex
}

// NewHub creates a hub whose clients buffer up to buffer events each.
func NewHub(buffer int, logger *slog.Logger) *Hub {
	if buffer <= 0 {
		buffer = 1
	}
	return &Hub{
		clients: make(map[string]*Client),
		buffer:  buffer,
		logger:  logger,
	}
}

// Connect registers a client for principal.
func (h *Hub) Connect(principal identity.Principal) *Client {
	client := &Client{
		ID:          uuid.NewString(),
		Principal:   principal,
		Events:      make(chan Event, h.buffer),
		Done:        make(chan struct{}),
		ConnectedAt: time.Now(),
	}

	h.mu.Lock()
	h.clients[client.ID] = client
	total := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("stream client connected",
		slog.String("client_id", client.ID),
		slog.String("principal", principal.Key),
		slog.Bool("anonymous", principal.Anonymous()),
		slog.Int("total_clients", total))
	return client
}

// Disconnect removes a client and closes its channels. Unknown ids are ignored.
func (h *Hub) Disconnect(clientID string) {
	h.mu.Lock()
	client, ok := h.clients[clientID]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, clientID)
	total := len(h.clients)
	h.mu.Unlock()

	close(client.Done)
	close(client.Events)

	h.logger.Info("stream client disconnected",
		slog.String("client_id", clientID),
		slog.String("principal", client.Principal.Key),
		slog.Duration("duration", time.Since(client.ConnectedAt)),
		slog.Int("total_clients", total))
}

// Deliver implements Sink. A slow client loses the event instead of
// stalling the others.
func (h *Hub) Deliver(_ context.Context, event Event) error {
	var delivered, dropped int

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		if !routes(event, client.Principal) {
			continue
		}
		select {
		case client.Events <- event:
			delivered++
		default:
			dropped++
			h.logger.Warn("dropped event for slow client",
				slog.String("client_id", client.ID),
				slog.String("event_type", string(event.Type)))
		}
	}

	h.logger.Debug("event routed",
		slog.String("event_type", string(event.Type)),
		slog.String("channel", event.Channel),
		slog.Group("stats",
			slog.Int("delivered", delivered),
			slog.Int("dropped", dropped)))
	return nil
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, client := range h.clients {
		close(client.Done)
		close(client.Events)
		delete(h.clients, id)
	}
	h.logger.Info("all stream clients disconnected")
}

func routes(event Event, p identity.Principal) bool {
	if event.Channel == PublicChannel {
		return true
	}
	// Fallback principals carry a textual key that may look like a user id.
	return p.Numeric && event.Channel == p.Key
}
