package realtime

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/anonto42/tipbox/backend/internal/identity"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const streamSecret = "stream-secret"

func newStreamServer(t *testing.T, heartbeat time.Duration) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(8, discard)
	handler := NewStreamHandler(hub, identity.ChainResolver{identity.NewJWTResolver(streamSecret, discard)}, heartbeat, discard)

	e := echo.New()
	e.GET("/realtime/stream", handler.Stream)
	server := httptest.NewServer(e)
	t.Cleanup(server.Close)
	return hub, server
}

type sseReader struct {
	scanner *bufio.Scanner
}

// next returns the type and payload of the next event.
func (r *sseReader) next(t *testing.T) (string, Event) {
	t.Helper()
	var typ string
	var evt Event
	for r.scanner.Scan() {
		line := r.scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			typ = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &evt))
		case line == "" && typ != "":
			return typ, evt
		}
	}
	t.Fatalf("stream ended: %v", r.scanner.Err())
	return "", Event{}
}

func connect(t *testing.T, ctx context.Context, url string, header string) *http.Response {
	t.Helper()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	require.NoError(t, err)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestStreamHandler_DeliversPrivateEvents(t *testing.T) {
	hub, server := newStreamServer(t, time.Minute)
	token, err := identity.GenerateToken([]byte(streamSecret), 42, "alice", time.Hour)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	resp := connect(t, ctx, server.URL+"/realtime/stream", "Bearer "+token)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	r := &sseReader{scanner: bufio.NewScanner(resp.Body)}
	typ, evt := r.next(t)
	assert.Equal(t, string(EventConnected), typ)
	assert.Equal(t, "42", evt.Channel)

	require.NoError(t, hub.Deliver(ctx, NewNotificationEvent(7, 1, "not yours", time.Now())))
	require.NoError(t, hub.Deliver(ctx, NewNotificationEvent(42, 3, "yours", time.Now())))

	typ, evt = r.next(t)
	assert.Equal(t, string(EventNotification), typ)
	assert.Equal(t, "yours", evt.Message)
	assert.Equal(t, uint(3), evt.TipID)

	cancel()
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestStreamHandler_QueryTokenAndHeartbeat(t *testing.T) {
	_, server := newStreamServer(t, 20*time.Millisecond)
	token, err := identity.GenerateToken([]byte(streamSecret), 1, "", time.Hour)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	resp := connect(t, ctx, server.URL+"/realtime/stream?access_token="+token, "")
	defer resp.Body.Close()

	r := &sseReader{scanner: bufio.NewScanner(resp.Body)}
	typ, evt := r.next(t)
	assert.Equal(t, string(EventConnected), typ)
	assert.Equal(t, "1", evt.Channel)

	typ, _ = r.next(t)
	assert.Equal(t, string(EventHeartbeat), typ)
}

func TestStreamHandler_AnonymousGetsPublicFeedOnly(t *testing.T) {
	hub, server := newStreamServer(t, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	resp := connect(t, ctx, server.URL+"/realtime/stream", "")
	defer resp.Body.Close()

	r := &sseReader{scanner: bufio.NewScanner(resp.Body)}
	typ, _ := r.next(t)
	require.Equal(t, string(EventConnected), typ)

	require.NoError(t, hub.Deliver(ctx, NewNotificationEvent(1, 1, "private", time.Now())))
	require.NoError(t, hub.Deliver(ctx, NewFeedEvent(EventTipNew, 9, "Alice", []string{"go"}, time.Now())))

	typ, evt := r.next(t)
	assert.Equal(t, string(EventTipNew), typ)
	assert.Equal(t, uint(9), evt.TipID)
	assert.Equal(t, []string{"go"}, evt.Tags)
}

func TestStreamHandler_RejectsInvalidToken(t *testing.T) {
	_, server := newStreamServer(t, time.Minute)

	resp := connect(t, context.Background(), server.URL+"/realtime/stream", "Bearer not-a-token")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
