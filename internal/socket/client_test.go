package socket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facilita/notifier/internal/gateway"
)

type stubAuth struct{}

func (stubAuth) Authenticate(_ context.Context, token string) (string, error) {
	if !strings.HasPrefix(token, "tok-") {
		return "", gateway.ErrUnauthorized
	}
	return strings.TrimPrefix(token, "tok-"), nil
}

// newBackend starts a gateway. Without websocket the upgrade route is absent
// and only long-polling works.
func newBackend(t *testing.T, websocket bool) (*gateway.Hub, *httptest.Server) {
	t.Helper()
	hub := gateway.NewHub()
	h := gateway.NewHandler(hub, stubAuth{}, 200*time.Millisecond)
	mux := http.NewServeMux()
	if websocket {
		mux.HandleFunc("/realtime", h.ServeWS)
	}
	mux.HandleFunc("/realtime/poll", h.ServePoll)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return hub, srv
}

type recorder struct {
	mu     sync.Mutex
	events []string
	data   []json.RawMessage
}

func (r *recorder) handler(event string) Handler {
	return func(data json.RawMessage) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.events = append(r.events, event)
		r.data = append(r.data, data)
	}
}

func (r *recorder) count(event string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e == event {
			n++
		}
	}
	return n
}

func watch(c *Client, events ...string) *recorder {
	r := &recorder{}
	for _, e := range events {
		c.On(e, r.handler(e))
	}
	return r
}

func TestClient_WebSocketReceivesEvents(t *testing.T) {
	hub, srv := newBackend(t, true)
	c := NewClient(Options{ServerURL: srv.URL, Token: "tok-u1"})
	rec := watch(c, EventConnect, "notification")

	c.Connect()
	defer c.Close()

	require.Eventually(t, c.Connected, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, TransportWebSocket, c.Transport())
	assert.NotEmpty(t, c.ID())
	require.Eventually(t, func() bool { return hub.IsUserOnline("u1") }, time.Second, 10*time.Millisecond)

	hub.EmitToUser("u1", "notification", map[string]string{"title": "oi"})
	require.Eventually(t, func() bool { return rec.count("notification") == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, rec.count(EventConnect))
}

func TestClient_FallsBackToPolling(t *testing.T) {
	hub, srv := newBackend(t, false)
	c := NewClient(Options{ServerURL: srv.URL, Token: "tok-u1"})
	rec := watch(c, "notification")

	c.Connect()
	defer c.Close()

	require.Eventually(t, c.Connected, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, TransportPolling, c.Transport())

	hub.EmitToUser("u1", "notification", map[string]string{"title": "a"})
	hub.EmitToUser("u1", "notification", map[string]string{"title": "b"})
	require.Eventually(t, func() bool { return rec.count("notification") == 2 }, 3*time.Second, 10*time.Millisecond)

	rec.mu.Lock()
	assert.JSONEq(t, `{"title":"a"}`, string(rec.data[0]), "transport order is kept")
	rec.mu.Unlock()
}

func TestClient_ReconnectionExhausted(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close() // nothing listens any more

	clock := clockwork.NewFakeClock()
	c := NewClient(Options{ServerURL: url, Token: "tok-u1", Clock: clock})
	rec := watch(c, EventConnectError)
	c.Connect()

	for i := 0; i < DefaultReconnectionAttempts; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		require.NoError(t, clock.BlockUntilContext(ctx, 1), "retry %d", i+1)
		cancel()
		clock.Advance(DefaultReconnectionDelay)
	}

	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("connection loop did not give up")
	}

	assert.Equal(t, DefaultReconnectionAttempts+1, rec.count(EventConnectError))
	assert.False(t, c.Connected())
}

func TestClient_UnauthorizedIsConnectError(t *testing.T) {
	_, srv := newBackend(t, true)
	clock := clockwork.NewFakeClock()
	c := NewClient(Options{ServerURL: srv.URL, Token: "bad", Clock: clock})
	rec := watch(c, EventConnectError)

	c.Connect()
	defer c.Close()

	require.Eventually(t, func() bool { return rec.count(EventConnectError) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.False(t, c.Connected())
}

func TestClient_ConnectWithNewTokenKeepsHandlers(t *testing.T) {
	hub, srv := newBackend(t, true)
	c := NewClient(Options{ServerURL: srv.URL, Token: "tok-u1"})
	rec := watch(c, EventConnect, EventDisconnect, "notification")

	c.Connect()
	defer c.Close()
	require.Eventually(t, func() bool { return hub.IsUserOnline("u1") }, 2*time.Second, 10*time.Millisecond)

	c.SetToken("tok-u2")
	c.Connect()

	require.Eventually(t, func() bool { return hub.IsUserOnline("u2") }, 2*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return !hub.IsUserOnline("u1") }, 2*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return rec.count(EventConnect) == 2 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, rec.count(EventDisconnect))

	hub.EmitToUser("u2", "notification", map[string]string{"title": "x"})
	require.Eventually(t, func() bool { return rec.count("notification") == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestClient_CloseAndOff(t *testing.T) {
	hub, srv := newBackend(t, true)
	c := NewClient(Options{ServerURL: srv.URL, Token: "tok-u1"})
	rec := watch(c, EventDisconnect, "notification")

	c.Connect()
	require.Eventually(t, func() bool { return hub.IsUserOnline("u1") }, 2*time.Second, 10*time.Millisecond)

	c.Off("notification")
	c.Close()

	assert.False(t, c.Connected())
	assert.Empty(t, c.ID())
	assert.Equal(t, 1, rec.count(EventDisconnect))
	assert.Equal(t, 0, rec.count("notification"))

	c.Close() // second close is a no-op
}

func TestClient_ConnectDuringDialIsNotAnError(t *testing.T) {
	hub := gateway.NewHub()
	h := gateway.NewHandler(hub, stubAuth{}, 200*time.Millisecond)
	gate := make(chan struct{})
	var dials atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/realtime", func(w http.ResponseWriter, r *http.Request) {
		if dials.Add(1) == 1 {
			<-gate
		}
		h.ServeWS(w, r)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := NewClient(Options{ServerURL: srv.URL, Token: "tok-u1"})
	rec := watch(c, EventConnect, EventConnectError)
	c.Connect()
	defer c.Close()

	require.Eventually(t, func() bool { return dials.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	c.SetToken("tok-u1")
	c.Connect()
	close(gate)

	require.Eventually(t, c.Connected, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, rec.count(EventConnect))
	assert.Equal(t, 0, rec.count(EventConnectError), "a token refresh must not surface as a connection error")
}

func TestClient_ConnectWhileGivingUpStartsNewLoop(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	clock := clockwork.NewFakeClock()
	c := NewClient(Options{ServerURL: url, Token: "tok-u1", Clock: clock, ReconnectionAttempts: 1})
	rec := watch(c, EventConnectError)

	// The last allowed failure calls Connect before the loop has returned.
	var reconnected atomic.Bool
	c.On(EventConnectError, func(json.RawMessage) {
		if rec.count(EventConnectError) == 2 && reconnected.CompareAndSwap(false, true) {
			c.Connect()
		}
	})

	c.Connect()
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(DefaultReconnectionDelay)

	require.Eventually(t, func() bool { return rec.count(EventConnectError) == 3 }, 5*time.Second, 10*time.Millisecond)
	require.NoError(t, clock.BlockUntilContext(ctx, 1), "the new loop waits for its retry")

	c.mu.Lock()
	running := c.running
	c.mu.Unlock()
	assert.True(t, running)
}
