package socket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/facilita/notifier/internal/metrics"
)

// Reconnection defaults.
const (
	DefaultReconnectionAttempts = 5
	DefaultReconnectionDelay    = 1000 * time.Millisecond
)

// Options configures a Client.
type Options struct {
	// ServerURL is the backend origin, e.g. http://localhost:3001.
	ServerURL string
	Token     string
	// Transports lists the transports to try, in order. Defaults to
	// websocket then polling.
	Transports           []string
	ReconnectionAttempts int
	ReconnectionDelay    time.Duration

	Clock      clockwork.Clock
	Logger     *slog.Logger
	HTTPClient *http.Client
	Dialer     *websocket.Dialer
}

func (o *Options) applyDefaults() {
	if len(o.Transports) == 0 {
		o.Transports = []string{TransportWebSocket, TransportPolling}
	}
	if o.ReconnectionAttempts <= 0 {
		o.ReconnectionAttempts = DefaultReconnectionAttempts
	}
	if o.ReconnectionDelay <= 0 {
		o.ReconnectionDelay = DefaultReconnectionDelay
	}
	if o.Clock == nil {
		o.Clock = clockwork.NewRealClock()
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{}
	}
	if o.Dialer == nil {
		o.Dialer = websocket.DefaultDialer
	}
}

// Client is the realtime connection. It connects over the first transport
// that succeeds and, when the connection drops or cannot be made, retries a
// bounded number of times with a fixed delay. After the last retry fails it
// stays down until Connect is called again.
type Client struct {
	opts Options

	mu            sync.Mutex
	token         string
	handlers      map[string][]Handler
	sid           string
	transport     string
	connected     bool
	running       bool
	cancel        context.CancelFunc
	done          chan struct{}
	sessionCancel context.CancelFunc
	restart       chan struct{}
}

var _ Conn = (*Client)(nil)

// NewClient creates a disconnected client.
func NewClient(opts Options) *Client {
	opts.applyDefaults()
	return &Client{
		opts:     opts,
		token:    opts.Token,
		handlers: make(map[string][]Handler),
		restart:  make(chan struct{}, 1),
	}
}

// ID returns the session id of the live transport.
func (c *Client) ID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sid
}

// Transport returns the name of the live transport, or "".
func (c *Client) Transport() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transport
}

// Connected reports whether a transport is established.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// On registers h for event.
func (c *Client) On(event string, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[event] = append(c.handlers[event], h)
}

// Off removes every handler for event.
func (c *Client) Off(event string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.handlers, event)
}

// SetToken replaces the handshake token.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Connect starts the connection loop. When the loop is already running the
// current transport is dropped and a new one is made at once with the
// current token, resetting the retry budget.
func (c *Client) Connect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		select {
		case c.restart <- struct{}{}:
		default:
		}
		if c.sessionCancel != nil {
			c.sessionCancel()
		}
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.running = true
	c.cancel = cancel
	c.done = make(chan struct{})
	// Drain a stale restart request left by a loop that already gave up.
	select {
	case <-c.restart:
	default:
	}
	go c.loop(ctx, c.done)
}

// Close disconnects and waits for the connection loop to stop. It must not
// be called from a Handler.
func (c *Client) Close() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (c *Client) loop(ctx context.Context, done chan struct{}) {
	defer func() {
		c.mu.Lock()
		// A Connect that raced with giving up still gets a fresh loop.
		if ctx.Err() == nil && c.takeRestart() {
			c.sessionCancel = nil
			c.mu.Unlock()
			go c.loop(ctx, done)
			return
		}
		c.running = false
		c.cancel = nil
		c.sessionCancel = nil
		c.mu.Unlock()
		close(done)
	}()

	failures := 0
	for {
		established, err := c.session(ctx)
		if ctx.Err() != nil {
			return
		}
		// A restart cancels the session on purpose; that is not a failure.
		if c.takeRestart() {
			failures = 0
			continue
		}
		if established {
			failures = 0
		} else {
			c.opts.Logger.Warn("socket: connection error", "server", c.opts.ServerURL, "error", err)
			c.emit(EventConnectError, reasonData(err.Error()))
		}

		failures++
		if failures > c.opts.ReconnectionAttempts {
			metrics.ClientReconnectAttempts.WithLabelValues("exhausted").Inc()
			c.opts.Logger.Error("socket: reconnection attempts exhausted, staying disconnected",
				"attempts", c.opts.ReconnectionAttempts)
			return
		}
		metrics.ClientReconnectAttempts.WithLabelValues("retry").Inc()
		c.opts.Logger.Info("socket: reconnecting", "attempt", failures, "delay", c.opts.ReconnectionDelay)

		select {
		case <-ctx.Done():
			return
		case <-c.restart:
			failures = 0
		case <-c.opts.Clock.After(c.opts.ReconnectionDelay):
		}
	}
}

func (c *Client) takeRestart() bool {
	select {
	case <-c.restart:
		return true
	default:
		return false
	}
}

// session establishes one transport and blocks until it ends. It reports
// whether a transport was established.
func (c *Client) session(ctx context.Context) (bool, error) {
	sctx, scancel := context.WithCancel(ctx)
	defer scancel()

	c.mu.Lock()
	c.sessionCancel = scancel
	token := c.token
	c.mu.Unlock()

	lastErr := errors.New("no transports configured")
	for _, name := range c.opts.Transports {
		t, err := c.dial(sctx, name, token)
		if err != nil {
			lastErr = err
			if errors.Is(err, ErrUnauthorized) || sctx.Err() != nil {
				break
			}
			c.opts.Logger.Debug("socket: transport unavailable", "transport", name, "error", err)
			continue
		}

		c.setState(true, t.sid(), name)
		c.opts.Logger.Info("socket: connected", "sid", t.sid(), "transport", name)
		c.emit(EventConnect, nil)

		reason := t.run(sctx, c.dispatch)

		c.setState(false, "", "")
		c.opts.Logger.Info("socket: disconnected", "reason", reason)
		c.emit(EventDisconnect, reasonData(reason))
		return true, nil
	}
	return false, lastErr
}

func (c *Client) dial(ctx context.Context, name, token string) (transport, error) {
	switch name {
	case TransportWebSocket:
		return dialWebSocket(ctx, c.opts.Dialer, c.opts.ServerURL, token)
	case TransportPolling:
		return dialPolling(ctx, c.opts.HTTPClient, c.opts.ServerURL, token)
	}
	return nil, errors.New("unknown transport " + name)
}

func (c *Client) setState(connected bool, sid, transport string) {
	c.mu.Lock()
	c.connected = connected
	c.sid = sid
	c.transport = transport
	c.mu.Unlock()
}

func (c *Client) dispatch(env envelope) {
	switch env.Event {
	case "hello", "ping", "":
		return
	}
	c.emit(env.Event, env.Data)
}

func (c *Client) emit(event string, data json.RawMessage) {
	c.mu.Lock()
	handlers := append([]Handler(nil), c.handlers[event]...)
	c.mu.Unlock()
	for _, h := range handlers {
		h(data)
	}
}

func reasonData(reason string) json.RawMessage {
	raw, _ := json.Marshal(reason)
	return raw
}
