package socket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// ErrUnauthorized is returned when the server rejects the handshake token.
var ErrUnauthorized = errors.New("handshake rejected: unauthorized")

const handshakeTimeout = 10 * time.Second

// envelope mirrors the server's wire message.
type envelope struct {
	Seq   uint64          `json:"seq,omitempty"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type pollResponse struct {
	SID    string     `json:"sid"`
	Cursor uint64     `json:"cursor"`
	Events []envelope `json:"events"`
}

// transport is one established connection. run blocks until the connection
// ends and returns the reason.
type transport interface {
	sid() string
	run(ctx context.Context, dispatch func(envelope)) string
}

func endpoint(serverURL, path string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimRight(serverURL, "/") + path)
	if err != nil {
		return nil, fmt.Errorf("parsing server url: %w", err)
	}
	return u, nil
}

// --- websocket ---

type wsTransport struct {
	conn *websocket.Conn
	id   string
}

func dialWebSocket(ctx context.Context, dialer *websocket.Dialer, serverURL, token string) (*wsTransport, error) {
	u, err := endpoint(serverURL, "/realtime")
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	dctx, cancel := context.WithTimeout(ctx, handshakeTimeout)
	defer cancel()
	conn, resp, err := dialer.DialContext(dctx, u.String(), nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("websocket dial: %w", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	var hello envelope
	if err := conn.ReadJSON(&hello); err != nil {
		conn.Close()
		return nil, fmt.Errorf("websocket handshake: %w", err)
	}
	_ = conn.SetReadDeadline(time.Time{})

	var h struct {
		SID string `json:"sid"`
	}
	if hello.Event != "hello" || json.Unmarshal(hello.Data, &h) != nil {
		conn.Close()
		return nil, fmt.Errorf("websocket handshake: unexpected %q message", hello.Event)
	}
	return &wsTransport{conn: conn, id: h.SID}, nil
}

func (t *wsTransport) sid() string { return t.id }

func (t *wsTransport) run(ctx context.Context, dispatch func(envelope)) string {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = t.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			t.conn.Close()
		case <-stop:
		}
	}()
	defer t.conn.Close()

	for {
		var env envelope
		if err := t.conn.ReadJSON(&env); err != nil {
			if ctx.Err() != nil {
				return "io client disconnect"
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return "io server disconnect"
			}
			return "transport close"
		}
		dispatch(env)
	}
}

// --- long-polling ---

type pollTransport struct {
	client    *http.Client
	serverURL string
	token     string
	id        string
	cursor    uint64
}

func (t *pollTransport) get(ctx context.Context, query url.Values) (*pollResponse, error) {
	u, err := endpoint(t.serverURL, "/realtime/poll")
	if err != nil {
		return nil, err
	}
	u.RawQuery = query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+t.token)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("polling: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrUnauthorized
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("polling: unexpected status %d", resp.StatusCode)
	}
	var out pollResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("polling: decoding response: %w", err)
	}
	return &out, nil
}

func dialPolling(ctx context.Context, client *http.Client, serverURL, token string) (*pollTransport, error) {
	t := &pollTransport{client: client, serverURL: serverURL, token: token}
	hctx, cancel := context.WithTimeout(ctx, handshakeTimeout)
	defer cancel()
	resp, err := t.get(hctx, url.Values{})
	if err != nil {
		return nil, err
	}
	t.id = resp.SID
	t.cursor = resp.Cursor
	return t, nil
}

func (t *pollTransport) sid() string { return t.id }

func (t *pollTransport) run(ctx context.Context, dispatch func(envelope)) string {
	for {
		resp, err := t.get(ctx, url.Values{
			"sid":    {t.id},
			"cursor": {strconv.FormatUint(t.cursor, 10)},
		})
		if err != nil {
			if ctx.Err() != nil {
				return "io client disconnect"
			}
			return "transport error"
		}
		for _, env := range resp.Events {
			dispatch(env)
		}
		t.cursor = resp.Cursor
	}
}
