package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/facilita/notifier/internal/metrics"
)

// DefaultPollTimeout is how long a long-poll request waits for new events.
const DefaultPollTimeout = 25 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are policed by the CORS layer.
	CheckOrigin: func(*http.Request) bool { return true },
}

// UserAuthenticator resolves a handshake token to a user id.
type UserAuthenticator interface {
	Authenticate(ctx context.Context, token string) (string, error)
}

// Handler serves the websocket and long-poll endpoints of a Hub.
type Handler struct {
	hub         *Hub
	auth        UserAuthenticator
	pollTimeout time.Duration
}

// NewHandler creates a new Handler. pollTimeout <= 0 uses DefaultPollTimeout.
func NewHandler(hub *Hub, auth UserAuthenticator, pollTimeout time.Duration) *Handler {
	if pollTimeout <= 0 {
		pollTimeout = DefaultPollTimeout
	}
	return &Handler{hub: hub, auth: auth, pollTimeout: pollTimeout}
}

func (h *Handler) authenticate(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, err := h.auth.Authenticate(r.Context(), TokenFromRequest(r))
	if err != nil {
		metrics.RealtimeAuthFailures.Inc()
		h.hub.logger.Warn("gateway: handshake rejected", "remote", r.RemoteAddr, "error", err)
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return "", false
	}
	return userID, true
}

// ServeWS upgrades an authenticated request and joins the user's room.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.hub.logger.Warn("gateway: upgrade failed", "user_id", userID, "error", err)
		return
	}

	c := newWSClient(uuid.NewString(), userID, conn, h.hub)
	hello, err := NewEnvelope(EventHello, Hello{SID: c.id})
	if err == nil {
		if data, err := json.Marshal(hello); err == nil {
			c.enqueue(data)
		}
	}
	h.hub.register(c)

	go c.writePump()
	go c.readPump()
}

// ServePoll answers a long-poll request. Without a cursor it returns the
// current cursor at once; with one it returns the envelopes after it, waiting
// up to the poll timeout for the first to arrive.
func (h *Handler) ServePoll(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticate(w, r)
	if !ok {
		return
	}
	h.hub.touchPoller(userID)

	sid := r.URL.Query().Get("sid")
	if sid == "" {
		sid = uuid.NewString()
	}
	b := h.hub.backlogFor(userID)

	raw := r.URL.Query().Get("cursor")
	if raw == "" {
		writeJSON(w, http.StatusOK, PollResponse{SID: sid, Cursor: b.current(), Events: []Envelope{}})
		return
	}
	cursor, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid cursor")
		return
	}

	timer := time.NewTimer(h.pollTimeout)
	defer timer.Stop()
	for {
		events, seq, wake := b.since(cursor)
		if len(events) > 0 || seq < cursor {
			if events == nil {
				events = []Envelope{}
			}
			writeJSON(w, http.StatusOK, PollResponse{SID: sid, Cursor: seq, Events: events})
			return
		}
		select {
		case <-wake:
		case <-timer.C:
			writeJSON(w, http.StatusOK, PollResponse{SID: sid, Cursor: seq, Events: []Envelope{}})
			return
		case <-r.Context().Done():
			return
		}
		h.hub.touchPoller(userID)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
