package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/facilita/notifier/internal/metrics"
)

const (
	// pollGrace is how long a long-poll client counts as online after its
	// last request.
	pollGrace = 60 * time.Second
	// sweepInterval is how often idle pollers are forgotten.
	sweepInterval = time.Minute
)

// Broadcaster fans envelopes out to every gateway instance.
type Broadcaster interface {
	Publish(ctx context.Context, userID string, env Envelope) error
	Subscribe(ctx context.Context, deliver func(userID string, env Envelope)) error
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithClock sets the clock used for poller expiry.
func WithClock(c clockwork.Clock) HubOption {
	return func(h *Hub) { h.clock = c }
}

// WithBroadcaster routes emitted envelopes through b so that users connected
// to other instances receive them too.
func WithBroadcaster(b Broadcaster) HubOption {
	return func(h *Hub) { h.broadcaster = b }
}

// WithLogger sets the hub logger.
func WithLogger(l *slog.Logger) HubOption {
	return func(h *Hub) { h.logger = l }
}

// Hub tracks connected clients in per-user rooms.
type Hub struct {
	mu       sync.RWMutex
	rooms    map[string]map[*wsClient]struct{}
	backlogs map[string]*backlog
	pollers  map[string]time.Time

	broadcaster Broadcaster
	clock       clockwork.Clock
	logger      *slog.Logger
}

// NewHub creates an empty hub.
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		rooms:    make(map[string]map[*wsClient]struct{}),
		backlogs: make(map[string]*backlog),
		pollers:  make(map[string]time.Time),
		clock:    clockwork.NewRealClock(),
		logger:   slog.Default(),
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Run sweeps idle pollers and, when a broadcaster is set, delivers envelopes
// published by any instance. It returns when ctx is done.
func (h *Hub) Run(ctx context.Context) {
	if h.broadcaster != nil {
		go func() {
			if err := h.broadcaster.Subscribe(ctx, h.deliverLocal); err != nil && ctx.Err() == nil {
				h.logger.Error("gateway: broadcaster subscription ended", "error", err)
			}
		}()
	}

	ticker := h.clock.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-ticker.Chan():
			h.sweepPollers()
		}
	}
}

func (h *Hub) register(c *wsClient) {
	h.mu.Lock()
	room, ok := h.rooms[c.userID]
	if !ok {
		room = make(map[*wsClient]struct{})
		h.rooms[c.userID] = room
	}
	room[c] = struct{}{}
	h.mu.Unlock()

	metrics.RealtimeConnections.WithLabelValues("websocket").Inc()
	h.logger.Info("gateway: websocket connected", "user_id", c.userID, "sid", c.id)
}

func (h *Hub) unregister(c *wsClient) {
	h.mu.Lock()
	room, ok := h.rooms[c.userID]
	if ok {
		if _, held := room[c]; !held {
			ok = false
		} else {
			delete(room, c)
			if len(room) == 0 {
				delete(h.rooms, c.userID)
			}
		}
	}
	h.mu.Unlock()

	if !ok {
		return
	}
	c.closeSend()
	metrics.RealtimeConnections.WithLabelValues("websocket").Dec()
	h.logger.Info("gateway: websocket disconnected", "user_id", c.userID, "sid", c.id)
}

// touchPoller marks userID as reachable through long-polling.
func (h *Hub) touchPoller(userID string) {
	h.mu.Lock()
	_, known := h.pollers[userID]
	h.pollers[userID] = h.clock.Now()
	h.mu.Unlock()
	if !known {
		metrics.RealtimeConnections.WithLabelValues("polling").Inc()
	}
}

func (h *Hub) sweepPollers() {
	cutoff := h.clock.Now().Add(-pollGrace)
	h.mu.Lock()
	removed := 0
	for id, seen := range h.pollers {
		if seen.Before(cutoff) {
			delete(h.pollers, id)
			removed++
		}
	}
	h.mu.Unlock()
	if removed > 0 {
		metrics.RealtimeConnections.WithLabelValues("polling").Sub(float64(removed))
	}
}

func (h *Hub) backlogFor(userID string) *backlog {
	h.mu.RLock()
	b, ok := h.backlogs[userID]
	h.mu.RUnlock()
	if ok {
		return b
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if b, ok = h.backlogs[userID]; !ok {
		b = newBacklog()
		h.backlogs[userID] = b
	}
	return b
}

// EmitToUser sends event with payload to every connection of userID.
func (h *Hub) EmitToUser(userID, event string, payload any) {
	env, err := NewEnvelope(event, payload)
	if err != nil {
		h.logger.Error("gateway: dropping event", "event", event, "error", err)
		return
	}
	if h.broadcaster != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := h.broadcaster.Publish(ctx, userID, env); err == nil {
			return
		}
		h.logger.Warn("gateway: broadcast failed, delivering locally", "user_id", userID, "error", err)
	}
	h.deliverLocal(userID, env)
}

// EmitToUsers sends event with payload to each of userIDs.
func (h *Hub) EmitToUsers(userIDs []string, event string, payload any) {
	for _, id := range userIDs {
		h.EmitToUser(id, event, payload)
	}
}

func (h *Hub) deliverLocal(userID string, env Envelope) {
	env = h.backlogFor(userID).append(env)
	data, err := json.Marshal(env)
	if err != nil {
		h.logger.Error("gateway: encoding envelope failed", "error", err)
		return
	}

	h.mu.RLock()
	clients := make([]*wsClient, 0, len(h.rooms[userID]))
	for c := range h.rooms[userID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if !c.enqueue(data) {
			h.logger.Warn("gateway: client send buffer full, dropping connection", "user_id", userID, "sid", c.id)
			h.unregister(c)
			c.conn.Close()
		}
	}
}

// IsUserOnline reports whether userID has a websocket connection or polled
// recently.
func (h *Hub) IsUserOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.rooms[userID]) > 0 {
		return true
	}
	seen, ok := h.pollers[userID]
	return ok && h.clock.Since(seen) <= pollGrace
}

// ConnectedCount returns the number of websocket connections plus the number
// of users currently long-polling.
func (h *Hub) ConnectedCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := len(h.pollers)
	for _, room := range h.rooms {
		n += len(room)
	}
	return n
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	var clients []*wsClient
	for _, room := range h.rooms {
		for c := range room {
			clients = append(clients, c)
		}
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.unregister(c)
		c.conn.Close()
	}
	h.logger.Info("gateway: hub shutting down", "closed", len(clients))
}
