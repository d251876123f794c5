package socket

import (
	"log/slog"
	"sync"
)

// TokenSource returns the current access token.
type TokenSource func() string

// Factory creates an unconnected handle authenticated with token.
type Factory func(token string) Conn

// NewClientFactory returns a Factory producing Clients configured by opts.
func NewClientFactory(opts Options) Factory {
	return func(token string) Conn {
		o := opts
		o.Token = token
		return NewClient(o)
	}
}

// Manager owns at most one shared connection handle. It is the only place
// handles are created.
type Manager struct {
	mu      sync.Mutex
	conn    Conn
	factory Factory
	tokens  TokenSource
	logger  *slog.Logger
}

// NewManager creates a Manager without a connection.
func NewManager(factory Factory, tokens TokenSource, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{factory: factory, tokens: tokens, logger: logger}
}

// GetConnection returns the live handle, creating and connecting one with
// the current token when none exists.
func (m *Manager) GetConnection() Conn {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conn == nil {
		token := m.tokens()
		m.logger.Info("socket: initializing connection", "has_token", token != "")
		m.conn = m.factory(token)
		m.conn.Connect()
	}
	return m.conn
}

// Current returns the live handle or nil.
func (m *Manager) Current() Conn {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conn
}

// Disconnect closes and discards the handle. It is a no-op without one.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	c := m.conn
	m.conn = nil
	m.mu.Unlock()
	if c != nil {
		c.Close()
	}
}

// Reconnect re-authenticates the existing handle with the current token.
// Registered handlers are kept. It is a no-op without a handle.
func (m *Manager) Reconnect() {
	m.mu.Lock()
	c := m.conn
	m.mu.Unlock()
	if c == nil {
		return
	}
	c.SetToken(m.tokens())
	c.Connect()
}
