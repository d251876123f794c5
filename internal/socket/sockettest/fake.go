// Package sockettest provides an in-memory socket.Conn for tests.
package sockettest

import (
	"encoding/json"
	"sync"

	"github.com/facilita/notifier/internal/socket"
)

// FakeConn is a socket.Conn that records calls and lets tests emit events.
type FakeConn struct {
	mu        sync.Mutex
	token     string
	handlers  map[string][]socket.Handler
	connected bool
	closed    bool

	Connects int
	Tokens   []string
}

var _ socket.Conn = (*FakeConn)(nil)

// NewFakeConn returns a FakeConn created with token.
func NewFakeConn(token string) *FakeConn {
	return &FakeConn{token: token, handlers: make(map[string][]socket.Handler), Tokens: []string{token}}
}

// Factory returns a socket.Factory that records every FakeConn it creates.
func Factory(created *[]*FakeConn, mu *sync.Mutex) socket.Factory {
	return func(token string) socket.Conn {
		c := NewFakeConn(token)
		mu.Lock()
		*created = append(*created, c)
		mu.Unlock()
		return c
	}
}

func (f *FakeConn) ID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.connected {
		return ""
	}
	return "fake-sid"
}

func (f *FakeConn) On(event string, h socket.Handler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[event] = append(f.handlers[event], h)
}

func (f *FakeConn) Off(event string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.handlers, event)
}

func (f *FakeConn) SetToken(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = token
	f.Tokens = append(f.Tokens, token)
}

func (f *FakeConn) Connect() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = true
	f.closed = false
	f.Connects++
}

func (f *FakeConn) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = false
	f.closed = true
}

func (f *FakeConn) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

// Token returns the token the next handshake would use.
func (f *FakeConn) Token() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

// Closed reports whether Close was called after the last Connect.
func (f *FakeConn) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// HandlerCount returns how many handlers are registered for event.
func (f *FakeConn) HandlerCount(event string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.handlers[event])
}

// Emit delivers v, encoded as JSON, to the handlers of event.
func (f *FakeConn) Emit(event string, v any) {
	raw, _ := json.Marshal(v)
	f.EmitRaw(event, raw)
}

// EmitRaw delivers raw to the handlers of event.
func (f *FakeConn) EmitRaw(event string, raw json.RawMessage) {
	f.mu.Lock()
	handlers := append([]socket.Handler(nil), f.handlers[event]...)
	f.mu.Unlock()
	for _, h := range handlers {
		h(raw)
	}
}
