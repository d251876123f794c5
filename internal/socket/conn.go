// Package socket owns the client's single realtime connection to the
// notification backend.
package socket

import "encoding/json"

// Lifecycle events delivered to handlers in addition to server events.
const (
	EventConnect      = "connect"
	EventDisconnect   = "disconnect"
	EventConnectError = "connect_error"
)

// Transport names in order of preference.
const (
	TransportWebSocket = "websocket"
	TransportPolling   = "polling"
)

// Handler receives the raw data of an event. For lifecycle events the data
// is a JSON string with the reason or error, or nil.
type Handler func(data json.RawMessage)

// Conn is a realtime connection handle.
type Conn interface {
	// ID is the server-assigned session id, empty while disconnected.
	ID() string
	// On registers h for event. Handlers survive reconnects.
	On(event string, h Handler)
	// Off removes every handler registered for event.
	Off(event string)
	// SetToken replaces the token used by the next handshake.
	SetToken(token string)
	// Connect starts connecting, or re-establishes a live connection with
	// the current token.
	Connect()
	// Close disconnects and stops reconnecting.
	Close()
	// Connected reports whether a transport is currently established.
	Connected() bool
}
