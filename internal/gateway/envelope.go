// Package gateway is the realtime side of the notification backend. It keeps
// one room per user, pushes events to connected websocket clients and keeps
// a short per-user backlog that HTTP long-poll clients read from.
package gateway

import (
	"encoding/json"
	"fmt"
)

// Event names written by the gateway itself.
const (
	EventHello = "hello"
	EventPing  = "ping"
)

// Envelope is one realtime message on the wire.
type Envelope struct {
	Seq   uint64          `json:"seq,omitempty"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Hello is the data of the first envelope a client receives.
type Hello struct {
	SID string `json:"sid"`
}

// PollResponse is the body returned by the long-poll endpoint.
type PollResponse struct {
	SID    string     `json:"sid"`
	Cursor uint64     `json:"cursor"`
	Events []Envelope `json:"events"`
}

// NewEnvelope encodes payload as the data of a new envelope.
func NewEnvelope(event string, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encoding %q payload: %w", event, err)
	}
	return Envelope{Event: event, Data: raw}, nil
}
