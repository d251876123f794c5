// Package notification turns content lifecycle events into per-user
// notifications and delivers the email fallback for users who are offline
// when a notification is emitted.
package notification

import "context"

// Message is the content to be delivered by a Provider.
type Message struct {
	Subject string
	Body    string
	// ActionURL, when set, is rendered as a link in the HTML body.
	ActionURL string
	To        []string
}

// Provider is the interface for notification delivery backends.
type Provider interface {
	// Name returns the provider identifier (e.g. "smtp").
	Name() string
	// Send delivers the message using the provider's transport.
	Send(ctx context.Context, msg Message) error
}
