// Package model holds the notification domain types shared by the realtime
// backend and the client-side stores.
package model

import "time"

// NotificationType enumerates the content lifecycle events a user can be
// notified about.
type NotificationType string

// Notification types.
const (
	ContentDeleted      NotificationType = "CONTENT_DELETED"
	ContentCreated      NotificationType = "CONTENT_CREATED"
	ContentUpdated      NotificationType = "CONTENT_UPDATED"
	ContentRestored     NotificationType = "CONTENT_RESTORED"
	ContentActivated    NotificationType = "CONTENT_ACTIVATED"
	ContentDeactivated  NotificationType = "CONTENT_DEACTIVATED"
	FavoriteUpdated     NotificationType = "FAVORITE_UPDATED"
	FavoriteDeleted     NotificationType = "FAVORITE_DELETED"
	ContentFavorited    NotificationType = "CONTENT_FAVORITED"
	ContentShared       NotificationType = "CONTENT_SHARED"
	ContentShareRevoked NotificationType = "CONTENT_SHARE_REVOKED"
)

var notificationTypes = map[NotificationType]struct{}{
	ContentDeleted: {}, ContentCreated: {}, ContentUpdated: {}, ContentRestored: {},
	ContentActivated: {}, ContentDeactivated: {}, FavoriteUpdated: {}, FavoriteDeleted: {},
	ContentFavorited: {}, ContentShared: {}, ContentShareRevoked: {},
}

// Valid reports whether t is a known notification type.
func (t NotificationType) Valid() bool {
	_, ok := notificationTypes[t]
	return ok
}

// EntityType identifies the kind of content a notification refers to.
type EntityType string

// Entity types.
const (
	EntityLink     EntityType = "LINK"
	EntitySchedule EntityType = "SCHEDULE"
	EntityNote     EntityType = "NOTE"
)

// Valid reports whether e is a known entity type.
func (e EntityType) Valid() bool {
	switch e {
	case EntityLink, EntitySchedule, EntityNote:
		return true
	}
	return false
}

// Notification is a durable, server-originated event record shown in the
// notification center.
type Notification struct {
	ID         string           `json:"id"`
	UserID     string           `json:"userId,omitempty"`
	Type       NotificationType `json:"type"`
	EntityType EntityType       `json:"entityType"`
	EntityID   string           `json:"entityId"`
	Title      string           `json:"title"`
	Message    string           `json:"message"`
	ActionURL  string           `json:"actionUrl,omitempty"`
	Metadata   map[string]any   `json:"metadata,omitempty"`
	Read       bool             `json:"read"`
	CreatedAt  time.Time        `json:"createdAt"`
}

// Event is the payload carried by the realtime "notification" event.
// ID is the persisted notification id when the server knows it; clients
// must tolerate it being empty.
type Event struct {
	ID         string           `json:"id,omitempty"`
	Type       NotificationType `json:"type"`
	EntityType EntityType       `json:"entityType"`
	EntityID   string           `json:"entityId"`
	Title      string           `json:"title"`
	Message    string           `json:"message"`
	ActionURL  string           `json:"actionUrl,omitempty"`
	Metadata   map[string]any   `json:"metadata,omitempty"`
}

// EventFrom builds the realtime payload for a persisted notification.
func EventFrom(n Notification) Event {
	return Event{
		ID:         n.ID,
		Type:       n.Type,
		EntityType: n.EntityType,
		EntityID:   n.EntityID,
		Title:      n.Title,
		Message:    n.Message,
		ActionURL:  n.ActionURL,
		Metadata:   n.Metadata,
	}
}

// ContentEvent describes a change to a link, schedule or note that should be
// fanned out to a set of recipients.
type ContentEvent struct {
	Type       NotificationType `json:"type" yaml:"type"`
	EntityType EntityType       `json:"entityType" yaml:"entityType"`
	EntityID   string           `json:"entityId" yaml:"entityId"`
	Title      string           `json:"title,omitempty" yaml:"title,omitempty"`
	Message    string           `json:"message" yaml:"message"`
	ActionURL  string           `json:"actionUrl,omitempty" yaml:"actionUrl,omitempty"`
	Metadata   map[string]any   `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	Recipients []string         `json:"recipients" yaml:"recipients"`
}
