package storage

import (
	"context"
	"time"

	"github.com/facilita/notifier/internal/model"
)

// DefaultListLimit is the page size used when a caller passes limit <= 0.
const DefaultListLimit = 50

// NotificationStore defines the interface for persisting user notifications.
type NotificationStore interface {
	// Create inserts n, assigning an id and creation time when they are empty.
	Create(ctx context.Context, n *model.Notification) error
	// CreateBulk inserts all notifications in one transaction and returns them
	// with ids and creation times filled in.
	CreateBulk(ctx context.Context, list []model.Notification) ([]model.Notification, error)
	// ListByUser returns a user's notifications, newest first.
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.Notification, error)
	// CountUnread returns how many of the user's notifications are unread.
	CountUnread(ctx context.Context, userID string) (int, error)
	// MarkAsRead flags one notification owned by userID as read.
	MarkAsRead(ctx context.Context, id, userID string) (int64, error)
	// MarkAllAsRead flags every unread notification of userID as read.
	MarkAllAsRead(ctx context.Context, userID string) (int64, error)
	// Delete removes one notification owned by userID.
	Delete(ctx context.Context, id, userID string) (int64, error)
	// DeleteOlderThan removes notifications created before cutoff.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
