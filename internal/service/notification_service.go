package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/facilita/notifier/internal/metrics"
	"github.com/facilita/notifier/internal/model"
	"github.com/facilita/notifier/internal/notification"
	"github.com/facilita/notifier/internal/storage"
)

// NotificationEvent is the realtime event name carrying a new notification.
const NotificationEvent = "notification"

// emailTimeout bounds a single offline email delivery.
const emailTimeout = 30 * time.Second

// RealtimeEmitter delivers events to connected users.
type RealtimeEmitter interface {
	EmitToUser(userID, event string, payload any)
	IsUserOnline(userID string) bool
}

// NotificationService manages the notifications of portal users.
type NotificationService interface {
	// Create persists one notification and emits it to its owner.
	Create(ctx context.Context, n model.Notification) (*model.Notification, error)
	// CreateBulk persists a copy of tmpl for every user id and emits each copy.
	CreateBulk(ctx context.Context, userIDs []string, tmpl model.Notification) ([]model.Notification, error)
	// List returns the user's notifications, newest first.
	List(ctx context.Context, userID string, limit, offset int) ([]model.Notification, error)
	// UnreadCount returns the number of unread notifications of the user.
	UnreadCount(ctx context.Context, userID string) (int, error)
	// MarkAsRead flags one notification as read.
	MarkAsRead(ctx context.Context, id, userID string) error
	// MarkAllAsRead flags every notification of the user as read.
	MarkAllAsRead(ctx context.Context, userID string) (int64, error)
	// Delete removes one notification.
	Delete(ctx context.Context, id, userID string) error
	// CleanupOld removes notifications older than retention.
	CleanupOld(ctx context.Context, retention time.Duration) (int64, error)
}

// notificationServiceImpl implements NotificationService.
type notificationServiceImpl struct {
	store   storage.NotificationStore
	users   storage.UserStore
	emitter RealtimeEmitter
	mailer  notification.Provider
	logger  *slog.Logger
	now     func() time.Time
}

// NotificationOption configures optional collaborators of the service.
type NotificationOption func(*notificationServiceImpl)

// WithMailer enables the email fallback for users who are offline when a
// notification is emitted.
func WithMailer(p notification.Provider) NotificationOption {
	return func(s *notificationServiceImpl) { s.mailer = p }
}

// WithNow overrides the clock used for cleanup cutoffs.
func WithNow(now func() time.Time) NotificationOption {
	return func(s *notificationServiceImpl) { s.now = now }
}

// NewNotificationService creates a new NotificationService. emitter may be
// nil, in which case notifications are only persisted.
func NewNotificationService(
	store storage.NotificationStore,
	users storage.UserStore,
	emitter RealtimeEmitter,
	logger *slog.Logger,
	opts ...NotificationOption,
) NotificationService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &notificationServiceImpl{
		store:   store,
		users:   users,
		emitter: emitter,
		logger:  logger,
		now:     time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func validateNotification(n model.Notification) error {
	switch {
	case !n.Type.Valid():
		return &ValidationError{Field: "type", Message: fmt.Sprintf("unknown notification type %q", n.Type)}
	case !n.EntityType.Valid():
		return &ValidationError{Field: "entityType", Message: fmt.Sprintf("unknown entity type %q", n.EntityType)}
	case n.EntityID == "":
		return &ValidationError{Field: "entityId", Message: "entity id is required"}
	case n.Title == "":
		return &ValidationError{Field: "title", Message: "title is required"}
	case n.Message == "":
		return &ValidationError{Field: "message", Message: "message is required"}
	}
	return nil
}

// Create persists n and emits it to n.UserID.
func (s *notificationServiceImpl) Create(ctx context.Context, n model.Notification) (*model.Notification, error) {
	if n.UserID == "" {
		return nil, &ValidationError{Field: "userId", Message: "user id is required"}
	}
	if err := validateNotification(n); err != nil {
		return nil, err
	}
	n.Read = false
	if err := s.store.Create(ctx, &n); err != nil {
		return nil, fmt.Errorf("creating notification: %w", err)
	}
	metrics.NotificationsCreated.WithLabelValues(string(n.Type)).Inc()
	s.deliver(ctx, n)
	return &n, nil
}

// CreateBulk persists one notification per user id. An empty id list is a
// no-op.
func (s *notificationServiceImpl) CreateBulk(ctx context.Context, userIDs []string, tmpl model.Notification) ([]model.Notification, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	if err := validateNotification(tmpl); err != nil {
		return nil, err
	}

	list := make([]model.Notification, 0, len(userIDs))
	seen := make(map[string]struct{}, len(userIDs))
	for _, id := range userIDs {
		if _, dup := seen[id]; dup || id == "" {
			continue
		}
		seen[id] = struct{}{}
		n := tmpl
		n.ID = ""
		n.UserID = id
		n.Read = false
		list = append(list, n)
	}

	created, err := s.store.CreateBulk(ctx, list)
	if err != nil {
		return nil, fmt.Errorf("creating notifications: %w", err)
	}
	metrics.NotificationsCreated.WithLabelValues(string(tmpl.Type)).Add(float64(len(created)))
	for _, n := range created {
		s.deliver(ctx, n)
	}
	return created, nil
}

// deliver emits n to its owner, falling back to email when the owner has no
// live connection and a mailer is configured.
func (s *notificationServiceImpl) deliver(ctx context.Context, n model.Notification) {
	online := false
	if s.emitter != nil {
		online = s.emitter.IsUserOnline(n.UserID)
		// Offline users still get the event buffered for their next poll.
		s.emitter.EmitToUser(n.UserID, NotificationEvent, model.EventFrom(n))
		metrics.RealtimeEventsEmitted.WithLabelValues(NotificationEvent).Inc()
	}
	if online || s.mailer == nil || s.users == nil {
		return
	}

	u, err := s.users.Get(ctx, n.UserID)
	if err != nil {
		s.logger.Warn("notification: recipient lookup failed", "user_id", n.UserID, "error", err)
		return
	}
	if u.Email == "" {
		return
	}

	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), emailTimeout)
	defer cancel()
	if err := s.mailer.Send(sendCtx, notification.EmailMessage(n, u.Email)); err != nil {
		metrics.NotificationEmails.WithLabelValues("failed").Inc()
		s.logger.Error("notification: email fallback failed",
			"user_id", n.UserID, "provider", s.mailer.Name(), "error", err)
		return
	}
	metrics.NotificationEmails.WithLabelValues("sent").Inc()
}

// List returns the user's notifications, newest first.
func (s *notificationServiceImpl) List(ctx context.Context, userID string, limit, offset int) ([]model.Notification, error) {
	if limit <= 0 {
		limit = storage.DefaultListLimit
	}
	if offset < 0 {
		offset = 0
	}
	list, err := s.store.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []model.Notification{}
	}
	return list, nil
}

// UnreadCount returns the number of unread notifications of the user.
func (s *notificationServiceImpl) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.store.CountUnread(ctx, userID)
}

// MarkAsRead flags one notification as read, or returns NotFoundError when
// the user owns no notification with that id.
func (s *notificationServiceImpl) MarkAsRead(ctx context.Context, id, userID string) error {
	n, err := s.store.MarkAsRead(ctx, id, userID)
	if err != nil {
		return err
	}
	if n == 0 {
		return &NotFoundError{Resource: "notification", ID: id}
	}
	return nil
}

// MarkAllAsRead flags every unread notification of the user as read.
func (s *notificationServiceImpl) MarkAllAsRead(ctx context.Context, userID string) (int64, error) {
	return s.store.MarkAllAsRead(ctx, userID)
}

// Delete removes one notification, or returns NotFoundError when the user
// owns no notification with that id.
func (s *notificationServiceImpl) Delete(ctx context.Context, id, userID string) error {
	n, err := s.store.Delete(ctx, id, userID)
	if err != nil {
		return err
	}
	if n == 0 {
		return &NotFoundError{Resource: "notification", ID: id}
	}
	return nil
}

// CleanupOld removes notifications created more than retention ago.
func (s *notificationServiceImpl) CleanupOld(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, errors.New("retention must be positive")
	}
	n, err := s.store.DeleteOlderThan(ctx, s.now().Add(-retention))
	if err != nil {
		return 0, err
	}
	metrics.NotificationsCleanedUp.Add(float64(n))
	return n, nil
}
