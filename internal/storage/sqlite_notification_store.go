package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/facilita/notifier/internal/model"
)

// SQLiteNotificationStore implements NotificationStore backed by SQLite.
type SQLiteNotificationStore struct {
	db *sql.DB
}

// NewSQLiteNotificationStore returns a new SQLiteNotificationStore.
func NewSQLiteNotificationStore(db *sql.DB) *SQLiteNotificationStore {
	return &SQLiteNotificationStore{db: db}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertNotification(ctx context.Context, db execer, n *model.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	// Timestamps are compared as text by SQLite; keep them in one zone.
	n.CreatedAt = n.CreatedAt.UTC()

	metadata := ""
	if len(n.Metadata) > 0 {
		raw, err := json.Marshal(n.Metadata)
		if err != nil {
			return fmt.Errorf("encoding notification metadata: %w", err)
		}
		metadata = string(raw)
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, type, entity_type, entity_id, title, message, action_url, metadata, read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.UserID, string(n.Type), string(n.EntityType), n.EntityID,
		n.Title, n.Message, n.ActionURL, metadata, n.Read, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting notification: %w", err)
	}
	return nil
}

// Create inserts a single notification.
func (s *SQLiteNotificationStore) Create(ctx context.Context, n *model.Notification) error {
	return insertNotification(ctx, s.db, n)
}

// CreateBulk inserts the notifications inside a single transaction.
func (s *SQLiteNotificationStore) CreateBulk(ctx context.Context, list []model.Notification) ([]model.Notification, error) {
	if len(list) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin bulk insert: %w", err)
	}

	out := make([]model.Notification, len(list))
	for i := range list {
		n := list[i]
		if err := insertNotification(ctx, tx, &n); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Printf("failed to rollback bulk notification insert: %v", rbErr)
			}
			return nil, err
		}
		out[i] = n
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit bulk insert: %w", err)
	}
	return out, nil
}

// ListByUser returns the user's notifications ordered by created_at descending.
func (s *SQLiteNotificationStore) ListByUser(ctx context.Context, userID string, limit, offset int) (list []model.Notification, err error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, type, entity_type, entity_id, title, message, action_url, metadata, read, created_at
		FROM notifications
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ? OFFSET ?`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("querying notifications: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", cerr)
		}
	}()

	list = make([]model.Notification, 0)
	for rows.Next() {
		var (
			n          model.Notification
			typ, etype string
			metadata   string
		)
		if err := rows.Scan(&n.ID, &n.UserID, &typ, &etype, &n.EntityID, &n.Title,
			&n.Message, &n.ActionURL, &metadata, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning notification row: %w", err)
		}
		n.Type = model.NotificationType(typ)
		n.EntityType = model.EntityType(etype)
		if metadata != "" {
			if err := json.Unmarshal([]byte(metadata), &n.Metadata); err != nil {
				return nil, fmt.Errorf("decoding metadata of notification %q: %w", n.ID, err)
			}
		}
		list = append(list, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating notification rows: %w", err)
	}
	return list, nil
}

// CountUnread returns the number of unread notifications for the user.
func (s *SQLiteNotificationStore) CountUnread(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM notifications WHERE user_id = ? AND read = 0", userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting unread notifications: %w", err)
	}
	return n, nil
}

// MarkAsRead flags one notification as read and returns the affected row count.
func (s *SQLiteNotificationStore) MarkAsRead(ctx context.Context, id, userID string) (int64, error) {
	return s.exec(ctx, "marking notification read",
		"UPDATE notifications SET read = 1 WHERE id = ? AND user_id = ?", id, userID)
}

// MarkAllAsRead flags all unread notifications of the user as read.
func (s *SQLiteNotificationStore) MarkAllAsRead(ctx context.Context, userID string) (int64, error) {
	return s.exec(ctx, "marking all notifications read",
		"UPDATE notifications SET read = 1 WHERE user_id = ? AND read = 0", userID)
}

// Delete removes a notification owned by the user.
func (s *SQLiteNotificationStore) Delete(ctx context.Context, id, userID string) (int64, error) {
	return s.exec(ctx, "deleting notification",
		"DELETE FROM notifications WHERE id = ? AND user_id = ?", id, userID)
}

// DeleteOlderThan removes notifications created before cutoff.
func (s *SQLiteNotificationStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return s.exec(ctx, "deleting old notifications",
		"DELETE FROM notifications WHERE created_at < ?", cutoff.UTC())
}

func (s *SQLiteNotificationStore) exec(ctx context.Context, what, query string, args ...any) (int64, error) {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", what, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: reading affected rows: %w", what, err)
	}
	return n, nil
}
