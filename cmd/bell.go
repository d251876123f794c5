package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/facilita/notifier/internal/inbox"
)

// notificationAPI is the part of the REST client the bell mutates through.
type notificationAPI interface {
	MarkAsRead(ctx context.Context, id string) error
	MarkAllAsRead(ctx context.Context) error
	DeleteNotification(ctx context.Context, id string) error
}

// bell applies read and delete actions: the server is updated first and the
// inbox only after it accepted the change.
type bell struct {
	api   notificationAPI
	inbox *inbox.Store
}

// resolve turns a 1-based position in the inbox into a notification id.
// Anything that is not a valid position is taken as an id.
func (b *bell) resolve(ref string) string {
	if n, err := strconv.Atoi(ref); err == nil {
		list := b.inbox.Snapshot().Notifications
		if n >= 1 && n <= len(list) {
			return list[n-1].ID
		}
	}
	return ref
}

func (b *bell) markRead(ctx context.Context, id string) error {
	if err := b.api.MarkAsRead(ctx, id); err != nil {
		return fmt.Errorf("marking %s as read: %w", id, err)
	}
	b.inbox.MarkAsRead(id)
	return nil
}

func (b *bell) markAllRead(ctx context.Context) error {
	if err := b.api.MarkAllAsRead(ctx); err != nil {
		return fmt.Errorf("marking all as read: %w", err)
	}
	b.inbox.MarkAllAsRead()
	return nil
}

func (b *bell) remove(ctx context.Context, id string) error {
	if err := b.api.DeleteNotification(ctx, id); err != nil {
		return fmt.Errorf("deleting %s: %w", id, err)
	}
	b.inbox.Remove(id)
	return nil
}

// errQuit is returned by run for the quit command.
var errQuit = errors.New("quit")

// run executes one line typed into the watch view and returns a short
// confirmation.
func (b *bell) run(ctx context.Context, line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	arg := func() (string, error) {
		if len(fields) != 2 {
			return "", fmt.Errorf("usage: %s <n>", fields[0])
		}
		return fields[1], nil
	}

	switch fields[0] {
	case "q", "quit":
		return "", errQuit
	case "R":
		if err := b.markAllRead(ctx); err != nil {
			return "", err
		}
		return "All notifications marked as read", nil
	case "r":
		ref, err := arg()
		if err != nil {
			return "", err
		}
		if err := b.markRead(ctx, b.resolve(ref)); err != nil {
			return "", err
		}
		return "Marked as read", nil
	case "d":
		ref, err := arg()
		if err != nil {
			return "", err
		}
		if err := b.remove(ctx, b.resolve(ref)); err != nil {
			return "", err
		}
		return "Notification deleted", nil
	}
	return "", fmt.Errorf("unknown command %q; use r <n>, R, d <n> or q", fields[0])
}
