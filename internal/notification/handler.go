package notification

import (
	"context"
	"log/slog"
	"time"

	"github.com/facilita/notifier/internal/eventbus"
	"github.com/facilita/notifier/internal/model"
)

// handleTimeout bounds the work done for a single bus event.
const handleTimeout = 30 * time.Second

// Creator persists a notification for each recipient and emits it.
type Creator interface {
	CreateBulk(ctx context.Context, userIDs []string, tmpl model.Notification) ([]model.Notification, error)
}

// ContentHandler receives content lifecycle events from the bus and turns
// them into notifications for the listed recipients.
type ContentHandler struct {
	creator Creator
	logger  *slog.Logger
}

// NewContentHandler creates a new ContentHandler.
func NewContentHandler(creator Creator, logger *slog.Logger) *ContentHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContentHandler{creator: creator, logger: logger}
}

// Handle processes one bus event. Events outside the content namespace are
// ignored; malformed ones are logged and dropped.
func (h *ContentHandler) Handle(e eventbus.Event) {
	ev, ok, err := DecodeContentEvent(e)
	if !ok {
		return
	}
	if err != nil {
		h.logger.Warn("notification: malformed content event", "event_type", e.Type, "error", err)
		return
	}
	if err := ValidateContentEvent(ev); err != nil {
		h.logger.Warn("notification: invalid content event", "event_type", e.Type, "error", err)
		return
	}

	title := ev.Title
	if title == "" {
		title = DefaultTitle(ev.Type)
	}

	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	created, err := h.creator.CreateBulk(ctx, ev.Recipients, model.Notification{
		Type:       ev.Type,
		EntityType: ev.EntityType,
		EntityID:   ev.EntityID,
		Title:      title,
		Message:    ev.Message,
		ActionURL:  ev.ActionURL,
		Metadata:   ev.Metadata,
	})
	if err != nil {
		h.logger.Error("notification: creating notifications failed",
			"event_type", e.Type, "recipients", len(ev.Recipients), "error", err)
		return
	}
	h.logger.Info("notification: content event fanned out",
		"event_type", e.Type, "entity_id", ev.EntityID, "created", len(created))
}
