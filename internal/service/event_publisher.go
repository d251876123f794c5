package service

import (
	"github.com/facilita/notifier/internal/model"
	"github.com/facilita/notifier/internal/notification"
)

// EventPublisher is the interface for publishing application events.
// Services use this interface to emit events without depending on a concrete
// event bus implementation.
type EventPublisher interface {
	Publish(eventType string, payload map[string]string)
}

// ContentEventService accepts content lifecycle events and hands them to the
// bus, where the notification handler fans them out.
type ContentEventService interface {
	Publish(ev model.ContentEvent) error
}

type contentEventServiceImpl struct {
	publisher EventPublisher
}

// NewContentEventService creates a new ContentEventService.
func NewContentEventService(publisher EventPublisher) ContentEventService {
	return &contentEventServiceImpl{publisher: publisher}
}

// Publish validates ev and enqueues it. Delivery is asynchronous.
func (s *contentEventServiceImpl) Publish(ev model.ContentEvent) error {
	if err := notification.ValidateContentEvent(ev); err != nil {
		return &ValidationError{Message: err.Error()}
	}
	eventType, payload, err := notification.EncodeContentEvent(ev)
	if err != nil {
		return &ValidationError{Field: "metadata", Message: err.Error()}
	}
	s.publisher.Publish(eventType, payload)
	return nil
}

