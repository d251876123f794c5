package notification

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/facilita/notifier/internal/eventbus"
	"github.com/facilita/notifier/internal/model"
)

// EventPrefix marks bus events that describe content lifecycle changes.
const EventPrefix = "content."

// Bus payload keys.
const (
	keyEntityType = "entityType"
	keyEntityID   = "entityId"
	keyTitle      = "title"
	keyMessage    = "message"
	keyActionURL  = "actionUrl"
	keyMetadata   = "metadata"
	keyRecipients = "recipients"
)

var defaultTitles = map[model.NotificationType]string{
	model.ContentCreated:      "Novo conteudo",
	model.ContentUpdated:      "Conteudo atualizado",
	model.ContentDeleted:      "Conteudo removido",
	model.ContentRestored:     "Conteudo restaurado",
	model.ContentActivated:    "Conteudo ativado",
	model.ContentDeactivated:  "Conteudo desativado",
	model.FavoriteUpdated:     "Favorito atualizado",
	model.FavoriteDeleted:     "Favorito removido",
	model.ContentFavorited:    "Conteudo favoritado",
	model.ContentShared:       "Novo compartilhamento",
	model.ContentShareRevoked: "Compartilhamento revogado",
}

// DefaultTitle returns the title used when a content event carries none.
func DefaultTitle(t model.NotificationType) string {
	if title, ok := defaultTitles[t]; ok {
		return title
	}
	return "Notificacao"
}

// EncodeContentEvent flattens ev into a bus event type and payload.
func EncodeContentEvent(ev model.ContentEvent) (string, map[string]string, error) {
	payload := map[string]string{
		keyEntityType: string(ev.EntityType),
		keyEntityID:   ev.EntityID,
		keyTitle:      ev.Title,
		keyMessage:    ev.Message,
		keyActionURL:  ev.ActionURL,
		keyRecipients: strings.Join(ev.Recipients, ","),
	}
	if len(ev.Metadata) > 0 {
		raw, err := json.Marshal(ev.Metadata)
		if err != nil {
			return "", nil, fmt.Errorf("encoding metadata: %w", err)
		}
		payload[keyMetadata] = string(raw)
	}
	return EventPrefix + string(ev.Type), payload, nil
}

// DecodeContentEvent is the inverse of EncodeContentEvent. It reports false
// for events that are not content events.
func DecodeContentEvent(e eventbus.Event) (model.ContentEvent, bool, error) {
	if !strings.HasPrefix(e.Type, EventPrefix) {
		return model.ContentEvent{}, false, nil
	}
	ev := model.ContentEvent{
		Type:       model.NotificationType(strings.TrimPrefix(e.Type, EventPrefix)),
		EntityType: model.EntityType(e.Payload[keyEntityType]),
		EntityID:   e.Payload[keyEntityID],
		Title:      e.Payload[keyTitle],
		Message:    e.Payload[keyMessage],
		ActionURL:  e.Payload[keyActionURL],
	}
	for _, r := range strings.Split(e.Payload[keyRecipients], ",") {
		if r = strings.TrimSpace(r); r != "" {
			ev.Recipients = append(ev.Recipients, r)
		}
	}
	if raw := e.Payload[keyMetadata]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &ev.Metadata); err != nil {
			return ev, true, fmt.Errorf("decoding metadata: %w", err)
		}
	}
	return ev, true, nil
}

// ValidateContentEvent checks the fields every content event must carry.
func ValidateContentEvent(ev model.ContentEvent) error {
	switch {
	case !ev.Type.Valid():
		return fmt.Errorf("unknown notification type %q", ev.Type)
	case !ev.EntityType.Valid():
		return fmt.Errorf("unknown entity type %q", ev.EntityType)
	case ev.EntityID == "":
		return fmt.Errorf("entity id is required")
	case ev.Message == "":
		return fmt.Errorf("message is required")
	case len(ev.Recipients) == 0:
		return fmt.Errorf("at least one recipient is required")
	}
	return nil
}

// EmailMessage builds the offline email for a persisted notification.
func EmailMessage(n model.Notification, to string) Message {
	return Message{
		Subject:   buildSubject(n.Title),
		Body:      n.Message,
		ActionURL: n.ActionURL,
		To:        []string{to},
	}
}
