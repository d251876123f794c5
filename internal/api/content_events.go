package api

import (
	"encoding/json"
	"net/http"

	"github.com/facilita/notifier/internal/model"
)

// handlePublishContentEvent accepts a content lifecycle event. Recipients are
// notified asynchronously, so the response is 202.
func (s *Server) handlePublishContentEvent(w http.ResponseWriter, r *http.Request) {
	var ev model.ContentEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidJSONBody)
		return
	}
	if err := s.contentSvc.Publish(ev); err != nil {
		s.writeServiceError(w, err, "failed to publish content event", "type", ev.Type)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}
