package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

const defaultListLimit = 50

// handleListNotifications returns the caller's notifications, newest first.
// Accepts optional ?limit=N (default 50) and ?offset=M query parameters.
func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultListLimit)
	offset := queryInt(r, "offset", 0)

	list, err := s.notificationSvc.List(r.Context(), UserID(r.Context()), limit, offset)
	if err != nil {
		s.writeServiceError(w, err, "failed to list notifications")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	n, err := s.notificationSvc.UnreadCount(r.Context(), UserID(r.Context()))
	if err != nil {
		s.writeServiceError(w, err, "failed to count unread notifications")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": n})
}

func (s *Server) handleMarkAsRead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.notificationSvc.MarkAsRead(r.Context(), id, UserID(r.Context())); err != nil {
		s.writeServiceError(w, err, "failed to mark notification as read", "id", id)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleMarkAllAsRead(w http.ResponseWriter, r *http.Request) {
	if _, err := s.notificationSvc.MarkAllAsRead(r.Context(), UserID(r.Context())); err != nil {
		s.writeServiceError(w, err, "failed to mark notifications as read")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleDeleteNotification(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.notificationSvc.Delete(r.Context(), id, UserID(r.Context())); err != nil {
		s.writeServiceError(w, err, "failed to delete notification", "id", id)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
