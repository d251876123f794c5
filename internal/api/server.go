package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/facilita/notifier/internal/service"
)

const errInvalidJSONBody = "invalid JSON body"

// Server holds all dependencies for the REST API handlers.
type Server struct {
	notificationSvc service.NotificationService
	userSvc         service.UserService
	contentSvc      service.ContentEventService
	auth            Authenticator
	logger          *slog.Logger
}

// New creates a new API Server backed by the provided services.
func New(
	notificationSvc service.NotificationService,
	userSvc service.UserService,
	contentSvc service.ContentEventService,
	auth Authenticator,
	logger *slog.Logger,
) *Server {
	return &Server{
		notificationSvc: notificationSvc,
		userSvc:         userSvc,
		contentSvc:      contentSvc,
		auth:            auth,
		logger:          logger,
	}
}

// Mount registers all API routes under the given router.
func (s *Server) Mount(r chi.Router) {
	r.Get("/version", s.handleVersion)

	r.Group(func(r chi.Router) {
		r.Use(s.requireUser)

		r.Get("/me", s.handleMe)

		// Notification center
		r.Get("/notifications", s.handleListNotifications)
		r.Get("/notifications/unread-count", s.handleUnreadCount)
		r.Patch("/notifications/read-all", s.handleMarkAllAsRead)
		r.Patch("/notifications/{id}/read", s.handleMarkAsRead)
		r.Delete("/notifications/{id}", s.handleDeleteNotification)

		// Content lifecycle events
		r.Post("/content-events", s.handlePublishContentEvent)
	})
}

// ─── Shared helpers ───────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps typed service errors to HTTP statuses. Anything
// else is logged and reported as a 500 with the generic msg.
func (s *Server) writeServiceError(w http.ResponseWriter, err error, msg string, attrs ...any) {
	var (
		ve  *service.ValidationError
		nfe *service.NotFoundError
		ce  *service.ConflictError
	)
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Error())
	case errors.As(err, &nfe):
		writeError(w, http.StatusNotFound, nfe.Error())
	case errors.As(err, &ce):
		writeError(w, http.StatusConflict, ce.Error())
	default:
		s.logger.Error(msg, append(attrs, "error", err)...)
		writeError(w, http.StatusInternalServerError, msg)
	}
}
