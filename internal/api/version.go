package api

import (
	"net/http"

	"github.com/facilita/notifier/internal/build"
)

// handleVersion is public so clients can check compatibility before login.
func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"name":       "facilita-notifier",
		"version":    build.Version,
		"commit":     build.CommitSHA,
		"build_date": build.BuildDate,
	})
}
