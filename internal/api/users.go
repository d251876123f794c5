package api

import "net/http"

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u, err := s.userSvc.GetActive(r.Context(), UserID(r.Context()))
	if err != nil {
		s.writeServiceError(w, err, "failed to load user")
		return
	}
	writeJSON(w, http.StatusOK, u)
}
