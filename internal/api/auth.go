package api

import (
	"context"
	"net/http"

	"github.com/facilita/notifier/internal/gateway"
)

// Authenticator resolves a bearer token to an active user id.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (string, error)
}

type ctxKey struct{}

// requireUser rejects requests without a valid bearer token and stores the
// caller's user id in the request context.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := gateway.TokenFromRequest(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		userID, err := s.auth.Authenticate(r.Context(), token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, userID)))
	})
}

// UserID returns the authenticated user id set by the auth middleware.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}
