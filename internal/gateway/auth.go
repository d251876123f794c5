package gateway

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/facilita/notifier/internal/model"
)

// ErrUnauthorized is returned when a handshake carries no acceptable token.
var ErrUnauthorized = errors.New("unauthorized")

// TokenVerifier returns the user id a token was issued for.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// ActiveUserLookup returns the user only when it exists and is active.
type ActiveUserLookup interface {
	GetActive(ctx context.Context, id string) (*model.User, error)
}

// Authenticator resolves a handshake token to an active user id.
type Authenticator struct {
	tokens TokenVerifier
	users  ActiveUserLookup
}

// NewAuthenticator creates a new Authenticator.
func NewAuthenticator(tokens TokenVerifier, users ActiveUserLookup) *Authenticator {
	return &Authenticator{tokens: tokens, users: users}
}

// Authenticate verifies token and checks that its subject is an active user.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrUnauthorized
	}
	userID, err := a.tokens.Verify(token)
	if err != nil {
		return "", errors.Join(ErrUnauthorized, err)
	}
	u, err := a.users.GetActive(ctx, userID)
	if err != nil {
		return "", errors.Join(ErrUnauthorized, err)
	}
	return u.ID, nil
}

// TokenFromRequest extracts the access token from the token or auth query
// parameters, falling back to an Authorization bearer header.
func TokenFromRequest(r *http.Request) string {
	q := r.URL.Query()
	if t := q.Get("token"); t != "" {
		return t
	}
	if t := q.Get("auth"); t != "" {
		return t
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}
