// Package auth holds the client's authentication session and the token
// helpers the server uses to issue and verify access tokens.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/facilita/notifier/internal/model"
)

// StorageKey is the key the session is persisted under.
const StorageKey = "facilita-auth"

// Persister is the key/value storage backing the session.
type Persister interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// State is a snapshot of the session.
type State struct {
	User        *model.User
	AccessToken string
	HasHydrated bool
}

// Authenticated reports whether both a user and a token are present.
func (s State) Authenticated() bool {
	return s.User != nil && s.AccessToken != ""
}

// Listener receives the new and the previous state after every change.
type Listener func(cur, prev State)

// persisted is the on-disk shape of the session.
type persisted struct {
	State struct {
		User        *model.User `json:"user"`
		AccessToken string      `json:"accessToken,omitempty"`
	} `json:"state"`
	Version int `json:"version"`
}

// Store is the authentication session. Every change is written through to
// the Persister; write failures are logged and do not roll back the change.
type Store struct {
	mu        sync.Mutex
	state     State
	persister Persister
	logger    *slog.Logger
	listeners map[int]Listener
	nextSub   int
}

// NewStore creates an empty, not yet hydrated session. persister may be nil
// for a memory-only session.
func NewStore(persister Persister, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{persister: persister, logger: logger, listeners: make(map[int]Listener)}
}

// Hydrate loads the persisted session and marks the store hydrated. Missing
// or unreadable data leaves the session empty; HasHydrated is set either way.
func (s *Store) Hydrate(ctx context.Context) error {
	var loaded persisted
	var loadErr error
	if s.persister != nil {
		raw, ok, err := s.persister.Get(ctx, StorageKey)
		switch {
		case err != nil:
			loadErr = fmt.Errorf("reading auth session: %w", err)
		case ok:
			if err := json.Unmarshal(raw, &loaded); err != nil {
				loadErr = fmt.Errorf("decoding auth session: %w", err)
				loaded = persisted{}
			}
		}
	}
	if loadErr != nil {
		s.logger.Warn("auth: session not restored", "error", loadErr)
	}

	s.update(func(st *State) {
		if loadErr == nil {
			st.User = loaded.State.User
			st.AccessToken = loaded.State.AccessToken
		}
		st.HasHydrated = true
	}, false)
	return loadErr
}

// SetAuth sets user and token together.
func (s *Store) SetAuth(user model.User, token string) {
	s.update(func(st *State) {
		st.User = &user
		st.AccessToken = token
	}, true)
}

// SetUser replaces the user; nil clears it.
func (s *Store) SetUser(user *model.User) {
	s.update(func(st *State) {
		if user == nil {
			st.User = nil
			return
		}
		u := *user
		st.User = &u
	}, true)
}

// SetAccessToken replaces the token; an empty token clears it.
func (s *Store) SetAccessToken(token string) {
	s.update(func(st *State) { st.AccessToken = token }, true)
}

// ClearAuth drops user and token.
func (s *Store) ClearAuth() {
	s.update(func(st *State) {
		st.User = nil
		st.AccessToken = ""
	}, true)
}

// Snapshot returns the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyState(s.state)
}

// Subscribe registers fn and returns a function that removes it.
func (s *Store) Subscribe(fn Listener) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Store) update(mutate func(*State), persist bool) {
	s.mu.Lock()
	prev := copyState(s.state)
	mutate(&s.state)
	cur := copyState(s.state)
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	if persist {
		s.save(cur)
	}
	for _, l := range listeners {
		l(cur, prev)
	}
}

func (s *Store) save(st State) {
	if s.persister == nil {
		return
	}
	ctx := context.Background()
	if st.User == nil && st.AccessToken == "" {
		if err := s.persister.Delete(ctx, StorageKey); err != nil {
			s.logger.Warn("auth: clearing persisted session failed", "error", err)
		}
		return
	}

	var p persisted
	p.State.User = st.User
	p.State.AccessToken = st.AccessToken
	raw, err := json.Marshal(p)
	if err != nil {
		s.logger.Warn("auth: encoding session failed", "error", err)
		return
	}
	if err := s.persister.Set(ctx, StorageKey, raw); err != nil {
		s.logger.Warn("auth: persisting session failed", "error", err)
	}
}

func copyState(st State) State {
	if st.User != nil {
		u := *st.User
		st.User = &u
	}
	return st
}
