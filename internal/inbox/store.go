// Package inbox is the client-side store of realtime notifications shown in
// the notification center. Unlike toasts, entries stay until removed and
// carry a read flag.
package inbox

import (
	"sync"

	"github.com/facilita/notifier/internal/model"
)

// State is an immutable snapshot of the store.
//
// UnreadCount always equals the number of held notifications whose Read flag
// is false. RemoteUnread is the total reported by the server, which may count
// notifications outside the loaded page; it is kept in step with local
// mutations and never drops below UnreadCount.
type State struct {
	Notifications []model.Notification
	UnreadCount   int
	RemoteUnread  int
	Loading       bool
}

// Listener receives a snapshot after every change.
type Listener func(State)

// Store holds notifications newest first. It is safe for concurrent use.
type Store struct {
	mu            sync.Mutex
	notifications []model.Notification
	unread        int
	remoteUnread  int
	loading       bool
	listeners     map[int]Listener
	nextSub       int
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{listeners: make(map[int]Listener)}
}

// SetNotifications replaces the held notifications.
func (s *Store) SetNotifications(list []model.Notification) {
	s.mu.Lock()
	s.notifications = append([]model.Notification(nil), list...)
	s.recount()
	s.mu.Unlock()
	s.notify()
}

// Merge replaces the held notifications with list while keeping entries that
// are held but absent from list on top. It is used to seed the store from a
// fetch that may race with live events: whatever arrived live before the
// fetch resolved survives, and an id present in both is kept once, with the
// fetched copy winning.
func (s *Store) Merge(list []model.Notification) {
	s.mu.Lock()
	fetched := make(map[string]struct{}, len(list))
	for _, n := range list {
		fetched[n.ID] = struct{}{}
	}

	merged := make([]model.Notification, 0, len(s.notifications)+len(list))
	for _, n := range s.notifications {
		if _, ok := fetched[n.ID]; !ok {
			merged = append(merged, n)
		}
	}
	seen := make(map[string]struct{}, len(list))
	for _, n := range list {
		if _, dup := seen[n.ID]; dup {
			continue
		}
		seen[n.ID] = struct{}{}
		merged = append(merged, n)
	}
	s.notifications = merged
	s.recount()
	s.mu.Unlock()
	s.notify()
}

// Add prepends n. A notification whose id is already held is ignored and
// Add reports false.
func (s *Store) Add(n model.Notification) bool {
	s.mu.Lock()
	if s.indexOf(n.ID) >= 0 {
		s.mu.Unlock()
		return false
	}
	next := make([]model.Notification, 0, len(s.notifications)+1)
	next = append(next, n)
	next = append(next, s.notifications...)
	s.notifications = next
	if !n.Read {
		s.unread++
		s.remoteUnread++
	}
	s.clampRemote()
	s.mu.Unlock()
	s.notify()
	return true
}

// MarkAsRead flags the notification as read. It reports whether anything
// changed; an unknown or already read id is a no-op.
func (s *Store) MarkAsRead(id string) bool {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 || s.notifications[i].Read {
		s.mu.Unlock()
		return false
	}
	next := append([]model.Notification(nil), s.notifications...)
	next[i].Read = true
	s.notifications = next
	s.unread = max(0, s.unread-1)
	s.remoteUnread = max(0, s.remoteUnread-1)
	s.clampRemote()
	s.mu.Unlock()
	s.notify()
	return true
}

// MarkAllAsRead flags every held notification as read.
func (s *Store) MarkAllAsRead() {
	s.mu.Lock()
	next := make([]model.Notification, len(s.notifications))
	for i, n := range s.notifications {
		n.Read = true
		next[i] = n
	}
	s.notifications = next
	s.unread = 0
	s.remoteUnread = 0
	s.mu.Unlock()
	s.notify()
}

// Remove drops the notification with the given id and reports whether it
// was held.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	wasUnread := !s.notifications[i].Read
	next := make([]model.Notification, 0, len(s.notifications)-1)
	next = append(next, s.notifications[:i]...)
	next = append(next, s.notifications[i+1:]...)
	s.notifications = next
	if wasUnread {
		s.unread = max(0, s.unread-1)
		s.remoteUnread = max(0, s.remoteUnread-1)
	}
	s.clampRemote()
	s.mu.Unlock()
	s.notify()
	return true
}

// SetUnreadCount records the unread total reported by the server.
func (s *Store) SetUnreadCount(count int) {
	s.mu.Lock()
	s.remoteUnread = max(0, count)
	s.clampRemote()
	s.mu.Unlock()
	s.notify()
}

// SetLoading toggles the loading flag.
func (s *Store) SetLoading(loading bool) {
	s.mu.Lock()
	s.loading = loading
	s.mu.Unlock()
	s.notify()
}

// Clear drops every notification and resets both counters.
func (s *Store) Clear() {
	s.mu.Lock()
	s.notifications = nil
	s.unread = 0
	s.remoteUnread = 0
	s.mu.Unlock()
	s.notify()
}

// Snapshot returns the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
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

func (s *Store) snapshotLocked() State {
	return State{
		Notifications: append([]model.Notification(nil), s.notifications...),
		UnreadCount:   s.unread,
		RemoteUnread:  s.remoteUnread,
		Loading:       s.loading,
	}
}

func (s *Store) indexOf(id string) int {
	for i, n := range s.notifications {
		if n.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) recount() {
	s.unread = 0
	for _, n := range s.notifications {
		if !n.Read {
			s.unread++
		}
	}
	s.clampRemote()
}

func (s *Store) clampRemote() {
	if s.remoteUnread < s.unread {
		s.remoteUnread = s.unread
	}
}

func (s *Store) notify() {
	s.mu.Lock()
	snap := s.snapshotLocked()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(snap)
	}
}
