// Package toast holds the transient toast queue shown on top of the UI, the
// scheduler that dismisses toasts when their duration elapses, and small
// helpers for pushing toasts from application code.
package toast

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

const (
	// MaxToasts is the number of toasts kept visible at once.
	MaxToasts = 4
	// DefaultDuration is how long a toast stays up when no duration is given.
	DefaultDuration = 4200 * time.Millisecond
)

// Variant selects the visual style of a toast.
type Variant string

// Toast variants.
const (
	VariantSuccess Variant = "success"
	VariantError   Variant = "error"
	VariantInfo    Variant = "info"
)

// DefaultTitle returns the label used when a toast is pushed without a title.
func DefaultTitle(v Variant) string {
	switch v {
	case VariantSuccess:
		return "Success"
	case VariantError:
		return "Error"
	default:
		return "Info"
	}
}

// Toast is a short-lived message.
type Toast struct {
	ID        string        `json:"id"`
	Variant   Variant       `json:"variant"`
	Title     string        `json:"title"`
	Message   string        `json:"message"`
	CreatedAt time.Time     `json:"createdAt"`
	Duration  time.Duration `json:"duration"`
}

// Input is what callers hand to Push. ID, Title and Duration are optional.
type Input struct {
	ID       string
	Variant  Variant
	Title    string
	Message  string
	Duration time.Duration
}

// Listener receives a snapshot of the queue after every change.
type Listener func([]Toast)

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used to stamp CreatedAt.
func WithClock(c clockwork.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithIDFunc overrides the id generator.
func WithIDFunc(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// Store is the toast queue. It is safe for concurrent use; listeners are
// called outside the lock, in the goroutine that made the change.
type Store struct {
	mu        sync.Mutex
	toasts    []Toast
	listeners map[int]Listener
	nextSub   int
	clock     clockwork.Clock
	newID     func() string
}

// NewStore returns an empty queue.
func NewStore(opts ...Option) *Store {
	s := &Store{
		listeners: make(map[int]Listener),
		clock:     clockwork.NewRealClock(),
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Push appends a toast and returns its id. When the queue grows past
// MaxToasts the oldest entries are evicted.
func (s *Store) Push(in Input) string {
	t := Toast{
		ID:       in.ID,
		Variant:  in.Variant,
		Title:    in.Title,
		Message:  in.Message,
		Duration: in.Duration,
	}
	if t.Variant == "" {
		t.Variant = VariantInfo
	}
	if t.ID == "" {
		t.ID = s.newID()
	}
	if t.Title == "" {
		t.Title = DefaultTitle(t.Variant)
	}
	if t.Duration <= 0 {
		t.Duration = DefaultDuration
	}

	s.mu.Lock()
	t.CreatedAt = s.clock.Now()
	next := append(s.toasts, t)
	if len(next) > MaxToasts {
		next = next[len(next)-MaxToasts:]
	}
	s.toasts = append([]Toast(nil), next...)
	s.mu.Unlock()

	s.notify()
	return t.ID
}

// Remove drops the toast with the given id. Unknown ids are ignored.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	idx := -1
	for i, t := range s.toasts {
		if t.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	next := make([]Toast, 0, len(s.toasts)-1)
	next = append(next, s.toasts[:idx]...)
	next = append(next, s.toasts[idx+1:]...)
	s.toasts = next
	s.mu.Unlock()

	s.notify()
}

// Clear empties the queue.
func (s *Store) Clear() {
	s.mu.Lock()
	if len(s.toasts) == 0 {
		s.mu.Unlock()
		return
	}
	s.toasts = nil
	s.mu.Unlock()

	s.notify()
}

// List returns the visible toasts, oldest first.
func (s *Store) List() []Toast {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Toast(nil), s.toasts...)
}

// Subscribe registers fn for change notifications and returns a function
// that removes it.
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

func (s *Store) notify() {
	s.mu.Lock()
	snapshot := append([]Toast(nil), s.toasts...)
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(snapshot)
	}
}
