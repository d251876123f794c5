package toast

import (
	"sync"
	"time"
)

// NotifyOption customises a toast pushed through a Notifier.
type NotifyOption func(*Input)

// WithTitle sets an explicit title.
func WithTitle(title string) NotifyOption {
	return func(in *Input) { in.Title = title }
}

// WithDuration sets how long the toast stays visible.
func WithDuration(d time.Duration) NotifyOption {
	return func(in *Input) { in.Duration = d }
}

// Notifier is a thin convenience wrapper for pushing toasts by variant.
type Notifier struct {
	store *Store
}

// NewNotifier returns a Notifier writing to store.
func NewNotifier(store *Store) *Notifier {
	return &Notifier{store: store}
}

// Success pushes a success toast.
func (n *Notifier) Success(message string, opts ...NotifyOption) string {
	return n.push(VariantSuccess, message, opts)
}

// Error pushes an error toast.
func (n *Notifier) Error(message string, opts ...NotifyOption) string {
	return n.push(VariantError, message, opts)
}

// Info pushes an informational toast.
func (n *Notifier) Info(message string, opts ...NotifyOption) string {
	return n.push(VariantInfo, message, opts)
}

func (n *Notifier) push(v Variant, message string, opts []NotifyOption) string {
	in := Input{Variant: v, Message: message}
	for _, opt := range opts {
		opt(&in)
	}
	return n.store.Push(in)
}

// ChangeWatcher pushes a toast each time an observed message changes to a
// new non-empty value. Observing an empty message forgets the last one, so
// the same message shows again the next time it appears.
type ChangeWatcher struct {
	store   *Store
	variant Variant
	opts    []NotifyOption

	mu   sync.Mutex
	last string
}

// NewChangeWatcher returns a watcher pushing toasts of the given variant.
// An empty variant defaults to error, the common case of surfacing a
// request failure.
func NewChangeWatcher(store *Store, variant Variant, opts ...NotifyOption) *ChangeWatcher {
	if variant == "" {
		variant = VariantError
	}
	return &ChangeWatcher{store: store, variant: variant, opts: opts}
}

// Observe records message and pushes a toast if it differs from the last
// non-empty message. It reports whether a toast was pushed.
func (w *ChangeWatcher) Observe(message string) bool {
	w.mu.Lock()
	if message == "" {
		w.last = ""
		w.mu.Unlock()
		return false
	}
	if message == w.last {
		w.mu.Unlock()
		return false
	}
	w.last = message
	w.mu.Unlock()

	in := Input{Variant: w.variant, Message: message}
	for _, opt := range w.opts {
		opt(&in)
	}
	w.store.Push(in)
	return true
}
