package eventbus

import (
	"log/slog"
	"sync"
)

// Emitter is a synchronous signal used to tell open views that content
// changed and should be reloaded. Notify runs every subscriber in the
// calling goroutine.
type Emitter struct {
	mu        sync.Mutex
	listeners map[int]func()
	nextID    int
	logger    *slog.Logger
}

// NewEmitter returns an Emitter with no subscribers.
func NewEmitter(logger *slog.Logger) *Emitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Emitter{listeners: make(map[int]func()), logger: logger}
}

// Subscribe registers fn and returns a function that removes it.
func (e *Emitter) Subscribe(fn func()) func() {
	e.mu.Lock()
	id := e.nextID
	e.nextID++
	e.listeners[id] = fn
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		delete(e.listeners, id)
		e.mu.Unlock()
	}
}

// Notify calls every subscriber. A panicking subscriber is logged and does
// not stop the others.
func (e *Emitter) Notify() {
	e.mu.Lock()
	listeners := make([]func(), 0, len(e.listeners))
	for _, l := range e.listeners {
		listeners = append(listeners, l)
	}
	e.mu.Unlock()

	for _, l := range listeners {
		func() {
			defer func() {
				if r := recover(); r != nil {
					e.logger.Error("content update listener panicked", "panic", r)
				}
			}()
			l()
		}()
	}
}
