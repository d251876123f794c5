package toast

import (
	"sync"

	"github.com/jonboulle/clockwork"
)

type pendingTimer struct {
	timer clockwork.Timer
}

// Dismisser removes each toast from its Store once the toast's duration has
// elapsed. It keeps one timer per visible toast and reconciles that set with
// the store on every change: timers of toasts that went away are stopped and
// toasts that appeared get a timer. A toast is never scheduled twice.
type Dismisser struct {
	store *Store
	clock clockwork.Clock

	mu     sync.Mutex
	timers map[string]*pendingTimer
	closed bool
	unsub  func()
}

// NewDismisser attaches a Dismisser to store and schedules the toasts that are
// already visible.
func NewDismisser(store *Store, clock clockwork.Clock) *Dismisser {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	d := &Dismisser{
		store:  store,
		clock:  clock,
		timers: make(map[string]*pendingTimer),
	}
	d.unsub = store.Subscribe(func([]Toast) { d.reconcile() })
	d.reconcile()
	return d
}

// Pending returns the number of scheduled timers.
func (d *Dismisser) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.timers)
}

// Close stops every pending timer and detaches from the store. No removal
// happens after Close returns.
func (d *Dismisser) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for id, p := range d.timers {
		p.timer.Stop()
		delete(d.timers, id)
	}
	d.mu.Unlock()

	d.unsub()
}

// reconcile reads the current queue rather than the snapshot passed to the
// listener so that out-of-order notifications from concurrent writers
// cannot resurrect a removed toast.
func (d *Dismisser) reconcile() {
	current := d.store.List()

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}

	active := make(map[string]struct{}, len(current))
	for _, t := range current {
		active[t.ID] = struct{}{}
	}

	for id, p := range d.timers {
		if _, ok := active[id]; !ok {
			p.timer.Stop()
			delete(d.timers, id)
		}
	}

	for _, t := range current {
		if _, ok := d.timers[t.ID]; ok {
			continue
		}
		id := t.ID
		p := &pendingTimer{}
		p.timer = d.clock.AfterFunc(t.Duration, func() { d.expire(id, p) })
		d.timers[id] = p
	}
}

func (d *Dismisser) expire(id string, p *pendingTimer) {
	d.mu.Lock()
	if d.closed || d.timers[id] != p {
		d.mu.Unlock()
		return
	}
	delete(d.timers, id)
	d.mu.Unlock()

	d.store.Remove(id)
}
