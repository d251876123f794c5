package gateway

import "sync"

// BacklogSize is how many envelopes are kept per user for long-poll clients.
const BacklogSize = 100

// backlog is a per-user ring of the most recent envelopes. Each appended
// envelope gets the next sequence number; waiters are woken on append.
type backlog struct {
	mu    sync.Mutex
	seq   uint64
	items []Envelope
	start int
	wake  chan struct{}
}

func newBacklog() *backlog {
	return &backlog{items: make([]Envelope, 0, BacklogSize), wake: make(chan struct{})}
}

func (b *backlog) append(env Envelope) Envelope {
	b.mu.Lock()
	b.seq++
	env.Seq = b.seq
	if len(b.items) < BacklogSize {
		b.items = append(b.items, env)
	} else {
		b.items[b.start] = env
		b.start = (b.start + 1) % BacklogSize
	}
	wake := b.wake
	b.wake = make(chan struct{})
	b.mu.Unlock()

	close(wake)
	return env
}

// since returns the held envelopes with a sequence above cursor, oldest
// first, the current sequence, and a channel closed on the next append.
func (b *backlog) since(cursor uint64) ([]Envelope, uint64, <-chan struct{}) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []Envelope
	for i := 0; i < len(b.items); i++ {
		env := b.items[(b.start+i)%len(b.items)]
		if env.Seq > cursor {
			out = append(out, env)
		}
	}
	return out, b.seq, b.wake
}

func (b *backlog) current() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.seq
}
