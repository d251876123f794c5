package toast_test

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facilita/notifier/internal/toast"
)

func waitForTimers(t *testing.T, clock *clockwork.FakeClock, n int) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, n))
}

func TestDismisser_RemovesAfterDuration(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := toast.NewStore(toast.WithClock(clock))
	d := toast.NewDismisser(s, clock)
	defer d.Close()

	id := s.Push(toast.Input{Message: "bye", Duration: time.Second})
	waitForTimers(t, clock, 1)

	clock.Advance(999 * time.Millisecond)
	require.Len(t, s.List(), 1)
	assert.Equal(t, id, s.List()[0].ID)

	clock.Advance(2 * time.Millisecond)
	assert.Eventually(t, func() bool { return len(s.List()) == 0 }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return d.Pending() == 0 }, time.Second, 5*time.Millisecond)
}

func TestDismisser_ManualRemoveCancelsTimer(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := toast.NewStore(toast.WithClock(clock))
	d := toast.NewDismisser(s, clock)
	defer d.Close()

	id := s.Push(toast.Input{Message: "x", Duration: time.Second})
	waitForTimers(t, clock, 1)
	require.Equal(t, 1, d.Pending())

	s.Remove(id)
	assert.Equal(t, 0, d.Pending())
}

func TestDismisser_EvictionCancelsTimer(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := toast.NewStore(toast.WithClock(clock))
	d := toast.NewDismisser(s, clock)
	defer d.Close()

	for i := 0; i < toast.MaxToasts+2; i++ {
		s.Push(toast.Input{Message: "m"})
	}
	assert.Equal(t, toast.MaxToasts, d.Pending())
}

func TestDismisser_NoDoubleScheduling(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := toast.NewStore(toast.WithClock(clock))
	d := toast.NewDismisser(s, clock)
	defer d.Close()

	s.Push(toast.Input{Message: "a", Duration: time.Second})
	s.Push(toast.Input{Message: "b", Duration: 3 * time.Second})
	s.Push(toast.Input{Message: "c", Duration: 5 * time.Second})

	assert.Equal(t, 3, d.Pending())

	clock.Advance(1500 * time.Millisecond)
	assert.Eventually(t, func() bool { return len(s.List()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return d.Pending() == 2 }, time.Second, 5*time.Millisecond)
}

func TestDismisser_SchedulesExistingToasts(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := toast.NewStore(toast.WithClock(clock))
	s.Push(toast.Input{Message: "early", Duration: time.Second})

	d := toast.NewDismisser(s, clock)
	defer d.Close()

	assert.Equal(t, 1, d.Pending())
}

func TestDismisser_CloseStopsTimers(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := toast.NewStore(toast.WithClock(clock))
	d := toast.NewDismisser(s, clock)

	s.Push(toast.Input{Message: "stay", Duration: time.Second})
	waitForTimers(t, clock, 1)

	d.Close()
	assert.Equal(t, 0, d.Pending())

	clock.Advance(5 * time.Second)
	time.Sleep(20 * time.Millisecond)
	assert.Len(t, s.List(), 1, "no removal may happen after Close")

	// Later pushes are not scheduled either.
	s.Push(toast.Input{Message: "late", Duration: time.Millisecond})
	assert.Equal(t, 0, d.Pending())
}
