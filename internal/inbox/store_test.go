package inbox_test

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facilita/notifier/internal/inbox"
	"github.com/facilita/notifier/internal/model"
)

func note(id string, read bool) model.Notification {
	return model.Notification{
		ID:         id,
		Type:       model.ContentUpdated,
		EntityType: model.EntityLink,
		EntityID:   "link-" + id,
		Title:      "Link updated",
		Message:    "A link you follow changed",
		Read:       read,
		CreatedAt:  time.Now(),
	}
}

func countUnread(st inbox.State) int {
	n := 0
	for _, x := range st.Notifications {
		if !x.Read {
			n++
		}
	}
	return n
}

func TestAdd_PrependsAndCounts(t *testing.T) {
	s := inbox.NewStore()
	require.True(t, s.Add(note("a", false)))
	require.True(t, s.Add(note("b", true)))
	require.True(t, s.Add(note("c", false)))

	st := s.Snapshot()
	ids := []string{st.Notifications[0].ID, st.Notifications[1].ID, st.Notifications[2].ID}
	assert.Equal(t, []string{"c", "b", "a"}, ids)
	assert.Equal(t, 2, st.UnreadCount)
}

func TestAdd_DuplicateIgnored(t *testing.T) {
	s := inbox.NewStore()
	require.True(t, s.Add(note("a", false)))
	assert.False(t, s.Add(note("a", false)))

	st := s.Snapshot()
	assert.Len(t, st.Notifications, 1)
	assert.Equal(t, 1, st.UnreadCount)
}

func TestMarkAsRead_ThenMarkAll(t *testing.T) {
	s := inbox.NewStore()
	s.Add(note("n1", false))

	require.True(t, s.MarkAsRead("n1"))
	st := s.Snapshot()
	assert.True(t, st.Notifications[0].Read)
	assert.Equal(t, 0, st.UnreadCount)

	assert.False(t, s.MarkAsRead("n1"), "already read")
	assert.False(t, s.MarkAsRead("missing"))

	s.MarkAllAsRead()
	st = s.Snapshot()
	assert.Equal(t, 0, st.UnreadCount)
	assert.True(t, st.Notifications[0].Read)
}

func TestRemove_AdjustsUnreadOnlyForUnread(t *testing.T) {
	s := inbox.NewStore()
	s.Add(note("read", true))
	s.Add(note("unread", false))

	require.True(t, s.Remove("read"))
	assert.Equal(t, 1, s.Snapshot().UnreadCount)

	require.True(t, s.Remove("unread"))
	assert.Equal(t, 0, s.Snapshot().UnreadCount)

	assert.False(t, s.Remove("unread"))
	assert.Equal(t, 0, s.Snapshot().UnreadCount)
}

func TestUnreadInvariant_RandomOperations(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	s := inbox.NewStore()

	for i := 0; i < 2000; i++ {
		id := fmt.Sprintf("n%d", rng.Intn(30))
		switch rng.Intn(6) {
		case 0, 1:
			s.Add(note(id, rng.Intn(3) == 0))
		case 2:
			s.MarkAsRead(id)
		case 3:
			s.Remove(id)
		case 4:
			if rng.Intn(20) == 0 {
				s.MarkAllAsRead()
			}
		case 5:
			if rng.Intn(40) == 0 {
				s.Clear()
			}
		}

		st := s.Snapshot()
		require.GreaterOrEqual(t, st.UnreadCount, 0)
		require.Equal(t, countUnread(st), st.UnreadCount, "step %d", i)
		require.GreaterOrEqual(t, st.RemoteUnread, st.UnreadCount)
	}
}

func TestSetNotifications_Recounts(t *testing.T) {
	s := inbox.NewStore()
	s.Add(note("live", false))

	s.SetNotifications([]model.Notification{note("a", false), note("b", true), note("c", false)})

	st := s.Snapshot()
	assert.Len(t, st.Notifications, 3)
	assert.Equal(t, 2, st.UnreadCount)
}

func TestMerge_KeepsLiveEntriesAndDedupes(t *testing.T) {
	s := inbox.NewStore()
	s.Add(note("old", false))
	s.Add(note("live", false))

	fetched := []model.Notification{note("old", true), note("older", false), note("older", false)}
	s.Merge(fetched)

	st := s.Snapshot()
	var ids []string
	for _, n := range st.Notifications {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"live", "old", "older"}, ids)
	assert.True(t, st.Notifications[1].Read, "fetched copy wins")
	assert.Equal(t, 2, st.UnreadCount)
}

func TestSetUnreadCount_RemoteTotal(t *testing.T) {
	s := inbox.NewStore()
	s.SetNotifications([]model.Notification{note("a", false)})
	s.SetUnreadCount(7)

	st := s.Snapshot()
	assert.Equal(t, 1, st.UnreadCount)
	assert.Equal(t, 7, st.RemoteUnread)

	s.MarkAsRead("a")
	st = s.Snapshot()
	assert.Equal(t, 0, st.UnreadCount)
	assert.Equal(t, 6, st.RemoteUnread)

	s.SetUnreadCount(-3)
	assert.Equal(t, 0, s.Snapshot().RemoteUnread)
}

func TestLoadingAndClear(t *testing.T) {
	s := inbox.NewStore()
	s.SetLoading(true)
	assert.True(t, s.Snapshot().Loading)

	s.Add(note("a", false))
	s.SetUnreadCount(3)
	s.Clear()

	st := s.Snapshot()
	assert.Empty(t, st.Notifications)
	assert.Zero(t, st.UnreadCount)
	assert.Zero(t, st.RemoteUnread)
}

func TestSubscribe(t *testing.T) {
	s := inbox.NewStore()
	var last inbox.State
	calls := 0
	unsub := s.Subscribe(func(st inbox.State) {
		calls++
		last = st
	})

	s.Add(note("a", false))
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, last.UnreadCount)

	unsub()
	s.Add(note("b", false))
	assert.Equal(t, 1, calls)
}
