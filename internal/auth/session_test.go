package auth_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facilita/notifier/internal/auth"
	"github.com/facilita/notifier/internal/model"
	"github.com/facilita/notifier/internal/storage"
)

func newKV(t *testing.T) *storage.SQLiteKVStore {
	t.Helper()
	db, _, err := storage.NewSQLiteDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return storage.NewSQLiteKVStore(db)
}

type failingPersister struct{}

func (failingPersister) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("disk gone")
}
func (failingPersister) Set(context.Context, string, []byte) error { return errors.New("disk gone") }
func (failingPersister) Delete(context.Context, string) error      { return errors.New("disk gone") }

func TestHydrate_RestoresPersistedSession(t *testing.T) {
	kv := newKV(t)
	ctx := context.Background()

	first := auth.NewStore(kv, nil)
	require.NoError(t, first.Hydrate(ctx))
	first.SetAuth(model.User{ID: "u1", Name: "Ana"}, "tok-1")

	second := auth.NewStore(kv, nil)
	assert.False(t, second.Snapshot().HasHydrated)
	require.NoError(t, second.Hydrate(ctx))

	st := second.Snapshot()
	assert.True(t, st.HasHydrated)
	require.NotNil(t, st.User)
	assert.Equal(t, "u1", st.User.ID)
	assert.Equal(t, "tok-1", st.AccessToken)
	assert.True(t, st.Authenticated())
}

func TestHydrate_EmptyAndCorrupt(t *testing.T) {
	kv := newKV(t)
	ctx := context.Background()

	s := auth.NewStore(kv, nil)
	require.NoError(t, s.Hydrate(ctx))
	assert.True(t, s.Snapshot().HasHydrated)
	assert.False(t, s.Snapshot().Authenticated())

	require.NoError(t, kv.Set(ctx, auth.StorageKey, []byte("{not json")))
	corrupt := auth.NewStore(kv, nil)
	assert.Error(t, corrupt.Hydrate(ctx))
	assert.True(t, corrupt.Snapshot().HasHydrated, "hydrated even when data is unreadable")
	assert.Nil(t, corrupt.Snapshot().User)
}

func TestHydrate_PersisterFailure(t *testing.T) {
	s := auth.NewStore(failingPersister{}, nil)
	assert.Error(t, s.Hydrate(context.Background()))
	assert.True(t, s.Snapshot().HasHydrated)

	// Write failures are logged, the in-memory change still applies.
	s.SetAccessToken("tok")
	assert.Equal(t, "tok", s.Snapshot().AccessToken)
}

func TestClearAuth_RemovesPersistedSession(t *testing.T) {
	kv := newKV(t)
	ctx := context.Background()

	s := auth.NewStore(kv, nil)
	s.SetAuth(model.User{ID: "u1"}, "tok")
	s.ClearAuth()

	_, ok, err := kv.Get(ctx, auth.StorageKey)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, s.Snapshot().Authenticated())
}

func TestSubscribe_ReceivesPreviousState(t *testing.T) {
	s := auth.NewStore(nil, nil)

	var got []struct{ cur, prev auth.State }
	unsub := s.Subscribe(func(cur, prev auth.State) {
		got = append(got, struct{ cur, prev auth.State }{cur, prev})
	})

	s.SetAuth(model.User{ID: "u1"}, "tok-1")
	s.SetAccessToken("tok-2")
	unsub()
	s.ClearAuth()

	require.Len(t, got, 2)
	assert.Equal(t, "", got[0].prev.AccessToken)
	assert.Equal(t, "tok-1", got[0].cur.AccessToken)
	assert.Equal(t, "tok-1", got[1].prev.AccessToken)
	assert.Equal(t, "tok-2", got[1].cur.AccessToken)
}

func TestSnapshot_IsolatedFromCaller(t *testing.T) {
	s := auth.NewStore(nil, nil)
	u := model.User{ID: "u1", Name: "Ana"}
	s.SetUser(&u)
	u.Name = "changed"

	snap := s.Snapshot()
	snap.User.Name = "also changed"
	assert.Equal(t, "Ana", s.Snapshot().User.Name)

	s.SetUser(nil)
	assert.Nil(t, s.Snapshot().User)
}
