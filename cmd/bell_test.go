package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facilita/notifier/internal/apiclient"
	"github.com/facilita/notifier/internal/config"
	"github.com/facilita/notifier/internal/inbox"
	"github.com/facilita/notifier/internal/model"
)

const testToken = "tok-ana"

// fakeAPI serves the notification endpoints from an in-memory list and
// records every mutating call.
type fakeAPI struct {
	mu    sync.Mutex
	notes []model.Notification
	calls []string
}

func newFakeAPI(t *testing.T) (*fakeAPI, *httptest.Server) {
	t.Helper()
	f := &fakeAPI{notes: []model.Notification{
		{ID: "n1", Title: "Link shared", Message: "m1"},
		{ID: "n2", Title: "Note updated", Message: "m2"},
		{ID: "n3", Title: "Schedule removed", Message: "m3", Read: true},
	}}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/me", func(w http.ResponseWriter, _ *http.Request) {
		writeTestJSON(w, http.StatusOK, model.User{ID: "u1", Name: "Ana", Email: "ana@facilita.dev", Active: true})
	})
	mux.HandleFunc("GET /api/notifications", func(w http.ResponseWriter, _ *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeTestJSON(w, http.StatusOK, f.notes)
	})
	mux.HandleFunc("GET /api/notifications/unread-count", func(w http.ResponseWriter, _ *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		n := 0
		for _, x := range f.notes {
			if !x.Read {
				n++
			}
		}
		writeTestJSON(w, http.StatusOK, map[string]int{"count": n})
	})
	mux.HandleFunc("PATCH /api/notifications/read-all", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.calls = append(f.calls, r.Method+" "+r.URL.Path)
		for i := range f.notes {
			f.notes[i].Read = true
		}
		writeTestJSON(w, http.StatusOK, map[string]bool{"success": true})
	})
	mux.HandleFunc("PATCH /api/notifications/{id}/read", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.calls = append(f.calls, r.Method+" "+r.URL.Path)
		i := f.indexOf(r.PathValue("id"))
		if i < 0 {
			writeTestJSON(w, http.StatusNotFound, map[string]string{"error": "notification not found"})
			return
		}
		f.notes[i].Read = true
		writeTestJSON(w, http.StatusOK, map[string]bool{"success": true})
	})
	mux.HandleFunc("DELETE /api/notifications/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.calls = append(f.calls, r.Method+" "+r.URL.Path)
		i := f.indexOf(r.PathValue("id"))
		if i < 0 {
			writeTestJSON(w, http.StatusNotFound, map[string]string{"error": "notification not found"})
			return
		}
		f.notes = append(f.notes[:i], f.notes[i+1:]...)
		writeTestJSON(w, http.StatusOK, map[string]bool{"success": true})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeAPI) indexOf(id string) int {
	for i, n := range f.notes {
		if n.ID == id {
			return i
		}
	}
	return -1
}

func (f *fakeAPI) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func writeTestJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestBell(t *testing.T) (*bell, *fakeAPI) {
	t.Helper()
	api, srv := newFakeAPI(t)
	client := apiclient.New(srv.URL+"/api", func() string { return testToken })

	list, err := client.ListNotifications(context.Background(), 50, 0)
	require.NoError(t, err)
	in := inbox.NewStore()
	in.SetNotifications(list)
	in.SetUnreadCount(2)
	return &bell{api: client, inbox: in}, api
}

func TestBell_Run(t *testing.T) {
	ctx := context.Background()
	b, api := newTestBell(t)

	msg, err := b.run(ctx, "r 1")
	require.NoError(t, err)
	assert.Equal(t, "Marked as read", msg)
	st := b.inbox.Snapshot()
	assert.True(t, st.Notifications[0].Read)
	assert.Equal(t, 1, st.UnreadCount)
	assert.Equal(t, 1, st.RemoteUnread)

	_, err = b.run(ctx, "d 2")
	require.NoError(t, err)
	st = b.inbox.Snapshot()
	require.Len(t, st.Notifications, 2)
	assert.Equal(t, "n3", st.Notifications[1].ID)
	assert.Equal(t, 0, st.UnreadCount)

	_, err = b.run(ctx, "R")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"PATCH /api/notifications/n1/read",
		"DELETE /api/notifications/n2",
		"PATCH /api/notifications/read-all",
	}, api.recorded())
}

func TestBell_RunFailuresLeaveInboxAlone(t *testing.T) {
	ctx := context.Background()
	b, _ := newTestBell(t)
	before := b.inbox.Snapshot()

	_, err := b.run(ctx, "r missing")
	var se *apiclient.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.StatusCode)

	_, err = b.run(ctx, "d")
	assert.ErrorContains(t, err, "usage")

	_, err = b.run(ctx, "x 1")
	assert.ErrorContains(t, err, "unknown command")

	_, err = b.run(ctx, "q")
	assert.ErrorIs(t, err, errQuit)

	msg, err := b.run(ctx, "   ")
	assert.NoError(t, err)
	assert.Empty(t, msg)

	assert.Equal(t, before, b.inbox.Snapshot())
}

func TestBell_ResolveFallsBackToID(t *testing.T) {
	b, _ := newTestBell(t)
	assert.Equal(t, "n2", b.resolve("2"))
	assert.Equal(t, "9", b.resolve("9"), "out of range positions are ids")
	assert.Equal(t, "n3", b.resolve("n3"))
}

func runCLI(t *testing.T, cfg config.AppConfig, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCmd(&cfg)
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	require.NoError(t, root.Execute(), out.String())
	return out.String()
}

func TestNotificationsCommands(t *testing.T) {
	api, srv := newFakeAPI(t)
	cfg := config.AppConfig{DataDir: t.TempDir(), APIURL: srv.URL + "/api", LogLevel: "error"}

	out := runCLI(t, cfg, "login", "--token", testToken)
	assert.Contains(t, out, "Logged in as Ana")

	out = runCLI(t, cfg, "notifications", "list")
	assert.Contains(t, out, "Link shared")
	assert.Contains(t, out, "2 unread")

	out = runCLI(t, cfg, "notifications", "read", "1")
	assert.Contains(t, out, "Marked n1 as read.")
	assert.Contains(t, out, "1 unread")

	out = runCLI(t, cfg, "notifications", "delete", "2", "3")
	assert.Contains(t, out, "Deleted n2.")
	assert.Contains(t, out, "Deleted n3.")
	assert.Contains(t, out, "0 unread")

	out = runCLI(t, cfg, "notifications", "read-all")
	assert.Contains(t, out, "All notifications marked as read.")

	assert.Equal(t, []string{
		"PATCH /api/notifications/n1/read",
		"DELETE /api/notifications/n2",
		"DELETE /api/notifications/n3",
		"PATCH /api/notifications/read-all",
	}, api.recorded())
}

func TestNotificationsCommands_RequireLogin(t *testing.T) {
	_, srv := newFakeAPI(t)
	cfg := config.AppConfig{DataDir: t.TempDir(), APIURL: srv.URL + "/api", LogLevel: "error"}

	root := NewRootCmd(&cfg)
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"notifications", "list"})
	assert.ErrorContains(t, root.Execute(), "not logged in")
}
