package apiclient_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facilita/notifier/internal/apiclient"
	"github.com/facilita/notifier/internal/model"
)

type recorded struct {
	method string
	path   string
	query  string
	auth   string
	body   []byte
}

func newServer(t *testing.T, status int, resp any) (*httptest.Server, *recorded) {
	t.Helper()
	rec := &recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.method = r.Method
		rec.path = r.URL.Path
		rec.query = r.URL.RawQuery
		rec.auth = r.Header.Get("Authorization")
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&json.RawMessage{})
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if resp != nil {
			_ = json.NewEncoder(w).Encode(resp)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func tokenOf(s string) apiclient.TokenSource { return func() string { return s } }

func TestListNotifications(t *testing.T) {
	srv, rec := newServer(t, http.StatusOK, []model.Notification{{ID: "n1", Title: "t"}})
	c := apiclient.New(srv.URL+"/api/", tokenOf("abc"))

	list, err := c.ListNotifications(context.Background(), 50, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "n1", list[0].ID)
	assert.Equal(t, http.MethodGet, rec.method)
	assert.Equal(t, "/api/notifications", rec.path)
	assert.Equal(t, "limit=50&offset=10", rec.query)
	assert.Equal(t, "Bearer abc", rec.auth)
}

func TestListNotifications_NullBodyIsEmpty(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, nil)
	c := apiclient.New(srv.URL, tokenOf("abc"))

	list, err := c.ListNotifications(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestUnreadCount(t *testing.T) {
	srv, rec := newServer(t, http.StatusOK, map[string]int{"count": 7})
	c := apiclient.New(srv.URL, tokenOf("abc"))

	n, err := c.UnreadCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	assert.Equal(t, "/notifications/unread-count", rec.path)
}

func TestMutations(t *testing.T) {
	tests := []struct {
		name   string
		call   func(*apiclient.Client) error
		method string
		path   string
	}{
		{"mark read", func(c *apiclient.Client) error { return c.MarkAsRead(context.Background(), "n1") }, http.MethodPatch, "/notifications/n1/read"},
		{"mark all", func(c *apiclient.Client) error { return c.MarkAllAsRead(context.Background()) }, http.MethodPatch, "/notifications/read-all"},
		{"delete", func(c *apiclient.Client) error { return c.DeleteNotification(context.Background(), "n1") }, http.MethodDelete, "/notifications/n1"},
		{"content event", func(c *apiclient.Client) error {
			return c.PublishContentEvent(context.Background(), model.ContentEvent{Type: model.ContentShared, Recipients: []string{"u1"}})
		}, http.MethodPost, "/content-events"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, rec := newServer(t, http.StatusOK, map[string]bool{"success": true})
			require.NoError(t, tt.call(apiclient.New(srv.URL, tokenOf("abc"))))
			assert.Equal(t, tt.method, rec.method)
			assert.Equal(t, tt.path, rec.path)
		})
	}
}

func TestMe(t *testing.T) {
	srv, rec := newServer(t, http.StatusOK, model.User{ID: "u1", Email: "ana@facilita.dev"})
	c := apiclient.New(srv.URL, tokenOf("abc"))

	u, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, "/me", rec.path)
}

func TestStatusError(t *testing.T) {
	srv, _ := newServer(t, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
	c := apiclient.New(srv.URL, tokenOf("bad"))

	_, err := c.UnreadCount(context.Background())
	var se *apiclient.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnauthorized, se.StatusCode)
	assert.Equal(t, "invalid token", se.Message)
	assert.Contains(t, se.Error(), "401")
}

func TestNoTokenSendsNoHeader(t *testing.T) {
	srv, rec := newServer(t, http.StatusOK, map[string]int{"count": 0})
	c := apiclient.New(srv.URL, nil)

	_, err := c.UnreadCount(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rec.auth)
}
