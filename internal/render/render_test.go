package render_test

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"

	"github.com/facilita/notifier/internal/inbox"
	"github.com/facilita/notifier/internal/model"
	"github.com/facilita/notifier/internal/render"
	"github.com/facilita/notifier/internal/toast"
)

var now = time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

func TestToasts(t *testing.T) {
	assert.Empty(t, render.Toasts(nil, 40))

	out := render.Toasts([]toast.Toast{
		{ID: "1", Variant: toast.VariantSuccess, Title: "Success", Message: "Link salvo"},
		{ID: "2", Variant: toast.VariantError, Title: "Error", Message: "Falha no upload"},
	}, 40)

	assert.Contains(t, out, "Link salvo")
	assert.Contains(t, out, "Falha no upload")
	assert.Less(t, strings.Index(out, "Link salvo"), strings.Index(out, "Falha no upload"), "oldest first")
	for _, line := range strings.Split(out, "\n") {
		assert.LessOrEqual(t, lipgloss.Width(line), 40)
	}
}

func TestBadge(t *testing.T) {
	assert.Empty(t, render.Badge(0))
	assert.Contains(t, render.Badge(5), "5")
	assert.Contains(t, render.Badge(150), "99+")
}

func TestBell(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		out := render.Bell(inbox.State{}, 50, 0, now)
		assert.Contains(t, out, "No notifications")
	})

	t.Run("loading", func(t *testing.T) {
		out := render.Bell(inbox.State{Loading: true}, 50, 0, now)
		assert.Contains(t, out, "Loading")
	})

	t.Run("lists newest first and caps items", func(t *testing.T) {
		st := inbox.State{
			Notifications: []model.Notification{
				{ID: "a", Title: "Novo compartilhamento", Message: "m1", CreatedAt: now.Add(-30 * time.Second)},
				{ID: "b", Title: "Link atualizado", Message: "m2", Read: true, CreatedAt: now.Add(-2 * time.Hour)},
				{ID: "c", Title: "Nota removida", Message: "m3", CreatedAt: now.Add(-72 * time.Hour)},
			},
			UnreadCount:  2,
			RemoteUnread: 12,
		}
		out := render.Bell(st, 60, 2, now)

		assert.Contains(t, out, "12")
		assert.Contains(t, out, "Novo compartilhamento")
		assert.Contains(t, out, "Link atualizado")
		assert.NotContains(t, out, "Nota removida")
		assert.Contains(t, out, "+1 more")
		assert.Contains(t, out, "now")
		assert.Contains(t, out, "2h ago")
	})
}

func TestAgo(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{10 * time.Second, "now"},
		{5 * time.Minute, "5m ago"},
		{3 * time.Hour, "3h ago"},
		{49 * time.Hour, "2d ago"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, render.Ago(now, now.Add(-tt.d)))
		})
	}
}

func TestStatusAndScreen(t *testing.T) {
	assert.Contains(t, render.Status(true, "websocket", "ana@facilita.dev"), "online via websocket")
	assert.Contains(t, render.Status(false, "", ""), "offline")

	out := render.Screen("status-line", inbox.State{}, []toast.Toast{{Title: "Info", Message: "oi"}}, 50, now)
	assert.Contains(t, out, "status-line")
	assert.Contains(t, out, "oi")
}

func TestUsersTable(t *testing.T) {
	out := render.Users([]model.User{
		{ID: "u1", Name: "Ana", Email: "ana@facilita.dev", Role: model.RoleAdmin, Active: true},
		{ID: "u2", Name: "Bruno", Email: "bruno@facilita.dev", Role: model.RoleCollaborator},
	})

	assert.Contains(t, out, "EMAIL")
	assert.Contains(t, out, "ana@facilita.dev")
	assert.Contains(t, out, "COLLABORATOR")
	assert.Less(t, strings.Index(out, "Ana"), strings.Index(out, "Bruno"))
}

func TestNotificationsTable(t *testing.T) {
	out := render.Notifications([]model.Notification{
		{ID: "n1", Title: "Shared", Message: "m1", CreatedAt: now.Add(-5 * time.Minute)},
		{ID: "n2", Title: "Updated", Message: "m2", Read: true, CreatedAt: now},
	}, now)

	assert.Contains(t, out, "n1")
	assert.Contains(t, out, "5m ago")
	assert.Equal(t, 1, strings.Count(out, "●"), "only unread entries are marked")
}
