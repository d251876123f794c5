package render

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/facilita/notifier/internal/model"
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			return tableCellStyle
		})
}

// Users renders users as a table.
func Users(list []model.User) string {
	t := newTable("ID", "NAME", "EMAIL", "ROLE", "ACTIVE")
	for _, u := range list {
		t.Row(u.ID, u.Name, u.Email, string(u.Role), fmt.Sprint(u.Active))
	}
	return t.String()
}

// Notifications renders a numbered notification list. The numbers match
// the positions the bell shows, so they can be used to pick an entry.
func Notifications(list []model.Notification, now time.Time) string {
	t := newTable("#", "", "TITLE", "MESSAGE", "WHEN", "ID")
	for i, n := range list {
		marker := ""
		if !n.Read {
			marker = "●"
		}
		t.Row(fmt.Sprint(i+1), marker, truncate(n.Title, 32), truncate(n.Message, 48), Ago(now, n.CreatedAt), n.ID)
	}
	return t.String()
}
