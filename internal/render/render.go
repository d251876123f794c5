// Package render draws the toast stack and the notification bell for the
// terminal client. Every function is pure over a snapshot.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/facilita/notifier/internal/inbox"
	"github.com/facilita/notifier/internal/model"
	"github.com/facilita/notifier/internal/toast"
)

const (
	minWidth = 24
	// BellItems is how many notifications the bell lists by default.
	BellItems = 8
)

func variantColor(v toast.Variant) lipgloss.TerminalColor {
	switch v {
	case toast.VariantSuccess:
		return colorSuccess
	case toast.VariantError:
		return colorError
	default:
		return colorInfo
	}
}

func variantIcon(v toast.Variant) string {
	switch v {
	case toast.VariantSuccess:
		return "✓"
	case toast.VariantError:
		return "✗"
	default:
		return "i"
	}
}

// Toasts renders the toast stack oldest first, one bordered box per toast,
// coloured by variant. An empty stack renders as "".
func Toasts(list []toast.Toast, width int) string {
	if len(list) == 0 {
		return ""
	}
	width = max(width, minWidth)

	boxes := make([]string, 0, len(list))
	for _, t := range list {
		color := variantColor(t.Variant)
		title := titleStyle.Foreground(color).Render(variantIcon(t.Variant) + " " + t.Title)
		body := lipgloss.JoinVertical(lipgloss.Left, title, t.Message)
		boxes = append(boxes, toastBoxStyle.
			BorderForeground(color).
			Width(width-2).
			Render(body))
	}
	return lipgloss.JoinVertical(lipgloss.Left, boxes...)
}

// Badge renders the unread counter shown on the bell. Counts above 99 are
// capped as "99+"; zero renders as "".
func Badge(unread int) string {
	if unread <= 0 {
		return ""
	}
	label := fmt.Sprint(unread)
	if unread > 99 {
		label = "99+"
	}
	return badgeStyle.Render(label)
}

// Bell renders the notification bell: a header with the unread badge and up
// to maxItems notifications, newest first. Unread entries are marked with a
// dot. now is used for relative timestamps.
func Bell(st inbox.State, width, maxItems int, now time.Time) string {
	width = max(width, minWidth)
	if maxItems <= 0 {
		maxItems = BellItems
	}

	header := headerStyle.Render("🔔 Notifications")
	if badge := Badge(st.RemoteUnread); badge != "" {
		header = lipgloss.JoinHorizontal(lipgloss.Center, header, " ", badge)
	}

	var lines []string
	switch {
	case st.Loading && len(st.Notifications) == 0:
		lines = append(lines, mutedStyle.Render("Loading..."))
	case len(st.Notifications) == 0:
		lines = append(lines, mutedStyle.Render("No notifications"))
	default:
		shown := st.Notifications
		if len(shown) > maxItems {
			shown = shown[:maxItems]
		}
		for i, n := range shown {
			lines = append(lines, bellItem(i+1, n, width-4, now))
		}
		if more := len(st.Notifications) - len(shown); more > 0 {
			lines = append(lines, mutedStyle.Render(fmt.Sprintf("+%d more", more)))
		}
	}

	body := lipgloss.JoinVertical(lipgloss.Left, append([]string{header, ""}, lines...)...)
	return bellBoxStyle.Width(width - 2).Render(body)
}

func bellItem(pos int, n model.Notification, width int, now time.Time) string {
	marker := " "
	if !n.Read {
		marker = unreadDotStyle.Render("●")
	}
	num := fmt.Sprintf("%d.", pos)
	indent := strings.Repeat(" ", len(num)+3)
	title := truncate(n.Title, width-len(indent))
	when := mutedStyle.Render(Ago(now, n.CreatedAt))
	msg := mutedStyle.Render(truncate(n.Message, width-len(indent)))
	return lipgloss.JoinVertical(lipgloss.Left,
		marker+" "+mutedStyle.Render(num)+" "+titleStyle.Render(title),
		indent+msg,
		indent+when,
	)
}

// Ago formats the time elapsed between t and now in short form.
func Ago(now, t time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d/time.Minute))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d/time.Hour))
	default:
		return fmt.Sprintf("%dd ago", int(d/(24*time.Hour)))
	}
}

// Status renders the connection status line.
func Status(connected bool, transport, user string) string {
	var b strings.Builder
	if connected {
		b.WriteString(lipgloss.NewStyle().Foreground(colorSuccess).Render("● online"))
		if transport != "" {
			b.WriteString(mutedStyle.Render(" via " + transport))
		}
	} else {
		b.WriteString(lipgloss.NewStyle().Foreground(colorError).Render("● offline"))
	}
	if user != "" {
		b.WriteString(mutedStyle.Render("  " + user))
	}
	return b.String()
}

// KeyHelp lists the commands the watch view accepts on stdin.
const KeyHelp = "r <n> read · R read all · d <n> delete · q quit"

// Screen composes the full watch view.
func Screen(status string, st inbox.State, toasts []toast.Toast, width int, now time.Time) string {
	parts := []string{status, "", Bell(st, width, BellItems, now), mutedStyle.Render(KeyHelp)}
	if t := Toasts(toasts, width); t != "" {
		parts = append(parts, "", t)
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func truncate(s string, n int) string {
	if n <= 1 || lipgloss.Width(s) <= n {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && lipgloss.Width(string(r)) > n-1 {
		r = r[:len(r)-1]
	}
	return string(r) + "…"
}
