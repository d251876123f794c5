// Package metrics provides the Prometheus collectors for the realtime
// notification backend and client.
package metrics

import (
	"regexp"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "facilita_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "facilita_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	// Realtime metrics
	RealtimeConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "facilita_realtime_connections",
			Help: "Number of connected realtime clients",
		},
		[]string{"transport"},
	)

	RealtimeEventsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "facilita_realtime_events_emitted_total",
			Help: "Total number of realtime events emitted to users",
		},
		[]string{"event"},
	)

	RealtimeAuthFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "facilita_realtime_auth_failures_total",
			Help: "Total number of rejected realtime handshakes",
		},
	)

	// Notification metrics
	NotificationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "facilita_notifications_created_total",
			Help: "Total number of persisted notifications",
		},
		[]string{"type"},
	)

	NotificationEmails = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "facilita_notification_emails_total",
			Help: "Total number of offline email deliveries",
		},
		[]string{"status"},
	)

	NotificationsCleanedUp = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "facilita_notifications_cleaned_up_total",
			Help: "Total number of notifications removed by retention cleanup",
		},
	)

	// Client metrics
	ClientReconnectAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "facilita_client_reconnect_attempts_total",
			Help: "Total number of realtime reconnect attempts made by the client",
		},
		[]string{"result"},
	)
)

var uuidRegex = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)

// NormalizePath replaces ids in path so labels keep a bounded cardinality.
func NormalizePath(path string) string {
	if path == "" {
		return "/"
	}
	return uuidRegex.ReplaceAllString(path, ":id")
}
