package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "/"},
		{"/api/notifications", "/api/notifications"},
		{"/api/notifications/3f1c2a9e-2b7d-4c1e-9a55-0c7f1d2e3b4a/read", "/api/notifications/:id/read"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizePath(tt.in))
	}
}

func TestCollectorsRegistered(t *testing.T) {
	before := testutil.ToFloat64(NotificationsCleanedUp)
	NotificationsCleanedUp.Add(3)
	assert.Equal(t, before+3, testutil.ToFloat64(NotificationsCleanedUp))

	RealtimeConnections.WithLabelValues("websocket").Inc()
	assert.Equal(t, float64(1), testutil.ToFloat64(RealtimeConnections.WithLabelValues("websocket")))
	RealtimeConnections.WithLabelValues("websocket").Dec()
}
