package logger_test

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facilita/notifier/internal/logger"
)

func TestNewSystemLogger_WritesJSON(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	l, closer, err := logger.NewSystemLogger(dir, slog.LevelInfo, false)
	require.NoError(t, err)

	l.Debug("hidden")
	l.Info("server started", "port", 3001)
	require.NoError(t, closer.Close())

	raw, err := os.ReadFile(filepath.Join(dir, "system.log"))
	require.NoError(t, err)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(raw, &rec), "exactly one JSON record")
	assert.Equal(t, "server started", rec["msg"])
	assert.EqualValues(t, 3001, rec["port"])
}

func TestNewClientLogger_TagsComponent(t *testing.T) {
	dir := t.TempDir()
	l, closer, err := logger.NewClientLogger(dir, slog.LevelDebug)
	require.NoError(t, err)

	l.Debug("socket: connected")
	require.NoError(t, closer.Close())

	raw, err := os.ReadFile(filepath.Join(dir, "client.log"))
	require.NoError(t, err)
	var rec map[string]any
	require.NoError(t, json.Unmarshal(raw, &rec))
	assert.Equal(t, "client", rec["component"])
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, logger.ParseLevel(tt.in))
		})
	}
}
