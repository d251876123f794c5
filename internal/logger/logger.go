// Package logger provides structured slog loggers for the server and the
// terminal client. All logs are written in JSON format to size-rotated files.
//
// Log files are organized as:
//
//	<logDir>/system.log   server events
//	<logDir>/client.log   terminal client events (watch, login)
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	maxSizeMB  = 20
	maxBackups = 5
	maxAgeDays = 28
)

// NewSystemLogger creates a JSON slog.Logger that writes to <logDir>/system.log.
// When alsoStderr is set every record is mirrored to stderr.
func NewSystemLogger(logDir string, level slog.Level, alsoStderr bool) (*slog.Logger, io.Closer, error) {
	w, err := rotatingFile(logDir, "system.log")
	if err != nil {
		return nil, nil, err
	}
	var out io.Writer = w
	if alsoStderr {
		out = io.MultiWriter(w, os.Stderr)
	}
	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})
	return slog.New(handler), w, nil
}

// NewClientLogger creates a JSON slog.Logger that writes to
// <logDir>/client.log. The terminal is left to the UI.
func NewClientLogger(logDir string, level slog.Level) (*slog.Logger, io.Closer, error) {
	w, err := rotatingFile(logDir, "client.log")
	if err != nil {
		return nil, nil, err
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With("component", "client"), w, nil
}

// ParseLevel converts a level name to a slog.Level. Unknown values default
// to slog.LevelInfo.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// rotatingFile returns a lumberjack writer for <logDir>/<name>. The
// directory is created if it does not exist.
func rotatingFile(logDir, name string) (*lumberjack.Logger, error) {
	if err := os.MkdirAll(logDir, 0750); err != nil {
		return nil, fmt.Errorf("creating log directory %q: %w", logDir, err)
	}
	return &lumberjack.Logger{
		Filename:   filepath.Join(logDir, name),
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
	}, nil
}
