package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/facilita/notifier/internal/notification"
)

// DefaultAPIURL is used when FACILITA_API_URL is not set.
const DefaultAPIURL = "http://localhost:3001/api"

// AppConfig holds all application-level configuration loaded from environment variables.
type AppConfig struct {
	// Port is the HTTP server port. Defaults to 3001.
	Port int `envconfig:"PORT" default:"3001"`

	// DataDir is the root data directory. Defaults to ~/.facilita.
	DataDir string `envconfig:"FACILITA_DATA_DIR"`

	// LogLevel sets the minimum log level (debug, info, warn, error). Defaults to info.
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// APIURL is the REST base URL the client talks to. The realtime server
	// URL is derived from it by dropping a trailing /api.
	APIURL string `envconfig:"FACILITA_API_URL" default:"http://localhost:3001/api"`

	// JWTAccessSecret signs and verifies access tokens.
	JWTAccessSecret string `envconfig:"JWT_ACCESS_SECRET" default:"dev-access"`

	// JWTAccessTTL is the lifetime of tokens issued by the CLI.
	JWTAccessTTL time.Duration `envconfig:"JWT_ACCESS_TTL" default:"24h"`

	// CORSOrigins lists the allowed browser origins. Empty allows any.
	CORSOrigins []string `envconfig:"CORS_ORIGINS"`

	// RedisURL enables cross-instance realtime fanout when set,
	// e.g. redis://localhost:6379/0.
	RedisURL     string `envconfig:"REDIS_URL"`
	RedisChannel string `envconfig:"REDIS_CHANNEL" default:"facilita:realtime"`

	// PollTimeout bounds a single long-poll request.
	PollTimeout time.Duration `envconfig:"REALTIME_POLL_TIMEOUT" default:"25s"`

	// RetentionDays is how long notifications are kept.
	RetentionDays int `envconfig:"NOTIFICATION_RETENTION_DAYS" default:"7"`
	// CleanupHour is the local hour the retention cleanup runs at.
	CleanupHour int `envconfig:"NOTIFICATION_CLEANUP_HOUR" default:"3"`

	// PortalURL is linked from notification emails.
	PortalURL string `envconfig:"PORTAL_URL" default:"http://localhost:5173"`

	SMTPHost       string `envconfig:"SMTP_HOST"`
	SMTPPort       int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUsername   string `envconfig:"SMTP_USERNAME"`
	SMTPPassword   string `envconfig:"SMTP_PASSWORD"`
	SMTPFrom       string `envconfig:"SMTP_FROM"`
	SMTPEncryption string `envconfig:"SMTP_ENCRYPTION" default:"starttls"`

	// ToastNotifications mirrors inbound notifications as toasts in the
	// terminal client.
	ToastNotifications bool `envconfig:"CLIENT_TOAST_NOTIFICATIONS" default:"false"`
}

// Load reads AppConfig from environment variables using envconfig. A .env
// file in the working directory is loaded first when present; variables
// already set in the environment win.
// DataDir defaults to ~/.facilita if not set.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	var c AppConfig
	if err := envconfig.Process("", &c); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		c.DataDir = filepath.Join(home, ".facilita")
	}
	if c.RetentionDays <= 0 {
		return nil, fmt.Errorf("loading config: NOTIFICATION_RETENTION_DAYS must be positive, got %d", c.RetentionDays)
	}
	if c.CleanupHour < 0 || c.CleanupHour > 23 {
		return nil, fmt.Errorf("loading config: NOTIFICATION_CLEANUP_HOUR must be 0-23, got %d", c.CleanupHour)
	}

	return &c, nil
}

// ServerURL returns the realtime server URL derived from APIURL.
func (c *AppConfig) ServerURL() string {
	return ServerURLFromAPI(c.APIURL)
}

// ServerURLFromAPI strips a trailing /api (and slashes) from apiURL. An
// empty apiURL yields the local development server.
func ServerURLFromAPI(apiURL string) string {
	u := strings.TrimRight(strings.TrimSpace(apiURL), "/")
	if u == "" {
		u = DefaultAPIURL
	}
	u = strings.TrimSuffix(u, "/api")
	return strings.TrimRight(u, "/")
}

// Retention returns the notification retention period.
func (c *AppConfig) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

// SMTP returns the email fallback settings.
func (c *AppConfig) SMTP() notification.SMTPConfig {
	return notification.SMTPConfig{
		Host:       c.SMTPHost,
		Port:       c.SMTPPort,
		Username:   c.SMTPUsername,
		Password:   c.SMTPPassword,
		FromAddr:   c.SMTPFrom,
		Encryption: c.SMTPEncryption,
	}
}

// LogDir returns the path to the log directory (~/.facilita/logs).
func (c *AppConfig) LogDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// ServerDBPath returns the path to the server database.
func (c *AppConfig) ServerDBPath() string {
	return filepath.Join(c.DataDir, "facilita.db")
}

// ClientDBPath returns the path to the client-side local storage database.
func (c *AppConfig) ClientDBPath() string {
	return filepath.Join(c.DataDir, "client.db")
}
