package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facilita/notifier/internal/config"
)

func TestRootFlagsOverrideConfig(t *testing.T) {
	cfg := &config.AppConfig{DataDir: "/env/dir", APIURL: config.DefaultAPIURL, LogLevel: "info"}
	root := NewRootCmd(cfg)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version", "--data-dir", "/flag/dir", "--api-url", "https://x.example.com/api"})
	require.NoError(t, root.Execute())

	assert.Equal(t, "/flag/dir", cfg.DataDir)
	assert.Equal(t, "https://x.example.com", cfg.ServerURL())
	assert.Equal(t, "info", cfg.LogLevel, "unchanged flag keeps env value")
	assert.Contains(t, out.String(), "facilita ")
}

func TestRootRegistersCommands(t *testing.T) {
	root := NewRootCmd(&config.AppConfig{})
	for _, name := range []string{"serve", "login", "logout", "watch", "user", "notify", "notifications", "version", "update"} {
		c, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, c.Name())
	}
}
