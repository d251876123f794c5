package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facilita/notifier/internal/model"
)

func TestLoadContentEvent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "event.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
type: CONTENT_SHARED
entityType: LINK
entityId: "42"
message: Ana compartilhou um link com você
actionUrl: /links/42
metadata:
  sharedBy: ana
recipients:
  - u1
  - u2
`), 0600))

	ev, err := loadContentEvent(path)
	require.NoError(t, err)
	assert.Equal(t, model.ContentShared, ev.Type)
	assert.Equal(t, model.EntityLink, ev.EntityType)
	assert.Equal(t, "42", ev.EntityID)
	assert.Equal(t, "/links/42", ev.ActionURL)
	assert.Equal(t, "ana", ev.Metadata["sharedBy"])
	assert.Equal(t, []string{"u1", "u2"}, ev.Recipients)
}

func TestLoadContentEvent_Errors(t *testing.T) {
	_, err := loadContentEvent(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("recipients: [unterminated"), 0600))
	_, err = loadContentEvent(bad)
	assert.Error(t, err)
}
