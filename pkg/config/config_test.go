package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "graphql", cfg.Collect.Source)
	assert.Equal(t, 10, cfg.Collect.MaxPasses)
	assert.Equal(t, 3*time.Second, cfg.Collect.PassDelayMin)
	assert.Equal(t, 20*time.Second, cfg.Collect.PassDelayMax)
	assert.Equal(t, "json", cfg.Storage.Backend)
	assert.Equal(t, "comments.json", cfg.Storage.Path)
	assert.False(t, cfg.Storage.Lock)
	assert.Equal(t, "Sheet1!A1", cfg.Export.Range)
	assert.Equal(t, "div._a9zs", cfg.Collect.HTML.CommentSelector)

	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("IGCOMMENTS_SESSION_ID", "test-session-id")
	t.Setenv("IGCOMMENTS_CSRF_TOKEN", "test-csrf-token")
	t.Setenv("IGCOMMENTS_REQUESTS_PER_MINUTE", "30")
	t.Setenv("IGCOMMENTS_MAX_PASSES", "4")
	t.Setenv("IGCOMMENTS_PASS_DELAY_MAX", "45s")
	t.Setenv("IGCOMMENTS_STORAGE_BACKEND", "sqlite")
	t.Setenv("IGCOMMENTS_STORAGE_LOCK", "true")
	t.Setenv("IGCOMMENTS_SPREADSHEET_ID", "sheet-123")
	t.Setenv("IGCOMMENTS_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "test-session-id", cfg.Instagram.SessionID)
	assert.Equal(t, "test-csrf-token", cfg.Instagram.CSRFToken)
	assert.Equal(t, 30, cfg.RateLimit.RequestsPerMinute)
	assert.Equal(t, 4, cfg.Collect.MaxPasses)
	assert.Equal(t, 45*time.Second, cfg.Collect.PassDelayMax)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.True(t, cfg.Storage.Lock)
	assert.Equal(t, "sheet-123", cfg.Export.SpreadsheetID)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromEnvRejectsBadNumbers(t *testing.T) {
	t.Setenv("IGCOMMENTS_MAX_PASSES", "lots")
	t.Setenv("IGCOMMENTS_PASS_DELAY_MIN", "soon")

	cfg := DefaultConfig()
	err := cfg.LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IGCOMMENTS_MAX_PASSES")
	assert.Contains(t, err.Error(), "IGCOMMENTS_PASS_DELAY_MIN")
	assert.Equal(t, 10, cfg.Collect.MaxPasses)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
target:
  post_url: https://www.instagram.com/p/C0dE123/
collect:
  source: file
  max_passes: 3
  pass_delay_min: 1s
  pass_delay_max: 2s
  response_files:
    - page1.json
    - page2.json
storage:
  backend: sqlite
  path: /tmp/comments.db
export:
  spreadsheet_id: abc
  range: Comments!A1
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, "https://www.instagram.com/p/C0dE123/", cfg.Target.PostURL)
	assert.Equal(t, "file", cfg.Collect.Source)
	assert.Equal(t, 3, cfg.Collect.MaxPasses)
	assert.Equal(t, time.Second, cfg.Collect.PassDelayMin)
	assert.Equal(t, []string{"page1.json", "page2.json"}, cfg.Collect.ResponseFiles)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, "Comments!A1", cfg.Export.Range)
	// Untouched sections keep defaults
	assert.Equal(t, 50, cfg.Collect.PageSize)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFromFileErrors(t *testing.T) {
	cfg := DefaultConfig()
	assert.Error(t, cfg.LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")))

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("collect: [unterminated"), 0644))
	assert.Error(t, cfg.LoadFromFile(bad))
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Target.Shortcode = "XYZ"
	cfg.Collect.PassDelayMax = 90 * time.Second
	cfg.Collect.ResponseFiles = []string{"page1.json"}
	require.NoError(t, cfg.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, cfg, loaded)
}

func TestLoadLocation(t *testing.T) {
	loc, err := LoadLocation("")
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	loc, err = LoadLocation("UTC")
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())

	_, err = LoadLocation("Mars/Olympus")
	assert.Error(t, err)
}
