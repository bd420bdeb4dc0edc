package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"unknown source", func(c *Config) { c.Collect.Source = "rss" }, "unknown collect source"},
		{"zero passes", func(c *Config) { c.Collect.MaxPasses = 0 }, "max passes"},
		{"page size too large", func(c *Config) { c.Collect.PageSize = 200 }, "page size"},
		{"inverted delays", func(c *Config) {
			c.Collect.PassDelayMin = 10
			c.Collect.PassDelayMax = 5
		}, "pass delay"},
		{"empty path", func(c *Config) { c.Storage.Path = "" }, "storage path"},
		{"mongo without uri", func(c *Config) { c.Storage.Backend = "mongo" }, "mongo uri"},
		{"mongo with uri", func(c *Config) {
			c.Storage.Backend = "mongo"
			c.Storage.MongoURI = "mongodb://localhost:27017"
		}, ""},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "redis" }, "unknown storage backend"},
		{"lock without timeout", func(c *Config) {
			c.Storage.Lock = true
			c.Storage.LockTimeout = 0
		}, "lock timeout"},
		{"zero rpm", func(c *Config) { c.RateLimit.RequestsPerMinute = 0 }, "requests per minute"},
		{"zero attempts", func(c *Config) { c.Retry.MaxAttempts = 0 }, "max attempts"},
		{"bad timezone", func(c *Config) { c.Export.Timezone = "Nowhere/Town" }, "timezone"},
		{"bad log level", func(c *Config) { c.Logging.Level = "chatty" }, "log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateJoinsAllErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Collect.MaxPasses = 0
	cfg.RateLimit.BurstSize = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max passes")
	assert.Contains(t, err.Error(), "burst size")
}

func TestValidateCredentials(t *testing.T) {
	cfg := DefaultConfig()
	assert.Error(t, cfg.ValidateCredentials())

	cfg.Instagram.SessionID = "s"
	cfg.Instagram.CSRFToken = "c"
	assert.NoError(t, cfg.ValidateCredentials())
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage.Path = "from-file.json"

	cfg.MergeCommandLineFlags(map[string]interface{}{
		"post":            "https://www.instagram.com/p/ABC/",
		"max-passes":      2,
		"save-every-pass": true,
		"store":           "",
		"backend":         "sqlite",
		"response-files":  []string{"a.json"},
		"log-level":       "warn",
	})

	assert.Equal(t, "https://www.instagram.com/p/ABC/", cfg.Target.PostURL)
	assert.Equal(t, 2, cfg.Collect.MaxPasses)
	assert.True(t, cfg.Collect.SaveEveryPass)
	assert.Equal(t, "from-file.json", cfg.Storage.Path, "empty flag must not override")
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, []string{"a.json"}, cfg.Collect.ResponseFiles)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestFindConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", filepath.Join(dir, "home"))

	cfg := DefaultConfig()
	assert.Empty(t, cfg.findConfigFile())

	home := filepath.Join(dir, "home", ".config", "igcomments")
	require.NoError(t, os.MkdirAll(home, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.yaml"), []byte("{}"), 0644))
	assert.Equal(t, filepath.Join(home, "config.yaml"), cfg.findConfigFile())

	require.NoError(t, os.WriteFile(".igcomments.yaml", []byte("{}"), 0644))
	assert.Equal(t, ".igcomments.yaml", cfg.findConfigFile())
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("collect:\n  max_passes: 7\n  page_size: 20\nstorage:\n  path: file.json\n"), 0644))

	// .env beats the file but loses to the real environment
	require.NoError(t, os.WriteFile(".env", []byte("IGCOMMENTS_MAX_PASSES=4\nIGCOMMENTS_STORAGE_PATH=dotenv.json\n"), 0644))
	t.Cleanup(func() {
		os.Unsetenv("IGCOMMENTS_MAX_PASSES")
	})
	t.Setenv("IGCOMMENTS_STORAGE_PATH", "env.json")

	cfg, err := Load(path, map[string]interface{}{"log-level": "error"})
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Collect.MaxPasses)
	assert.Equal(t, 20, cfg.Collect.PageSize)
	assert.Equal(t, "env.json", cfg.Storage.Path)
	assert.Equal(t, "error", cfg.Logging.Level)
}

func TestLoadFailsValidation(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)

	_, err := Load("", map[string]interface{}{"source": "carrier-pigeon"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration validation failed")
}
