package checkpoint

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igcomments/pkg/logger"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	mgr, err := NewManagerAt(t.TempDir(), "C0dE123", logger.NewNopLogger())
	require.NoError(t, err)
	return mgr
}

func TestCreateAndLoad(t *testing.T) {
	mgr := newTestManager(t)

	missing, err := mgr.Load()
	require.NoError(t, err)
	assert.Nil(t, missing)
	assert.False(t, mgr.Exists())

	cp, err := mgr.Create("C0dE123")
	require.NoError(t, err)
	assert.True(t, mgr.Exists())
	assert.Equal(t, "C0dE123.checkpoint.json", filepath.Base(mgr.Path()))

	loaded, err := mgr.Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, cp.Shortcode, loaded.Shortcode)
	assert.Equal(t, currentVersion, loaded.Version)
	assert.Empty(t, loaded.EndCursor)
}

func TestUpdateProgress(t *testing.T) {
	mgr := newTestManager(t)
	cp, err := mgr.Create("C0dE123")
	require.NoError(t, err)

	require.NoError(t, mgr.UpdateProgress(cp, "cursor-1", 12, false))
	require.NoError(t, mgr.UpdateProgress(cp, "cursor-2", 20, true))

	loaded, err := mgr.Load()
	require.NoError(t, err)
	assert.Equal(t, "cursor-2", loaded.EndCursor)
	assert.Equal(t, 2, loaded.PassesCompleted)
	assert.Equal(t, 20, loaded.TotalComments)
	assert.True(t, loaded.Done)
	assert.False(t, loaded.UpdatedAt.Before(loaded.CreatedAt))
}

func TestAdvanceProgressCountsPasses(t *testing.T) {
	mgr := newTestManager(t)
	cp, err := mgr.Create("C0dE123")
	require.NoError(t, err)

	require.NoError(t, mgr.AdvanceProgress(cp, "cursor-3", 30, false, 3))

	loaded, err := mgr.Load()
	require.NoError(t, err)
	assert.Equal(t, "cursor-3", loaded.EndCursor)
	assert.Equal(t, 3, loaded.PassesCompleted)
	assert.Equal(t, 30, loaded.TotalComments)
	assert.False(t, loaded.Done)
}

func TestDelete(t *testing.T) {
	mgr := newTestManager(t)
	_, err := mgr.Create("C0dE123")
	require.NoError(t, err)

	require.NoError(t, mgr.Delete())
	assert.False(t, mgr.Exists())
	assert.NoError(t, mgr.Delete(), "deleting twice is not an error")
}

func TestLoadRejectsCorruptAndFutureVersions(t *testing.T) {
	mgr := newTestManager(t)

	require.NoError(t, os.WriteFile(mgr.Path(), []byte("{not json"), 0644))
	_, err := mgr.Load()
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(mgr.Path(), []byte(`{"shortcode":"C0dE123","version":99}`), 0644))
	_, err = mgr.Load()
	assert.ErrorContains(t, err, "newer than supported")
}

func TestNewManagerRequiresShortcode(t *testing.T) {
	_, err := NewManagerAt(t.TempDir(), "", logger.NewNopLogger())
	assert.Error(t, err)
}

func TestNewManagerUsesDataDirectory(t *testing.T) {
	if runtime.GOOS == "darwin" || runtime.GOOS == "windows" {
		t.Skip("XDG_DATA_HOME only applies on unix-like systems")
	}
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)

	mgr, err := NewManager("ABC", logger.NewNopLogger())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "igcomments", "checkpoints", "ABC.checkpoint.json"), mgr.Path())
}
