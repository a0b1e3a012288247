package capture

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestStoreSaveUsesCollisionResistantNames(t *testing.T) {
	store, err := NewStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	takenAt := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	shot := Shot{PNG: []byte("png-bytes"), TakenAt: takenAt}

	first, err := store.Save(shot)
	require.NoError(t, err)
	second, err := store.Save(shot)
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "identical timestamps must not collide")
	assert.Contains(t, filepath.Base(first), "20260826T120000.000")

	data, err := os.ReadFile(first)
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)
}

func TestStoreSaveToOverridesPath(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, zap.NewNop())
	require.NoError(t, err)

	target := filepath.Join(dir, "explicit.png")
	path, err := store.SaveTo(Shot{PNG: []byte("x"), TakenAt: time.Now()}, target)
	require.NoError(t, err)
	assert.Equal(t, target, path)
}

func TestStoreSaveToReportsIOError(t *testing.T) {
	store, err := NewStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	_, err = store.SaveTo(Shot{PNG: []byte("x")}, filepath.Join(t.TempDir(), "missing", "deep", "x.png"))
	require.Error(t, err)

	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	assert.NotEmpty(t, ioErr.Path)
}

func TestNewStoreRejectsUnwritableDir(t *testing.T) {
	base := t.TempDir()
	blocked := filepath.Join(base, "blocked")
	require.NoError(t, os.WriteFile(blocked, []byte("file in the way"), 0o644))

	_, err := NewStore(filepath.Join(blocked, "sub"), zap.NewNop())
	require.Error(t, err)

	var ioErr *IOError
	assert.ErrorAs(t, err, &ioErr)
}
