package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbit-go/orbitdb/pkg/interfaces"
)

// setupTestDir creates a temporary directory for a cache test.
func setupTestDir(t *testing.T) string {
	dir, err := os.MkdirTemp("", "orbitdb_cache_test_*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

func TestStore_SetGet(t *testing.T) {
	dir := setupTestDir(t)
	s, err := Open(dir, nil)
	require.NoError(t, err)
	defer s.Close()

	_, present, err := s.Get("missing")
	require.NoError(t, err)
	assert.False(t, present)

	require.NoError(t, s.Set("key", []byte("value")))
	v, present, err := s.Get("key")
	require.NoError(t, err)
	assert.True(t, present)
	assert.Equal(t, []byte("value"), v)
}

func TestStore_ManifestKey(t *testing.T) {
	assert.Equal(t, "/orbitdb/Qm/first/_manifest", ManifestKey("/orbitdb/Qm/first"))
}

func TestStore_GetAfterClose(t *testing.T) {
	dir := setupTestDir(t)
	s, err := Open(dir, nil)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, _, err = s.Get("key")
	assert.Error(t, err)
}

// plainAdapter opens a badger Store directly, without the free-space
// check pkg/localstore adds.
type plainAdapter struct{}

func (plainAdapter) CreateStore(path string) (interfaces.Cache, error) {
	return Open(path, nil)
}

func TestDirectories_ReusesSameDirectory(t *testing.T) {
	root := setupTestDir(t)
	dirs := NewDirectories(nil, plainAdapter{})

	a, err := dirs.Get(filepath.Join(root, "x"))
	require.NoError(t, err)
	b, err := dirs.Get(filepath.Join(root, "x"))
	require.NoError(t, err)
	assert.Same(t, a, b)

	require.NoError(t, dirs.CloseAll())
}
