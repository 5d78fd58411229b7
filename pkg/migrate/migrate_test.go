package migrate

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbit-go/orbitdb/pkg/address"
)

func TestLegacyCacheSchemaMigration_MovesLegacyLayout(t *testing.T) {
	dir, err := os.MkdirTemp("", "orbitdb_migrate_test_*")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	addr := address.Address{Root: "Qmroot", Path: "cache-schema-test"}
	legacy := filepath.Join(dir, addr.Path)
	require.NoError(t, os.MkdirAll(legacy, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(legacy, "KEYREGISTRY"), []byte("data"), 0o600))

	r := New(nil)
	require.NoError(t, r.Run(context.Background(), Context{Directory: dir, Address: addr}))

	current := filepath.Join(dir, addr.Root, addr.Path)
	_, err = os.Stat(filepath.Join(current, "KEYREGISTRY"))
	assert.NoError(t, err)
	_, err = os.Stat(legacy)
	assert.True(t, os.IsNotExist(err))
}

func TestLegacyCacheSchemaMigration_IdempotentWhenNoLegacyData(t *testing.T) {
	dir, err := os.MkdirTemp("", "orbitdb_migrate_test_*")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	addr := address.Address{Root: "Qmroot", Path: "fresh-db"}
	r := New(nil)

	require.NoError(t, r.Run(context.Background(), Context{Directory: dir, Address: addr}))
	require.NoError(t, r.Run(context.Background(), Context{Directory: dir, Address: addr}))
}

func TestLegacyCacheSchemaMigration_NoopWhenCurrentAlreadyPopulated(t *testing.T) {
	dir, err := os.MkdirTemp("", "orbitdb_migrate_test_*")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	addr := address.Address{Root: "Qmroot", Path: "both-present"}
	legacy := filepath.Join(dir, addr.Path)
	current := filepath.Join(dir, addr.Root, addr.Path)
	require.NoError(t, os.MkdirAll(legacy, 0o700))
	require.NoError(t, os.MkdirAll(current, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(current, "marker"), []byte("keep-me"), 0o600))

	r := New(nil)
	require.NoError(t, r.Run(context.Background(), Context{Directory: dir, Address: addr}))

	_, err = os.Stat(filepath.Join(current, "marker"))
	assert.NoError(t, err, "migration must not clobber an already-populated current layout")
}
