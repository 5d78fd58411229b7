package manifest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbit-go/orbitdb/pkg/objectstore"
)

func TestCreateRead_ExplicitDefaults(t *testing.T) {
	ctx := context.Background()
	store, err := objectstore.New("peer-1")
	require.NoError(t, err)

	root, err := Create(ctx, store, "first", "feed", "/ipfs/somehash", Options{
		Defaults: map[string]any{"maxSize": 10},
	})
	require.NoError(t, err)
	require.NotEmpty(t, root)

	m, err := Read(ctx, store, root)
	require.NoError(t, err)
	assert.Equal(t, "first", m.Name)
	assert.Equal(t, "feed", m.Type)
	assert.Equal(t, "/ipfs/somehash", m.AccessController)
	assert.Equal(t, 10, int(m.Defaults["maxSize"].(uint64)))
}

func TestCreate_LegacyOptionBagExcludesKnownKeys(t *testing.T) {
	ctx := context.Background()
	store, err := objectstore.New("peer-1")
	require.NoError(t, err)

	root, err := Create(ctx, store, "second", "keyvalue", "/ipfs/somehash", Options{
		LegacyOptionBag: map[string]any{
			"write":     []string{"id"},
			"replicate": true,
			"indexBy":   "id",
		},
	})
	require.NoError(t, err)

	m, err := Read(ctx, store, root)
	require.NoError(t, err)
	require.NotNil(t, m.Defaults)
	_, hasWrite := m.Defaults["write"]
	_, hasReplicate := m.Defaults["replicate"]
	assert.False(t, hasWrite)
	assert.False(t, hasReplicate)
	assert.Equal(t, "id", m.Defaults["indexBy"])
}

func TestCreate_OnlyHashDoesNotPersist(t *testing.T) {
	ctx := context.Background()
	store, err := objectstore.New("peer-1")
	require.NoError(t, err)

	root, err := Create(ctx, store, "third", "feed", "/ipfs/somehash", Options{OnlyHash: true})
	require.NoError(t, err)
	require.NotEmpty(t, root)

	_, err = Read(ctx, store, root)
	assert.Error(t, err)
}

func TestCreate_SameInputsSameRoot(t *testing.T) {
	ctx := context.Background()
	store, err := objectstore.New("peer-1")
	require.NoError(t, err)

	r1, err := Create(ctx, store, "fourth", "feed", "/ipfs/ac", Options{})
	require.NoError(t, err)
	r2, err := Create(ctx, store, "fourth", "feed", "/ipfs/ac", Options{OnlyHash: true})
	require.NoError(t, err)
	assert.Equal(t, r1, r2, "determineAddress(onlyHash) must match the persisted create's root")
}
