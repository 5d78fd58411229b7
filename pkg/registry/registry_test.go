package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbit-go/orbitdb/pkg/address"
	"github.com/orbit-go/orbitdb/pkg/interfaces"
)

func noopConstructor(objectStore interfaces.ObjectStore, identity interfaces.Identity, addr address.Address, opts interfaces.StoreOptions) (interfaces.Store, error) {
	return nil, nil
}

func TestRegister_DuplicateFails(t *testing.T) {
	r := New()
	require.NoError(t, r.Register("feed", noopConstructor))
	err := r.Register("feed", noopConstructor)
	assert.Error(t, err)
}

func TestResolve_Unknown(t *testing.T) {
	r := New()
	_, err := r.Resolve("nope")
	require.Error(t, err)
	assert.Equal(t, `Invalid database type 'nope'`, err.Error())

	var invalid *InvalidType
	assert.ErrorAs(t, err, &invalid)
	assert.Equal(t, "nope", invalid.Tag)
}

func TestTags_Sorted(t *testing.T) {
	r := New()
	require.NoError(t, r.Register("zeta", noopConstructor))
	require.NoError(t, r.Register("alpha", noopConstructor))
	require.NoError(t, r.Register("mid", noopConstructor))

	assert.Equal(t, []string{"alpha", "mid", "zeta"}, r.Tags())
}

func TestDefault_AddDatabaseType(t *testing.T) {
	// Uses the process-wide default registry (spec §9's "legacy plugin
	// model"); pick a tag unlikely to collide with other tests in this
	// package.
	tag := "registry-test-type-unique"
	require.NoError(t, AddDatabaseType(tag, noopConstructor))

	ctor, err := Default().Resolve(tag)
	require.NoError(t, err)
	assert.NotNil(t, ctor)
}
