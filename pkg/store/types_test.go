package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbit-go/orbitdb/pkg/address"
	"github.com/orbit-go/orbitdb/pkg/interfaces"
	"github.com/orbit-go/orbitdb/pkg/objectstore"
	"github.com/orbit-go/orbitdb/pkg/registry"
)

func newTestAddr() address.Address {
	return address.Address{Root: "Qmroot", Path: "test-db"}
}

func TestFeed_AddIterator(t *testing.T) {
	ctx := context.Background()
	os1, err := objectstore.New("peer-1")
	require.NoError(t, err)

	s, err := NewFeedConstructor(os1, nil, newTestAddr(), interfaces.StoreOptions{})
	require.NoError(t, err)
	f := s.(*Feed)

	require.NoError(t, f.Add(ctx, []byte("hello1")))
	require.NoError(t, f.Add(ctx, []byte("hello2")))

	entries, err := f.Iterator(ctx, -1)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("hello1"), []byte("hello2")}, entries)
}

func TestKeyValue_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	os1, err := objectstore.New("peer-1")
	require.NoError(t, err)

	s, err := NewKeyValueConstructor(os1, nil, newTestAddr(), interfaces.StoreOptions{})
	require.NoError(t, err)
	kv := s.(*KeyValue)

	_, found, err := kv.Get(ctx, "key")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, kv.Put(ctx, "key", []byte("value")))
	v, found, err := kv.Get(ctx, "key")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("value"), v)

	require.NoError(t, kv.Delete(ctx, "key"))
	_, found, err = kv.Get(ctx, "key")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCounter_IncValue(t *testing.T) {
	ctx := context.Background()
	os1, err := objectstore.New("peer-1")
	require.NoError(t, err)

	s, err := NewCounterConstructor(os1, nil, newTestAddr(), interfaces.StoreOptions{})
	require.NoError(t, err)
	c := s.(*Counter)

	require.NoError(t, c.Inc(ctx, 5))
	require.NoError(t, c.Inc(ctx, -2))
	v, err := c.Value(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, v)
}

func TestDocStore_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	os1, err := objectstore.New("peer-1")
	require.NoError(t, err)

	s, err := NewDocStoreConstructor(os1, nil, newTestAddr(), interfaces.StoreOptions{})
	require.NoError(t, err)
	d := s.(*DocStore)

	require.NoError(t, d.Put(ctx, "doc-1", map[string]any{"title": "hello"}))
	doc, found, err := d.Get(ctx, "doc-1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "hello", doc["title"])

	require.NoError(t, d.Delete(ctx, "doc-1"))
	_, found, err = d.Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRegisterDefaults_AllAliasesResolve(t *testing.T) {
	reg := registry.New()
	require.NoError(t, RegisterDefaults(reg))

	for _, tag := range []string{TypeFeed, TypeEventLog, "log", TypeKeyValue, "kvstore", TypeCounter, TypeDocStore, "docs"} {
		ctor, err := reg.Resolve(tag)
		require.NoError(t, err, "tag %s", tag)
		assert.NotNil(t, ctor)
	}
}
