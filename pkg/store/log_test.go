package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbit-go/orbitdb/pkg/objectstore"
)

func TestLog_AppendCollectOrder(t *testing.T) {
	ctx := context.Background()
	os1, err := objectstore.New("peer-1")
	require.NoError(t, err)

	l := NewLog(os1)
	_, heads, err := l.Append(ctx, []byte("hello1"))
	require.NoError(t, err)
	assert.Len(t, heads, 1)

	_, heads, err = l.Append(ctx, []byte("hello2"))
	require.NoError(t, err)
	assert.Len(t, heads, 1)

	entries, err := l.Collect(ctx, -1)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, []byte("hello1"), entries[0])
	assert.Equal(t, []byte("hello2"), entries[1])
}

func TestLog_CollectLimit(t *testing.T) {
	ctx := context.Background()
	os1, err := objectstore.New("peer-1")
	require.NoError(t, err)

	l := NewLog(os1)
	for _, payload := range []string{"a", "b", "c"} {
		_, _, err := l.Append(ctx, []byte(payload))
		require.NoError(t, err)
	}

	entries, err := l.Collect(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, []byte("b"), entries[0])
	assert.Equal(t, []byte("c"), entries[1])
}

func TestLog_SyncMergesRemoteHeads(t *testing.T) {
	ctx := context.Background()
	shared, err := objectstore.New("peer-1")
	require.NoError(t, err)

	writer := NewLog(shared)
	_, _, err = writer.Append(ctx, []byte("hello1"))
	require.NoError(t, err)
	_, remoteHeads, err := writer.Append(ctx, []byte("hello2"))
	require.NoError(t, err)

	reader := NewLog(shared)
	require.NoError(t, reader.Sync(ctx, remoteHeads))

	entries, err := reader.Collect(ctx, -1)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, []byte("hello1"), entries[0])
	assert.Equal(t, []byte("hello2"), entries[1])
	assert.Equal(t, remoteHeads, reader.Heads())
}
