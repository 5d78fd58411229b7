package address

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Valid(t *testing.T) {
	addr, err := Parse("/orbitdb/Qmabc123/first")
	require.NoError(t, err)
	assert.Equal(t, "Qmabc123", addr.Root)
	assert.Equal(t, "first", addr.Path)
	assert.Equal(t, "/orbitdb/Qmabc123/first", addr.String())
}

func TestParse_RoundTrip(t *testing.T) {
	addr, err := Parse("/orbitdb/Qmabc123/first")
	require.NoError(t, err)

	again, err := Parse(addr.String())
	require.NoError(t, err)
	assert.Equal(t, addr, again)
}

func TestParse_Malformed(t *testing.T) {
	cases := []string{
		"",
		"first",
		"/orbitdb/onlyroot",
		"/notorbitdb/root/first",
		"/orbitdb//first",
		"/orbitdb/root/",
	}
	for _, in := range cases {
		_, err := Parse(in)
		assert.Error(t, err, "input %q should fail to parse", in)
		var malformed *Malformed
		assert.ErrorAs(t, err, &malformed)
	}
}

func TestIsValid(t *testing.T) {
	assert.True(t, IsValid("/orbitdb/Qmabc123/first"))
	assert.False(t, IsValid("first"))
}

func TestIsZero(t *testing.T) {
	var zero Address
	assert.True(t, zero.IsZero())

	addr, err := Parse("/orbitdb/Qmabc123/first")
	require.NoError(t, err)
	assert.False(t, addr.IsZero())
}
