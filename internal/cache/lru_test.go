package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/flowlens/pkg/decode"
	"github.com/usestring/flowlens/pkg/flow"
)

func TestNewKey(t *testing.T) {
	a := NewKey("1", flow.DirResponse, "text/plain", "body")
	assert.Equal(t, a, NewKey("1", flow.DirResponse, "text/plain", "body"))

	assert.NotEqual(t, a, NewKey("1", flow.DirRequest, "text/plain", "body"))
	assert.NotEqual(t, a, NewKey("1", flow.DirResponse, "text/plain", "body2"))
	assert.NotEqual(t, a, NewKey("1", flow.DirResponse, "text/html", "body"))
	// The separator keeps the content type and body from bleeding together.
	assert.NotEqual(t, NewKey("1", flow.DirResponse, "ab", "c"), NewKey("1", flow.DirResponse, "a", "bc"))
}

func TestDecodeCache(t *testing.T) {
	_, err := NewDecodeCache(0)
	require.Error(t, err)

	c, err := NewDecodeCache(2)
	require.NoError(t, err)

	k1 := NewKey("1", flow.DirResponse, "", "a")
	k2 := NewKey("2", flow.DirResponse, "", "b")
	k3 := NewKey("3", flow.DirResponse, "", "c")

	c.Put(k1, decode.Report{Best: decode.Result{Method: "one"}})
	c.Put(k2, decode.Report{Best: decode.Result{Method: "two"}})

	got, ok := c.Get(k1)
	require.True(t, ok)
	assert.Equal(t, "one", got.Best.Method)

	// k2 is now least recently used.
	c.Put(k3, decode.Report{})
	_, ok = c.Get(k2)
	assert.False(t, ok)
	assert.Equal(t, 2, c.Len())

	c.Purge()
	assert.Equal(t, 0, c.Len())
}
