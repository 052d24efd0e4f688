package translate

import (
	"testing"

	"github.com/gogpu/draw"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keyOf(t *testing.T, emits ...draw.EmitMode) Key {
	t.Helper()
	l := &draw.Layout{}
	for i, e := range emits {
		l.Add(e, draw.InterpPerspective, i)
	}
	l.ComputeSize()
	k, err := KeyFromLayout(l)
	require.NoError(t, err)
	return k
}

func TestCacheHit(t *testing.T) {
	c := NewCache(4)
	a := c.Get(keyOf(t, draw.Emit4F, draw.Emit4UB))
	b := c.Get(keyOf(t, draw.Emit4F, draw.Emit4UB))
	assert.Same(t, a, b)
	assert.Equal(t, CacheStats{Len: 1, Hits: 1, Misses: 1}, c.Stats())

	d := c.Get(keyOf(t, draw.Emit4F, draw.Emit4F))
	assert.NotSame(t, a, d)
	assert.Equal(t, 2, c.Len())
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewCache(2)
	k1 := keyOf(t, draw.Emit4F)
	k2 := keyOf(t, draw.Emit3F)
	k3 := keyOf(t, draw.Emit2F)

	first := c.Get(k1)
	c.Get(k2)
	c.Get(k1) // k2 is now the oldest
	c.Get(k3)

	assert.Equal(t, 2, c.Len())
	assert.Same(t, first, c.Get(k1), "k1 should survive")
	misses := c.Stats().Misses
	c.Get(k2)
	assert.Equal(t, misses+1, c.Stats().Misses, "k2 should have been evicted")
}

func TestCacheKeysDistinguishPointSize(t *testing.T) {
	a := keyOf(t, draw.Emit4F, draw.Emit1F)
	b := keyOf(t, draw.Emit4F, draw.Emit1FPointSize)
	assert.NotEqual(t, a.id(), b.id())
	assert.Equal(t, a.id(), keyOf(t, draw.Emit4F, draw.Emit1F).id())
}

func TestCacheClear(t *testing.T) {
	c := NewCache(0)
	for _, e := range []draw.EmitMode{draw.Emit1F, draw.Emit2F, draw.Emit3F, draw.Emit4F} {
		c.Get(keyOf(t, e))
	}
	assert.Equal(t, 4, c.Len())
	c.Clear()
	assert.Zero(t, c.Len())
}
