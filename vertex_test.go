package draw

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArenaAlloc(t *testing.T) {
	a := Arena{maxTemps: 4}
	first, err := a.alloc(3)
	require.NoError(t, err)
	assert.True(t, first.IsTemp())
	assert.Equal(t, UndefinedVertexID, a.At(first).ID)

	_, err = a.alloc(2)
	assert.ErrorIs(t, err, ErrAllocation)
}

func TestArenaInput(t *testing.T) {
	var a Arena
	verts := []Vertex{{ID: 1}, {ID: 2}}
	a.bind(verts)
	assert.Equal(t, uint16(2), a.At(1).ID)
	assert.False(t, VertexRef(1).IsTemp())

	a.At(0).ID = 9
	assert.Equal(t, uint16(9), verts[0].ID)
}

func TestUserClipBit(t *testing.T) {
	assert.Equal(t, ClipMask(1<<6), UserClipBit(0))
	assert.Zero(t, UserClipBit(5)&ClipFrustum)
}

func TestStageTemps(t *testing.T) {
	p, err := New()
	require.NoError(t, err)
	defer p.Destroy()

	s := &StageBase{Pipe: p, Name: "test"}
	require.NoError(t, s.AllocTemps(2))
	assert.Len(t, s.Temps(), 2)
	assert.Panics(t, func() { _ = s.AllocTemps(1) })

	verts := []Vertex{windowVertex(3, 4)}
	verts[0].ID = 11
	p.arena.bind(verts)
	defer p.arena.unbind()

	r := s.DupVert(1, 0)
	assert.Equal(t, s.Temp(1), r)
	assert.Equal(t, UndefinedVertexID, p.Vertex(r).ID)
	assert.Equal(t, float32(3), p.Vertex(r).Data[0][0])

	s.Destroy()
	assert.Empty(t, s.Temps())
}

func TestVertexSlot(t *testing.T) {
	var v Vertex
	_, ok := v.Slot()
	assert.False(t, ok)

	v.ID = 1
	slot, ok := v.Slot()
	assert.True(t, ok)
	assert.Equal(t, uint16(0), slot)
}

func TestEpochHoldsOnlyTaggedInputs(t *testing.T) {
	p, err := New()
	require.NoError(t, err)
	defer p.Destroy()

	for i := 0; i < 1000; i++ {
		verts := []Vertex{windowVertex(0, 0), windowVertex(1, 0), windowVertex(0, 1)}
		p.Run(Triangles, verts, []uint16{0, 1, 2})
		p.Flush(FlushBackend)
	}
	assert.Empty(t, p.arena.epoch)

	verts := []Vertex{windowVertex(0, 0), windowVertex(1, 0)}
	for i := 0; i < 3; i++ {
		p.arena.bind(verts)
		p.TagVertex(VertexRef(i%2), uint16(i))
		p.arena.unbind()
	}
	assert.Len(t, p.arena.epoch, 1)

	p.ResetVertexIDs()
	assert.Empty(t, p.arena.epoch)
	assert.Equal(t, UndefinedVertexID, verts[0].ID)
	assert.Equal(t, UndefinedVertexID, verts[1].ID)
}
