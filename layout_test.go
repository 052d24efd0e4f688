package draw

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newColorLayout() *Layout {
	l := &Layout{}
	l.Add(Emit4F, InterpPos, 0)
	l.Add(Emit4UB, InterpLinear, 1)
	l.Add(Emit1FPointSize, InterpConstant, 0)
	l.Add(Emit2F, InterpPerspective, 3)
	l.ComputeSize()
	return l
}

func TestLayoutComputeSize(t *testing.T) {
	l := newColorLayout()
	assert.Equal(t, 8, l.Size)
	assert.Equal(t, 32, l.VertexSize())
	assert.Equal(t, 4, l.NumSlots())
}

func TestLayoutConstantSlots(t *testing.T) {
	l := newColorLayout()
	l.Add(Emit4F, InterpConstant, 5)
	assert.Equal(t, []int{0, 5}, l.ConstantSlots())
}

func TestLayoutEqualAndClone(t *testing.T) {
	a := newColorLayout()
	b := a.Clone()
	assert.True(t, a.Equal(b))

	b.Attribs[1].Emit = Emit4F
	assert.False(t, a.Equal(b))
	assert.Equal(t, Emit4UB, a.Attribs[1].Emit)

	var nilLayout *Layout
	assert.False(t, a.Equal(nilLayout))
	assert.True(t, nilLayout.Equal(nil))
}

func TestLayoutAddRejectsBadSlot(t *testing.T) {
	l := &Layout{}
	assert.Panics(t, func() { l.Add(Emit4F, InterpLinear, MaxAttribs) })
}

func TestEmitModeString(t *testing.T) {
	assert.Equal(t, "1F_PSIZE", Emit1FPointSize.String())
	assert.Equal(t, 1, Emit4UB.Dwords())
	assert.Equal(t, 0, EmitOmit.Dwords())
}
