package draw

import "fmt"

// EmitMode selects how an attribute is written into a hardware vertex.
type EmitMode uint8

const (
	// EmitOmit drops the attribute.
	EmitOmit EmitMode = iota
	// Emit1F copies the first component.
	Emit1F
	// Emit1FPointSize writes the rasterizer point size instead of the slot.
	Emit1FPointSize
	// Emit2F copies two components.
	Emit2F
	// Emit3F copies three components.
	Emit3F
	// Emit4F copies all four components.
	Emit4F
	// Emit4UB packs four components as unsigned normalized bytes.
	Emit4UB
)

var emitNames = [...]string{
	EmitOmit:        "Omit",
	Emit1F:          "1F",
	Emit1FPointSize: "1F_PSIZE",
	Emit2F:          "2F",
	Emit3F:          "3F",
	Emit4F:          "4F",
	Emit4UB:         "4UB",
}

func (e EmitMode) String() string {
	if int(e) < len(emitNames) {
		return emitNames[e]
	}
	return fmt.Sprintf("EmitMode(%d)", uint8(e))
}

// Dwords returns the hardware size of the emitted attribute in 32-bit words.
func (e EmitMode) Dwords() int {
	switch e {
	case Emit1F, Emit1FPointSize, Emit4UB:
		return 1
	case Emit2F:
		return 2
	case Emit3F:
		return 3
	case Emit4F:
		return 4
	default:
		return 0
	}
}

// InterpMode is the interpolation a rasterizer applies to an attribute.
type InterpMode uint8

const (
	InterpNone InterpMode = iota
	InterpPos
	InterpConstant
	InterpLinear
	InterpPerspective
)

// Attrib is one emission directive of a Layout.
type Attrib struct {
	Emit   EmitMode
	Interp InterpMode
	// Src is the post-transform slot the attribute is read from.
	Src int
}

// Layout describes the hardware vertex a backend wants to receive.
type Layout struct {
	Attribs []Attrib
	// Size is the total vertex size in dwords, see ComputeSize.
	Size int
}

// Add appends an attribute and returns its index in the layout.
func (l *Layout) Add(emit EmitMode, interp InterpMode, src int) int {
	Assert(len(l.Attribs) < MaxAttribs, "Layout.Add", "too many attributes")
	Assert(src >= 0 && src < MaxAttribs, "Layout.Add", "source slot %d out of range", src)
	l.Attribs = append(l.Attribs, Attrib{Emit: emit, Interp: interp, Src: src})
	return len(l.Attribs) - 1
}

// ComputeSize recomputes Size from the attribute list.
func (l *Layout) ComputeSize() {
	size := 0
	for _, a := range l.Attribs {
		size += a.Emit.Dwords()
	}
	l.Size = size
}

// VertexSize returns the hardware vertex size in bytes.
func (l *Layout) VertexSize() int { return l.Size * 4 }

// NumSlots returns the number of post-transform slots the layout reads.
func (l *Layout) NumSlots() int {
	n := 0
	for _, a := range l.Attribs {
		if a.Emit != EmitOmit && a.Emit != Emit1FPointSize && a.Src+1 > n {
			n = a.Src + 1
		}
	}
	return n
}

// ConstantSlots returns the source slots using constant interpolation.
func (l *Layout) ConstantSlots() []int {
	var slots []int
	for _, a := range l.Attribs {
		if a.Interp == InterpConstant && a.Emit != EmitOmit {
			slots = append(slots, a.Src)
		}
	}
	return slots
}

// Equal reports whether two layouts emit the same hardware vertex.
func (l *Layout) Equal(o *Layout) bool {
	if l == o {
		return true
	}
	if l == nil || o == nil || l.Size != o.Size || len(l.Attribs) != len(o.Attribs) {
		return false
	}
	for i := range l.Attribs {
		if l.Attribs[i] != o.Attribs[i] {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of l.
func (l *Layout) Clone() *Layout {
	if l == nil {
		return nil
	}
	c := &Layout{Size: l.Size}
	c.Attribs = append([]Attrib(nil), l.Attribs...)
	return c
}
