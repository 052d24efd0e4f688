package draw

// MaxAttribs is the number of post-transform attribute slots carried by a
// Vertex. Slot 0 always holds the window-space position.
const MaxAttribs = 16

// UndefinedVertexID marks a vertex that has not been emitted into the
// current hardware vertex buffer. It is the zero value of Vertex.ID.
const UndefinedVertexID uint16 = 0

// MaxVertexSlots is the number of buffer slots an emission ID can name.
const MaxVertexSlots = 1<<16 - 1

// ClipMask records which clip half-spaces a vertex lies outside of.
type ClipMask uint16

// Frustum clip bits, one per homogeneous half-space test.
const (
	ClipRight  ClipMask = 1 << iota // -x + w < 0
	ClipLeft                        //  x + w < 0
	ClipTop                         // -y + w < 0
	ClipBottom                      //  y + w < 0
	ClipFar                         // -z + w < 0
	ClipNear                        //  z + w < 0
)

// ClipFrustum covers the six frustum bits.
const ClipFrustum ClipMask = 0x3f

// MaxUserClipPlanes is the number of user clip planes that fit in a ClipMask
// above the frustum bits.
const MaxUserClipPlanes = 6

// userClipShift is the bit position of the first user clip plane.
const userClipShift = 6

// UserClipBit returns the clip mask bit for user clip plane i.
func UserClipBit(i int) ClipMask {
	return ClipMask(1) << (userClipShift + uint(i))
}

// Edge flag bits of a primitive. Bit i marks the edge that starts at v[i].
const (
	EdgeFlag0 uint8 = 1 << iota
	EdgeFlag1
	EdgeFlag2
	EdgeFlagsAll = EdgeFlag0 | EdgeFlag1 | EdgeFlag2
)

// Vertex is a post-transform vertex as seen by the pipeline stages.
//
// ID is the emission identity tag: one past the buffer slot the vertex was
// written to, or UndefinedVertexID. It is only meaningful between two
// vertex-emitting flushes of the emission stage and must be reset whenever
// the vertex contents change. Set it through Pipeline.TagVertex.
type Vertex struct {
	ID           uint16
	EdgeFlag     uint8
	ResetStipple bool
	ClipMask     ClipMask

	// Clip is the clip-space position before the homogeneous divide.
	Clip [4]float32

	// Data holds attribute slots. Data[0] is the window-space position
	// with 1/w in the fourth component.
	Data [MaxAttribs][4]float32
}

// Slot returns the buffer slot v was emitted to. ok is false if v has not
// been emitted.
func (v *Vertex) Slot() (slot uint16, ok bool) {
	if v.ID == UndefinedVertexID {
		return 0, false
	}
	return v.ID - 1, true
}

// ResetIDs marks every vertex in verts as not yet emitted.
func ResetIDs(verts []Vertex) {
	for i := range verts {
		verts[i].ID = UndefinedVertexID
	}
}

// VertexRef addresses a vertex owned by the pipeline arena. References with
// the temp bit set point into the stage temporary pool; all others index the
// vertex array bound by the current Run.
type VertexRef uint32

const tempRefBit VertexRef = 1 << 31

// IsTemp reports whether r points at a stage temporary vertex.
func (r VertexRef) IsTemp() bool { return r&tempRefBit != 0 }

// Arena owns the storage behind every VertexRef.
//
// Stage temporaries live in one contiguous block that grows only while the
// pipeline is being built; the input array is borrowed for the duration of
// a Run. The arena also remembers every input array that had a vertex
// tagged since the last identity reset.
type Arena struct {
	input    []Vertex
	tracked  bool
	epoch    [][]Vertex
	temps    []Vertex
	maxTemps int
}

// At returns the vertex addressed by r. It panics if r is out of range.
func (a *Arena) At(r VertexRef) *Vertex {
	if r.IsTemp() {
		return &a.temps[r&^tempRefBit]
	}
	return &a.input[r]
}

// Input returns the currently bound vertex array.
func (a *Arena) Input() []Vertex { return a.input }

// alloc reserves n contiguous temporaries and returns a reference to the
// first one.
func (a *Arena) alloc(n int) (VertexRef, error) {
	if len(a.temps)+n > a.maxTemps {
		return 0, ErrAllocation
	}
	first := VertexRef(len(a.temps)) | tempRefBit
	for i := 0; i < n; i++ {
		a.temps = append(a.temps, Vertex{})
	}
	return first, nil
}

func (a *Arena) bind(verts []Vertex) {
	a.input = verts
	a.tracked = false
}

func (a *Arena) unbind() {
	a.input = nil
	a.tracked = false
}

// tag records slot as the emission ID of the vertex behind r and adds the
// bound input array to the epoch on its first tagged vertex.
func (a *Arena) tag(r VertexRef, slot uint16) *Vertex {
	v := a.At(r)
	v.ID = slot + 1
	if r.IsTemp() || a.tracked {
		return v
	}
	a.tracked = true
	if n := len(a.epoch); n > 0 && &a.epoch[n-1][0] == &a.input[0] {
		return v
	}
	a.epoch = append(a.epoch, a.input)
	return v
}

// resetIDs marks every temporary and every tagged input vertex as not
// emitted, and starts a new epoch.
func (a *Arena) resetIDs() {
	ResetIDs(a.temps)
	for i, verts := range a.epoch {
		ResetIDs(verts)
		a.epoch[i] = nil
	}
	a.epoch = a.epoch[:0]
	a.tracked = false
}
