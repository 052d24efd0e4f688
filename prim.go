package draw

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// Kind is the primitive kind flowing through the stage chain.
type Kind uint8

const (
	// Points are single-vertex primitives.
	Points Kind = iota
	// Lines are two-vertex primitives.
	Lines
	// Triangles are three-vertex primitives.
	Triangles
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Points:
		return "Points"
	case Lines:
		return "Lines"
	case Triangles:
		return "Triangles"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Verts returns the number of vertices per primitive.
func (k Kind) Verts() int {
	return int(k) + 1
}

// Topology returns the list topology a backend should draw the kind with.
func (k Kind) Topology() gputypes.PrimitiveTopology {
	switch k {
	case Points:
		return gputypes.PrimitiveTopologyPointList
	case Lines:
		return gputypes.PrimitiveTopologyLineList
	default:
		return gputypes.PrimitiveTopologyTriangleList
	}
}

// Prim is a transient primitive passed down the stage chain. It borrows its
// vertices from the pipeline arena and is never retained by a stage.
type Prim struct {
	V [3]VertexRef

	// EdgeFlags packs the original-edge flags, see EdgeFlag0..2.
	EdgeFlags uint8

	// ResetStipple restarts the line stipple pattern at this primitive.
	ResetStipple bool

	// Det is the signed window-space area, filled in by the cull stage.
	Det float32
}

// Mode is an input primitive mode before decomposition into lists.
type Mode uint8

const (
	ModePoints Mode = iota
	ModeLines
	ModeLineLoop
	ModeLineStrip
	ModeTriangles
	ModeTriangleStrip
	ModeTriangleFan
	ModeQuads
	ModeQuadStrip
	ModePolygon
)

var modeNames = [...]string{
	ModePoints:        "Points",
	ModeLines:         "Lines",
	ModeLineLoop:      "LineLoop",
	ModeLineStrip:     "LineStrip",
	ModeTriangles:     "Triangles",
	ModeTriangleStrip: "TriangleStrip",
	ModeTriangleFan:   "TriangleFan",
	ModeQuads:         "Quads",
	ModeQuadStrip:     "QuadStrip",
	ModePolygon:       "Polygon",
}

// String returns the mode name.
func (m Mode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("Mode(%d)", uint8(m))
}

// ParseMode returns the mode with the given name.
func ParseMode(s string) (Mode, error) {
	for i, n := range modeNames {
		if n == s {
			return Mode(i), nil
		}
	}
	return 0, fmt.Errorf("draw: unknown primitive mode %q", s)
}

// Kind returns the list kind the mode decomposes into.
func (m Mode) Kind() Kind {
	switch m {
	case ModePoints:
		return Points
	case ModeLines, ModeLineLoop, ModeLineStrip:
		return Lines
	default:
		return Triangles
	}
}

// primInfo returns the vertex count of the first primitive and the number
// of vertices each further primitive adds.
func primInfo(m Mode) (first, incr int) {
	switch m {
	case ModePoints:
		return 1, 1
	case ModeLines:
		return 2, 2
	case ModeLineStrip, ModeLineLoop:
		return 2, 1
	case ModeTriangles:
		return 3, 3
	case ModeTriangleStrip, ModeTriangleFan, ModePolygon:
		return 3, 1
	case ModeQuads:
		return 4, 4
	case ModeQuadStrip:
		return 4, 2
	default:
		panic(inconsistency("primInfo", "unknown mode %d", m))
	}
}

// TrimPrim returns the largest vertex count not above count that forms only
// whole primitives of mode m.
func TrimPrim(m Mode, count int) int {
	first, incr := primInfo(m)
	if count < first {
		return 0
	}
	return count - (count-first)%incr
}

// ValidatePrim reports whether count vertices form whole primitives of m.
func ValidatePrim(m Mode, count int) bool {
	return count > 0 && count == TrimPrim(m, count)
}

// Decompose converts an index list in mode m into a list of the kind
// returned by m.Kind(). Trailing indices that do not form a whole primitive
// are dropped. Winding of strips is kept consistent by swapping every
// second triangle.
func Decompose(m Mode, indices []uint16) []uint16 {
	n := TrimPrim(m, len(indices))
	idx := indices[:n]
	var out []uint16

	switch m {
	case ModePoints, ModeLines, ModeTriangles:
		out = append(out, idx...)
	case ModeLineStrip:
		for i := 0; i+1 < n; i++ {
			out = append(out, idx[i], idx[i+1])
		}
	case ModeLineLoop:
		for i := 0; i+1 < n; i++ {
			out = append(out, idx[i], idx[i+1])
		}
		if n > 2 {
			out = append(out, idx[n-1], idx[0])
		}
	case ModeTriangleStrip:
		for i := 0; i+2 < n; i++ {
			if i&1 == 0 {
				out = append(out, idx[i], idx[i+1], idx[i+2])
			} else {
				out = append(out, idx[i+1], idx[i], idx[i+2])
			}
		}
	case ModeTriangleFan, ModePolygon:
		for i := 1; i+1 < n; i++ {
			out = append(out, idx[0], idx[i], idx[i+1])
		}
	case ModeQuads:
		for i := 0; i+3 < n; i += 4 {
			out = append(out,
				idx[i], idx[i+1], idx[i+3],
				idx[i+1], idx[i+2], idx[i+3])
		}
	case ModeQuadStrip:
		for i := 0; i+3 < n; i += 2 {
			out = append(out,
				idx[i], idx[i+1], idx[i+3],
				idx[i], idx[i+3], idx[i+2])
		}
	}
	return out
}
