package draw

import (
	"github.com/chewxy/math32"
	"github.com/gogpu/gputypes"
)

type cullStage struct {
	StageBase
}

func newCullStage(p *Pipeline) (*cullStage, error) {
	return &cullStage{StageBase{Pipe: p, Name: "cull"}}, nil
}

func (s *cullStage) Point(p *Prim) { s.ForwardPoint(p) }
func (s *cullStage) Line(p *Prim)  { s.ForwardLine(p) }

// Tri computes the window-space determinant into p.Det and drops
// degenerate and culled faces. Window y points down, so a negative
// determinant is counter-clockwise.
func (s *cullStage) Tri(p *Prim) {
	a := &s.V(p.V[0]).Data[0]
	b := &s.V(p.V[1]).Data[0]
	c := &s.V(p.V[2]).Data[0]

	ex, ey := a[0]-c[0], a[1]-c[1]
	fx, fy := b[0]-c[0], b[1]-c[1]
	p.Det = ex*fy - ey*fx

	if p.Det == 0 || math32.IsNaN(p.Det) || math32.IsInf(p.Det, 0) {
		return
	}
	r := s.Pipe.Rasterizer()
	if r.CullMode == gputypes.CullModeNone || frontFacing(r, p.Det) != (r.CullMode == gputypes.CullModeFront) {
		s.ForwardTri(p)
	}
}

// frontFacing reports whether a triangle with determinant det faces the
// viewer under r.
func frontFacing(r *Rasterizer, det float32) bool {
	ccw := det < 0
	return ccw == (r.FrontFace == gputypes.FrontFaceCCW)
}
