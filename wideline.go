package draw

import "github.com/chewxy/math32"

// wideLineStage turns each line into a quad of two triangles, widened along
// the minor axis and extended by half a pixel along the major axis.
type wideLineStage struct {
	StageBase
}

func newWideLineStage(p *Pipeline) (*wideLineStage, error) {
	s := &wideLineStage{StageBase: StageBase{Pipe: p, Name: "wide line"}}
	if err := s.AllocTemps(4); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *wideLineStage) Point(p *Prim) { s.ForwardPoint(p) }
func (s *wideLineStage) Tri(p *Prim)   { s.ForwardTri(p) }

func (s *wideLineStage) Line(p *Prim) {
	half := 0.5 * s.Pipe.Rasterizer().LineWidth

	r0 := s.DupVert(0, p.V[0])
	r1 := s.DupVert(1, p.V[0])
	r2 := s.DupVert(2, p.V[1])
	r3 := s.DupVert(3, p.V[1])
	p0, p1 := &s.V(r0).Data[0], &s.V(r1).Data[0]
	p2, p3 := &s.V(r2).Data[0], &s.V(r3).Data[0]

	dx := math32.Abs(p0[0] - p2[0])
	dy := math32.Abs(p0[1] - p2[1])

	if dx > dy {
		p0[1] -= half
		p1[1] += half
		p2[1] -= half
		p3[1] += half
		ext := float32(0.5)
		if p0[0] > p2[0] {
			ext = -ext
		}
		p0[0] -= ext
		p1[0] -= ext
		p2[0] += ext
		p3[0] += ext
	} else {
		p0[0] -= half
		p1[0] += half
		p2[0] -= half
		p3[0] += half
		ext := float32(0.5)
		if p0[1] > p2[1] {
			ext = -ext
		}
		p0[1] -= ext
		p1[1] -= ext
		p2[1] += ext
		p3[1] += ext
	}

	tri := Prim{
		V:            [3]VertexRef{r0, r2, r3},
		EdgeFlags:    EdgeFlagsAll,
		ResetStipple: p.ResetStipple,
		Det:          p.Det,
	}
	s.ForwardTri(&tri)
	tri.V = [3]VertexRef{r0, r3, r1}
	s.ForwardTri(&tri)
}
