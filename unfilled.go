package draw

// unfilledStage draws polygons as outlines or vertices according to the
// fill mode of the face. Only edges carrying an edge flag are drawn.
type unfilledStage struct {
	StageBase
}

func newUnfilledStage(p *Pipeline) (*unfilledStage, error) {
	return &unfilledStage{StageBase{Pipe: p, Name: "unfilled"}}, nil
}

func (s *unfilledStage) Point(p *Prim) { s.ForwardPoint(p) }
func (s *unfilledStage) Line(p *Prim)  { s.ForwardLine(p) }

func (s *unfilledStage) Tri(p *Prim) {
	r := s.Pipe.Rasterizer()
	mode := r.FillBack
	if frontFacing(r, p.Det) {
		mode = r.FillFront
	}

	switch mode {
	case FillLine:
		reset := p.ResetStipple
		for i := 0; i < 3; i++ {
			if p.EdgeFlags&(1<<uint(i)) == 0 {
				continue
			}
			line := Prim{
				V:            [3]VertexRef{p.V[i], p.V[(i+1)%3]},
				EdgeFlags:    1,
				ResetStipple: reset,
				Det:          p.Det,
			}
			reset = false
			s.ForwardLine(&line)
		}
	case FillPoint:
		for i := 0; i < 3; i++ {
			if p.EdgeFlags&(1<<uint(i)) == 0 {
				continue
			}
			pt := Prim{V: [3]VertexRef{p.V[i]}, EdgeFlags: 1, Det: p.Det}
			s.ForwardPoint(&pt)
		}
	default:
		s.ForwardTri(p)
	}
}
