package draw

// twosideStage replaces front colours with back colours on back-facing
// triangles.
type twosideStage struct {
	StageBase
}

func newTwosideStage(p *Pipeline) (*twosideStage, error) {
	s := &twosideStage{StageBase: StageBase{Pipe: p, Name: "twoside"}}
	if err := s.AllocTemps(3); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *twosideStage) Point(p *Prim) { s.ForwardPoint(p) }
func (s *twosideStage) Line(p *Prim)  { s.ForwardLine(p) }

func (s *twosideStage) Tri(p *Prim) {
	r := s.Pipe.Rasterizer()
	if frontFacing(r, p.Det) {
		s.ForwardTri(p)
		return
	}
	np := *p
	for i := 0; i < 3; i++ {
		np.V[i] = s.DupVert(i, p.V[i])
		v := s.V(np.V[i])
		for _, pair := range r.TwoSideSlots {
			v.Data[pair.Front] = v.Data[pair.Back]
		}
	}
	s.ForwardTri(&np)
}
