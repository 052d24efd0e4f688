package draw

// flatshadeStage copies constant-interpolated slots from the provoking
// vertex, the last one of each primitive, into the others.
type flatshadeStage struct {
	StageBase
	slots []int
}

func newFlatshadeStage(p *Pipeline) (*flatshadeStage, error) {
	s := &flatshadeStage{StageBase: StageBase{Pipe: p, Name: "flatshade"}}
	if err := s.AllocTemps(2); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *flatshadeStage) constantSlots() []int {
	s.slots = s.slots[:0]
	if l := s.Pipe.VertexLayout(); l != nil {
		for _, slot := range l.ConstantSlots() {
			if slot != 0 {
				s.slots = append(s.slots, slot)
			}
		}
	}
	return s.slots
}

func (s *flatshadeStage) copyFrom(dst, src VertexRef, slots []int) {
	d, v := s.V(dst), s.V(src)
	for _, slot := range slots {
		d.Data[slot] = v.Data[slot]
	}
}

func (s *flatshadeStage) Point(p *Prim) { s.ForwardPoint(p) }

func (s *flatshadeStage) Line(p *Prim) {
	slots := s.constantSlots()
	if len(slots) == 0 {
		s.ForwardLine(p)
		return
	}
	np := *p
	np.V[0] = s.DupVert(0, p.V[0])
	s.copyFrom(np.V[0], p.V[1], slots)
	s.ForwardLine(&np)
}

func (s *flatshadeStage) Tri(p *Prim) {
	slots := s.constantSlots()
	if len(slots) == 0 {
		s.ForwardTri(p)
		return
	}
	np := *p
	np.V[0] = s.DupVert(0, p.V[0])
	np.V[1] = s.DupVert(1, p.V[1])
	s.copyFrom(np.V[0], p.V[2], slots)
	s.copyFrom(np.V[1], p.V[2], slots)
	s.ForwardTri(&np)
}
