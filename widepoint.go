package draw

// widePointStage expands points into screen-aligned quads. With point
// sprites enabled the quad corners receive (s, t, 0, 1) coordinates in the
// rasterizer's sprite slots.
type widePointStage struct {
	StageBase
}

func newWidePointStage(p *Pipeline) (*widePointStage, error) {
	s := &widePointStage{StageBase: StageBase{Pipe: p, Name: "wide point"}}
	if err := s.AllocTemps(4); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *widePointStage) Line(p *Prim) { s.ForwardLine(p) }
func (s *widePointStage) Tri(p *Prim)  { s.ForwardTri(p) }

var spriteCorners = [4][2]float32{{0, 0}, {1, 0}, {0, 1}, {1, 1}}

func (s *widePointStage) Point(p *Prim) {
	r := s.Pipe.Rasterizer()
	size := r.PointSize
	if r.PointSizeSlot >= 0 {
		size = s.V(p.V[0]).Data[r.PointSizeSlot][0]
	}
	half := 0.5 * size

	var refs [4]VertexRef
	for i := range refs {
		refs[i] = s.DupVert(i, p.V[0])
		pos := &s.V(refs[i]).Data[0]
		if i&1 == 0 {
			pos[0] -= half
		} else {
			pos[0] += half
		}
		if i < 2 {
			pos[1] -= half
		} else {
			pos[1] += half
		}
	}

	if r.PointSprite && s.Pipe.pointSprite {
		for i, ref := range refs {
			v := s.V(ref)
			for _, slot := range r.SpriteCoordSlots {
				v.Data[slot] = [4]float32{spriteCorners[i][0], spriteCorners[i][1], 0, 1}
			}
		}
	}

	tri := Prim{
		V:            [3]VertexRef{refs[0], refs[2], refs[3]},
		EdgeFlags:    EdgeFlagsAll,
		ResetStipple: p.ResetStipple,
	}
	s.ForwardTri(&tri)
	tri.V = [3]VertexRef{refs[0], refs[3], refs[1]}
	s.ForwardTri(&tri)
}
