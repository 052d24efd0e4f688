package draw

import "github.com/chewxy/math32"

// minResolvableDepth is the smallest depth step of a 24-bit depth buffer.
const minResolvableDepth = 1.0 / (1 << 24)

// offsetStage applies polygon offset to window depth.
type offsetStage struct {
	StageBase
}

func newOffsetStage(p *Pipeline) (*offsetStage, error) {
	s := &offsetStage{StageBase: StageBase{Pipe: p, Name: "offset"}}
	if err := s.AllocTemps(3); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *offsetStage) Point(p *Prim) { s.ForwardPoint(p) }
func (s *offsetStage) Line(p *Prim)  { s.ForwardLine(p) }

// Tri needs p.Det, which the cull stage fills in upstream.
func (s *offsetStage) Tri(p *Prim) {
	r := s.Pipe.Rasterizer()
	a := s.V(p.V[0]).Data[0]
	b := s.V(p.V[1]).Data[0]
	c := s.V(p.V[2]).Data[0]

	ex, ey, ez := a[0]-c[0], a[1]-c[1], a[2]-c[2]
	fx, fy, fz := b[0]-c[0], b[1]-c[1], b[2]-c[2]

	invDet := 1 / p.Det
	dzdx := math32.Abs((ey*fz - ez*fy) * invDet)
	dzdy := math32.Abs((ez*fx - ex*fz) * invDet)
	zoffset := r.OffsetUnits*minResolvableDepth + math32.Max(dzdx, dzdy)*r.OffsetScale

	np := *p
	for i := 0; i < 3; i++ {
		np.V[i] = s.DupVert(i, p.V[i])
		v := s.V(np.V[i])
		v.Data[0][2] = clampDepth(v.Data[0][2] + zoffset)
	}
	s.ForwardTri(&np)
}

func clampDepth(z float32) float32 {
	switch {
	case z < 0:
		return 0
	case z > 1:
		return 1
	}
	return z
}
