package draw

import "github.com/chewxy/math32"

// stippleStage splits lines into the "on" segments of the stipple pattern.
// The counter runs across lines until a primitive asks for a reset.
type stippleStage struct {
	StageBase
	counter int
}

func newStippleStage(p *Pipeline) (*stippleStage, error) {
	s := &stippleStage{StageBase: StageBase{Pipe: p, Name: "stipple"}}
	if err := s.AllocTemps(2); err != nil {
		return nil, err
	}
	return s, nil
}

func stippleOn(counter int, pattern uint16, factor int) bool {
	bit := (counter / factor) & 0xf
	return pattern&(1<<uint(bit)) != 0
}

func (s *stippleStage) Point(p *Prim) { s.ForwardPoint(p) }
func (s *stippleStage) Tri(p *Prim)   { s.ForwardTri(p) }

func (s *stippleStage) Line(p *Prim) {
	r := s.Pipe.Rasterizer()
	factor := r.LineStippleFactor
	if factor < 1 {
		factor = 1
	}
	if p.ResetStipple {
		s.counter = 0
	}

	a := s.V(p.V[0]).Data[0]
	b := s.V(p.V[1]).Data[0]
	length := int(math32.Max(math32.Abs(a[0]-b[0]), math32.Abs(a[1]-b[1])) + 0.5)
	if length == 0 {
		return
	}

	on := false
	start := 0
	for i := 0; i < length; i++ {
		bit := stippleOn(s.counter, r.LineStipplePattern, factor)
		if bit != on {
			if on {
				s.emitSegment(p, float32(start)/float32(length), float32(i)/float32(length))
			} else {
				start = i
			}
			on = bit
		}
		s.counter++
	}
	if on {
		s.emitSegment(p, float32(start)/float32(length), 1)
	}
}

// emitSegment forwards the part of p between parameters t0 and t1.
func (s *stippleStage) emitSegment(p *Prim, t0, t1 float32) {
	np := *p
	if t0 > 0 {
		np.V[0] = s.Temp(0)
		s.lerp(np.V[0], t0, p.V[0], p.V[1])
	}
	if t1 < 1 {
		np.V[1] = s.Temp(1)
		s.lerp(np.V[1], t1, p.V[0], p.V[1])
	}
	s.ForwardLine(&np)
}

// lerp interpolates every slot linearly in window space.
func (s *stippleStage) lerp(dst VertexRef, t float32, from, to VertexRef) {
	d, a, b := s.V(dst), s.V(from), s.V(to)
	*d = *a
	d.ID = UndefinedVertexID
	n := s.Pipe.NumSlots()
	for j := 0; j < n; j++ {
		for c := 0; c < 4; c++ {
			d.Data[j][c] = a.Data[j][c] + t*(b.Data[j][c]-a.Data[j][c])
		}
	}
}

func (s *stippleStage) ResetStippleCounter() {
	s.counter = 0
	s.StageBase.ResetStippleCounter()
}
