package draw

// captured is one primitive as seen by the terminal stage.
type captured struct {
	kind  Kind
	prim  Prim
	verts []Vertex
}

// captureStage records every primitive that reaches the end of the chain.
type captureStage struct {
	StageBase
	prims   []captured
	flushes []FlushFlags
	resets  int
}

func newCapture() *captureStage {
	return &captureStage{StageBase: StageBase{Name: "capture"}}
}

func (s *captureStage) record(k Kind, p *Prim) {
	c := captured{kind: k, prim: *p}
	for i := 0; i < k.Verts(); i++ {
		c.verts = append(c.verts, *s.V(p.V[i]))
	}
	s.prims = append(s.prims, c)
}

func (s *captureStage) Point(p *Prim) { s.record(Points, p) }
func (s *captureStage) Line(p *Prim)  { s.record(Lines, p) }
func (s *captureStage) Tri(p *Prim)   { s.record(Triangles, p) }

func (s *captureStage) Flush(flags FlushFlags) { s.flushes = append(s.flushes, flags) }

func (s *captureStage) ResetStippleCounter() { s.resets++ }

func (s *captureStage) count(k Kind) int {
	n := 0
	for _, c := range s.prims {
		if c.kind == k {
			n++
		}
	}
	return n
}

// clipVertex returns a vertex at clip position (x, y, z, w) run through the
// identity viewport.
func clipVertex(x, y, z, w float32) Vertex {
	v := Vertex{
		EdgeFlag: 1,
		Clip:     [4]float32{x, y, z, w},
	}
	v.ClipMask = ComputeClipMask(v.Clip)
	v.Data[0] = [4]float32{x / w, y / w, z / w, 1 / w}
	return v
}

// windowVertex returns an unclipped vertex at window position (x, y).
func windowVertex(x, y float32) Vertex {
	return Vertex{
		EdgeFlag: 1,
		Clip:     [4]float32{x, y, 0, 1},
		Data:     [MaxAttribs][4]float32{{x, y, 0, 1}},
	}
}

// newTestPipeline returns a pipeline with a capture stage installed.
func newTestPipeline(t interface {
	Helper()
	Fatalf(string, ...any)
	Cleanup(func())
}, opts ...Option) (*Pipeline, *captureStage) {
	t.Helper()
	p, err := New(opts...)
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	t.Cleanup(p.Destroy)
	c := newCapture()
	p.Install(SlotRasterize, c)
	return p, c
}
