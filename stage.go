package draw

// Stage is one link of the primitive pipeline. A stage receives primitives,
// may split, drop or modify them, and forwards the result to its next stage.
//
// Every stage embeds a StageBase, which carries the link to the next stage
// and the stage's temporary vertex pool.
type Stage interface {
	Point(p *Prim)
	Line(p *Prim)
	Tri(p *Prim)

	// Flush forwards the flush down the chain.
	Flush(flags FlushFlags)

	// ResetStippleCounter restarts the line stipple phase.
	ResetStippleCounter()

	// Destroy releases stage resources.
	Destroy()

	// Base returns the embedded StageBase.
	Base() *StageBase
}

// StageBase holds state common to all stages.
type StageBase struct {
	// Pipe is the owning pipeline.
	Pipe *Pipeline
	// Next is the downstream stage. It is rewired by the validate stage.
	Next Stage
	// Name identifies the stage in logs.
	Name string

	tmp []VertexRef
}

// Base implements Stage.
func (s *StageBase) Base() *StageBase { return s }

// AllocTemps reserves n temporary vertices for the stage in one contiguous
// block of the pipeline arena. It may only be called once per stage.
func (s *StageBase) AllocTemps(n int) error {
	Assert(s.tmp == nil, "AllocTemps", "stage %q already owns temporaries", s.Name)
	if n == 0 {
		return nil
	}
	first, err := s.Pipe.arena.alloc(n)
	if err != nil {
		return err
	}
	s.tmp = make([]VertexRef, n)
	for i := range s.tmp {
		s.tmp[i] = first + VertexRef(i)
	}
	return nil
}

// Temp returns the reference of temporary vertex i.
func (s *StageBase) Temp(i int) VertexRef { return s.tmp[i] }

// Temps returns the stage temporaries.
func (s *StageBase) Temps() []VertexRef { return s.tmp }

// FreeTemps forgets the stage temporaries. The arena block itself is
// released with the pipeline.
func (s *StageBase) FreeTemps() { s.tmp = nil }

// DupVert copies vertex src into temporary i and marks it not emitted.
func (s *StageBase) DupVert(i int, src VertexRef) VertexRef {
	dst := s.tmp[i]
	d := s.Pipe.Vertex(dst)
	*d = *s.Pipe.Vertex(src)
	d.ID = UndefinedVertexID
	return dst
}

// V returns the vertex behind r.
func (s *StageBase) V(r VertexRef) *Vertex { return s.Pipe.Vertex(r) }

// ForwardPoint, ForwardLine and ForwardTri hand a primitive to Next.
func (s *StageBase) ForwardPoint(p *Prim) { s.Next.Point(p) }

func (s *StageBase) ForwardLine(p *Prim) { s.Next.Line(p) }

func (s *StageBase) ForwardTri(p *Prim) { s.Next.Tri(p) }

// Flush forwards to Next.
func (s *StageBase) Flush(flags FlushFlags) {
	if s.Next != nil {
		s.Next.Flush(flags)
	}
}

// ResetStippleCounter forwards to Next.
func (s *StageBase) ResetStippleCounter() {
	if s.Next != nil {
		s.Next.ResetStippleCounter()
	}
}

// Destroy frees the temporaries.
func (s *StageBase) Destroy() { s.FreeTemps() }

// passthroughStage terminates the chain when no rasterize stage has been
// installed. It drops every primitive.
type passthroughStage struct {
	StageBase
}

func newPassthroughStage(p *Pipeline) *passthroughStage {
	return &passthroughStage{StageBase{Pipe: p, Name: "passthrough"}}
}

func (s *passthroughStage) Point(*Prim) {}
func (s *passthroughStage) Line(*Prim)  {}
func (s *passthroughStage) Tri(*Prim)   {}
