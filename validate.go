package draw

// validateStage is the chain entry after every flush. On the first
// primitive it links the stages the current state needs, makes the result
// the pipeline entry, and hands the primitive on.
type validateStage struct {
	StageBase
}

func newValidateStage(p *Pipeline) *validateStage {
	return &validateStage{StageBase{Pipe: p, Name: "validate"}}
}

func (s *validateStage) Point(p *Prim) { s.install().Point(p) }
func (s *validateStage) Line(p *Prim)  { s.install().Line(p) }
func (s *validateStage) Tri(p *Prim)   { s.install().Tri(p) }

// Flush goes straight to the terminal stage: nothing upstream of it can
// hold primitives while the chain is unvalidated, but the terminal stage
// may still own a vertex buffer.
func (s *validateStage) Flush(flags FlushFlags) {
	s.Pipe.terminal().Flush(flags)
}

func (s *validateStage) ResetStippleCounter() {
	s.Pipe.stipple.counter = 0
	s.Pipe.terminal().ResetStippleCounter()
}

func (s *validateStage) install() Stage {
	first := s.link()
	s.Pipe.first = first
	Logger().Debug("draw: chain validated", "entry", first.Base().Name)
	return first
}

// link wires the stage chain back to front and returns its entry. Stages
// that split primitives sit nearest to the terminal stage; clip and
// flatshade run first so later stages see final attributes.
func (s *validateStage) link() Stage {
	p := s.Pipe
	r := &p.rast
	next := p.terminal()
	precalcFlat := false

	aaline := p.addons[SlotAALine]
	aapoint := p.addons[SlotAAPoint]

	wideLines := r.LineWidth > p.wideLineThreshold && !r.LineSmooth

	var widePoints bool
	switch {
	case len(r.SpriteCoordSlots) > 0 && p.pointSprite:
		widePoints = true
	case r.PointSmooth && aapoint != nil:
		widePoints = false
	case r.PointSize > p.widePointThreshold:
		widePoints = true
	case r.PointSizeSlot >= 0 && p.pointSprite:
		widePoints = true
	}

	chain := func(st Stage) {
		st.Base().Next = next
		next = st
	}

	if r.LineSmooth && aaline != nil {
		chain(aaline)
		precalcFlat = true
	}
	if r.PointSmooth && aapoint != nil {
		chain(aapoint)
	}
	if wideLines {
		chain(p.wideLine)
		precalcFlat = true
	}
	if widePoints {
		chain(p.widePoint)
	}
	if r.LineStippleEnable && p.lineStipple {
		chain(p.stipple)
		precalcFlat = true
	}
	if ps := p.addons[SlotPStipple]; r.PolyStipple && ps != nil {
		chain(ps)
	}
	if r.FillFront != FillSolid || r.FillBack != FillSolid {
		chain(p.unfilled)
		precalcFlat = true
	}
	if r.OffsetEnable && (r.OffsetUnits != 0 || r.OffsetScale != 0) {
		chain(p.offset)
	}
	if r.TwoSide && len(r.TwoSideSlots) > 0 {
		chain(p.twoside)
	}

	// Cull always runs: it computes the determinant later stages read.
	chain(p.cull)

	if !r.BypassClipping {
		chain(p.clip)
		precalcFlat = true
	}
	if r.Flatshade && precalcFlat {
		chain(p.flatshade)
	}

	return next
}

// terminal returns the installed rasterize stage or the passthrough stage.
func (p *Pipeline) terminal() Stage {
	if t := p.addons[SlotRasterize]; t != nil {
		return t
	}
	return p.passthrough
}
