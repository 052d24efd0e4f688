package draw

import "fmt"

// Slot names an add-on position in the stage chain.
type Slot uint8

const (
	// SlotAALine replaces the wide-line stage when line smoothing is on.
	SlotAALine Slot = iota
	// SlotAAPoint replaces the wide-point stage when point smoothing is on.
	SlotAAPoint
	// SlotPStipple runs when polygon stipple is on.
	SlotPStipple
	// SlotRasterize is the terminal stage, normally the emission stage.
	SlotRasterize

	numSlots
)

var slotNames = [...]string{
	SlotAALine:    "aaline",
	SlotAAPoint:   "aapoint",
	SlotPStipple:  "pstipple",
	SlotRasterize: "rasterize",
}

func (s Slot) String() string {
	if s < numSlots {
		return slotNames[s]
	}
	return fmt.Sprintf("Slot(%d)", uint8(s))
}

// Pipeline drives primitives through the stage chain.
//
// The fixed stages are built by New. The terminal stage and the optional
// antialiasing and polygon-stipple stages are installed by the caller.
// Until the first primitive after a flush, the chain entry is the validate
// stage, which links only the stages the current state needs.
//
// A Pipeline is not safe for concurrent use.
type Pipeline struct {
	arena Arena

	rast       Rasterizer
	viewport   Viewport
	layout     *Layout
	clipPlanes [][4]float32

	wideLineThreshold  float32
	widePointThreshold float32
	lineStipple        bool
	pointSprite        bool

	wideLine  *wideLineStage
	widePoint *widePointStage
	stipple   *stippleStage
	unfilled  *unfilledStage
	twoside   *twosideStage
	offset    *offsetStage
	clip      *clipStage
	flatshade *flatshadeStage
	cull      *cullStage
	validate  *validateStage

	passthrough *passthroughStage
	addons      [numSlots]Stage

	first Stage
}

// New builds a pipeline with the fixed stage chain.
// It returns an error wrapping ErrAllocation when a stage cannot get its
// temporary vertices.
func New(opts ...Option) (*Pipeline, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	p := &Pipeline{
		arena:              Arena{maxTemps: cfg.maxTempVertices},
		rast:               cfg.rasterizer,
		viewport:           cfg.viewport,
		clipPlanes:         cfg.clipPlanes,
		wideLineThreshold:  cfg.wideLineThreshold,
		widePointThreshold: cfg.widePointThreshold,
		lineStipple:        cfg.lineStipple,
		pointSprite:        cfg.pointSprite,
	}

	var err error
	if p.wideLine, err = newWideLineStage(p); err != nil {
		return nil, p.initFailed("wide line", err)
	}
	if p.widePoint, err = newWidePointStage(p); err != nil {
		return nil, p.initFailed("wide point", err)
	}
	if p.stipple, err = newStippleStage(p); err != nil {
		return nil, p.initFailed("stipple", err)
	}
	if p.unfilled, err = newUnfilledStage(p); err != nil {
		return nil, p.initFailed("unfilled", err)
	}
	if p.twoside, err = newTwosideStage(p); err != nil {
		return nil, p.initFailed("twoside", err)
	}
	if p.offset, err = newOffsetStage(p); err != nil {
		return nil, p.initFailed("offset", err)
	}
	if p.clip, err = newClipStage(p); err != nil {
		return nil, p.initFailed("clip", err)
	}
	if p.flatshade, err = newFlatshadeStage(p); err != nil {
		return nil, p.initFailed("flatshade", err)
	}
	if p.cull, err = newCullStage(p); err != nil {
		return nil, p.initFailed("cull", err)
	}
	p.validate = newValidateStage(p)
	p.passthrough = newPassthroughStage(p)
	p.first = p.validate

	Logger().Debug("draw: pipeline created",
		"tempVertices", len(p.arena.temps),
		"wideLineThreshold", p.wideLineThreshold,
		"widePointThreshold", p.widePointThreshold)

	return p, nil
}

func (p *Pipeline) initFailed(stage string, err error) error {
	p.Destroy()
	return fmt.Errorf("draw: create %s stage: %w", stage, err)
}

// Destroy releases every stage, including installed add-ons.
func (p *Pipeline) Destroy() {
	for _, s := range p.stages() {
		s.Destroy()
	}
	for i := range p.addons {
		p.addons[i] = nil
	}
	p.arena = Arena{}
}

// stages returns all stages owned by the pipeline.
func (p *Pipeline) stages() []Stage {
	var out []Stage
	add := func(s Stage, ok bool) {
		if ok {
			out = append(out, s)
		}
	}
	add(p.wideLine, p.wideLine != nil)
	add(p.widePoint, p.widePoint != nil)
	add(p.stipple, p.stipple != nil)
	add(p.unfilled, p.unfilled != nil)
	add(p.twoside, p.twoside != nil)
	add(p.offset, p.offset != nil)
	add(p.clip, p.clip != nil)
	add(p.flatshade, p.flatshade != nil)
	add(p.cull, p.cull != nil)
	add(p.validate, p.validate != nil)
	add(p.passthrough, p.passthrough != nil)
	for _, s := range p.addons {
		add(s, s != nil)
	}
	return out
}

// Install places an add-on stage in slot, replacing and destroying any
// previous occupant. The pending batch is flushed first.
func (p *Pipeline) Install(slot Slot, s Stage) {
	Assert(slot < numSlots, "Install", "invalid slot %d", slot)
	p.Flush(FlushStateChange)
	if old := p.addons[slot]; old != nil && old != s {
		old.Destroy()
	}
	if s != nil {
		b := s.Base()
		if b.Pipe == nil {
			b.Pipe = p
		}
		Assert(b.Pipe == p, "Install", "stage %q belongs to another pipeline", b.Name)
	}
	p.addons[slot] = s
	Logger().Debug("draw: stage installed", "slot", slot.String())
}

// Installed returns the stage in slot, or nil.
func (p *Pipeline) Installed(slot Slot) Stage {
	return p.addons[slot]
}

// Run dispatches the primitives described by indices into the stage chain.
// Indices are consumed in groups of kind.Verts(); a trailing partial group
// is ignored. Every vertex referenced must have been shaded, and vertices
// not yet emitted must carry UndefinedVertexID, the zero ID.
func (p *Pipeline) Run(kind Kind, verts []Vertex, indices []uint16) {
	p.arena.bind(verts)
	defer p.arena.unbind()

	n := len(indices)
	switch kind {
	case Points:
		for i := 0; i < n; i++ {
			p.doPoint(VertexRef(indices[i]))
		}
	case Lines:
		for i := 0; i+1 < n; i += 2 {
			p.doLine(VertexRef(indices[i]), VertexRef(indices[i+1]))
		}
	case Triangles:
		for i := 0; i+2 < n; i += 3 {
			p.doTriangle(VertexRef(indices[i]), VertexRef(indices[i+1]), VertexRef(indices[i+2]))
		}
	default:
		panic(inconsistency("Run", "unknown primitive kind %d", kind))
	}
}

func (p *Pipeline) doPoint(v0 VertexRef) {
	prim := Prim{
		V:         [3]VertexRef{v0},
		EdgeFlags: 1,
	}
	p.first.Point(&prim)
}

func (p *Pipeline) doLine(v0, v1 VertexRef) {
	// Stipple is reset for every line, not just at strip starts.
	prim := Prim{
		V:            [3]VertexRef{v0, v1},
		EdgeFlags:    1,
		ResetStipple: true,
	}
	p.first.Line(&prim)
}

func (p *Pipeline) doTriangle(v0, v1, v2 VertexRef) {
	prim := Prim{
		V:            [3]VertexRef{v0, v1, v2},
		ResetStipple: true,
	}
	prim.EdgeFlags = p.Vertex(v0).EdgeFlag |
		p.Vertex(v1).EdgeFlag<<1 |
		p.Vertex(v2).EdgeFlag<<2
	p.first.Tri(&prim)
}

// Flush flushes the chain and makes validate the entry stage again, so the
// next primitive re-evaluates which stages are needed.
func (p *Pipeline) Flush(flags FlushFlags) {
	p.first.Flush(flags)
	p.first = p.validate
}

// ResetStippleCounter restarts the line stipple phase, normally once per
// outer draw call.
func (p *Pipeline) ResetStippleCounter() {
	p.first.ResetStippleCounter()
}

// ResetVertexIDs marks every temporary vertex of every stage, and every
// vertex of each array tagged through TagVertex since the previous reset,
// as not emitted. The emission stage calls it whenever it releases a
// hardware vertex buffer it wrote to.
func (p *Pipeline) ResetVertexIDs() {
	p.arena.resetIDs()
}

// TagVertex records that the vertex behind r was written to buffer slot
// slot and returns it. Arrays passed to Run are only tracked for
// ResetVertexIDs once one of their vertices has been tagged.
func (p *Pipeline) TagVertex(r VertexRef, slot uint16) *Vertex {
	return p.arena.tag(r, slot)
}

// Vertex returns the vertex addressed by r.
func (p *Pipeline) Vertex(r VertexRef) *Vertex { return p.arena.At(r) }

// Rasterizer returns the current rasterizer state.
func (p *Pipeline) Rasterizer() *Rasterizer { return &p.rast }

// SetRasterizer flushes pending primitives and replaces rasterizer state.
func (p *Pipeline) SetRasterizer(r Rasterizer) {
	p.Flush(FlushStateChange)
	p.rast = r
}

// Viewport returns the current viewport.
func (p *Pipeline) Viewport() Viewport { return p.viewport }

// SetViewport flushes pending primitives and replaces the viewport.
func (p *Pipeline) SetViewport(v Viewport) {
	p.Flush(FlushStateChange)
	p.viewport = v
}

// VertexLayout returns the vertex layout set by SetVertexLayout.
func (p *Pipeline) VertexLayout() *Layout { return p.layout }

// SetVertexLayout flushes pending primitives and sets the post-transform
// vertex layout used by stages that need to know about attribute slots.
func (p *Pipeline) SetVertexLayout(l *Layout) {
	p.Flush(FlushStateChange)
	p.layout = l
}

// ClipPlanes returns the user clip planes.
func (p *Pipeline) ClipPlanes() [][4]float32 { return p.clipPlanes }

// SetClipPlanes flushes pending primitives and replaces the user clip
// planes.
func (p *Pipeline) SetClipPlanes(planes ...[4]float32) {
	Assert(len(planes) <= MaxUserClipPlanes, "SetClipPlanes", "%d planes", len(planes))
	p.Flush(FlushStateChange)
	p.clipPlanes = append(p.clipPlanes[:0], planes...)
}

// UserClipMask returns the clip mask bits every shaded vertex must carry so
// the clip stage tests the user planes.
func (p *Pipeline) UserClipMask() ClipMask {
	var m ClipMask
	for i := range p.clipPlanes {
		m |= UserClipBit(i)
	}
	return m
}

// NumSlots returns the number of post-transform slots stages must carry
// when synthesizing vertices.
func (p *Pipeline) NumSlots() int {
	if p.layout == nil {
		return MaxAttribs
	}
	if n := p.layout.NumSlots(); n > 0 {
		return n
	}
	return 1
}

// ActiveChain returns the names of the stages the current state would link,
// from entry to terminal.
func (p *Pipeline) ActiveChain() []string {
	var names []string
	for s := p.validate.link(); s != nil; s = s.Base().Next {
		names = append(names, s.Base().Name)
	}
	return names
}
