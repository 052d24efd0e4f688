package vbuf

import (
	"errors"
	"fmt"

	"github.com/gogpu/draw"
	"github.com/gogpu/draw/internal/translate"
)

// ErrNilRenderer is returned by New when no renderer is given.
var ErrNilRenderer = errors.New("vbuf: nil renderer")

// state is the emission stage state. After a flush the stage is idle; the
// first primitive moves it to the active state of its kind, and a
// primitive of another kind switches kinds.
type state uint8

const (
	stateIdle state = iota
	statePoints
	stateLines
	stateTris
)

func activeState(k draw.Kind) state {
	return state(k) + statePoints
}

// translatorCacheSize bounds the translators kept for layouts seen before.
const translatorCacheSize = 8

// Stage is the vertex buffer emission stage.
type Stage struct {
	draw.StageBase

	render Renderer
	limits Limits
	state  state

	layout      *draw.Layout
	vertexSize  int
	translator  *translate.Translator
	translators *translate.Cache

	vertices    []byte
	writeOff    int
	nrVertices  int
	maxVertices int

	indices    []uint16
	maxIndices int
}

// New creates an emission stage feeding r. Install it in the pipeline's
// draw.SlotRasterize slot. The stage owns r and destroys it with itself.
func New(pipe *draw.Pipeline, r Renderer) (*Stage, error) {
	if r == nil {
		return nil, ErrNilRenderer
	}
	lim := r.Limits()
	maxIndices := min(lim.MaxIndices, draw.MaxVertexSlots-1)
	if maxIndices < 3 || lim.MaxVertexBufferBytes <= 0 {
		return nil, fmt.Errorf("%w: %d vertex buffer bytes, %d indices",
			draw.ErrInvalidLimits, lim.MaxVertexBufferBytes, lim.MaxIndices)
	}
	return &Stage{
		StageBase:   draw.StageBase{Pipe: pipe, Name: "vbuf"},
		render:      r,
		limits:      lim,
		translators: translate.NewCache(translatorCacheSize),
		indices:     make([]uint16, 0, maxIndices),
		maxIndices:  maxIndices,
	}, nil
}

// Renderer returns the renderer fed by the stage.
func (s *Stage) Renderer() Renderer { return s.render }

// Point implements draw.Stage.
func (s *Stage) Point(p *draw.Prim) { s.emit(draw.Points, p) }

// Line implements draw.Stage.
func (s *Stage) Line(p *draw.Prim) { s.emit(draw.Lines, p) }

// Tri implements draw.Stage.
func (s *Stage) Tri(p *draw.Prim) { s.emit(draw.Triangles, p) }

func (s *Stage) emit(k draw.Kind, p *draw.Prim) {
	if s.state != activeState(k) {
		s.flushIndices()
		s.setPrimitive(k)
	}
	n := k.Verts()
	s.checkSpace(n)
	for i := 0; i < n; i++ {
		s.indices = append(s.indices, s.emitVertex(p.V[i]))
	}
}

// setPrimitive switches the renderer to kind k and makes sure a translator
// and a vertex buffer matching the renderer layout are in place.
func (s *Stage) setPrimitive(k draw.Kind) {
	s.render.SetPrimitive(k)

	// The layout may depend on the primitive kind, so read it afterwards.
	layout := s.render.VertexLayout()
	draw.Assert(layout != nil, "vbuf.setPrimitive", "renderer returned no vertex layout")

	if size := layout.VertexSize(); size != s.vertexSize {
		s.flushVertices()
		s.vertexSize = size
	}
	if s.translator == nil || !s.layout.Equal(layout) {
		key, err := translate.KeyFromLayout(layout)
		if err != nil {
			panic(&draw.InconsistencyError{Op: "vbuf.setPrimitive", Msg: err.Error()})
		}
		draw.Assert(key.Stride == s.vertexSize, "vbuf.setPrimitive",
			"layout size %d bytes, attributes need %d", s.vertexSize, key.Stride)
		s.translator = s.translators.Get(key)
		s.layout = layout.Clone()
		st := s.translators.Stats()
		draw.Logger().Debug("vbuf: translator selected",
			"kind", k.String(), "stride", key.Stride, "elements", len(key.Elements),
			"cached", st.Len, "misses", st.Misses)
	}
	s.translator.SetConstant(s.Pipe.Rasterizer().PointSize)

	if s.vertices == nil {
		s.allocVertices()
	}
	s.state = activeState(k)
}

// checkSpace makes room for n more vertices and indices. A full vertex
// buffer is flushed, drawn and replaced; a full index list is only drawn.
func (s *Stage) checkSpace(n int) {
	if s.nrVertices+n > s.maxVertices {
		s.flushVertices()
		s.allocVertices()
	}
	if len(s.indices)+n > s.maxIndices {
		s.flushIndices()
	}
}

// emitVertex returns the buffer slot of the vertex behind r, translating
// it into the buffer on first reference.
func (s *Stage) emitVertex(r draw.VertexRef) uint16 {
	v := s.V(r)
	slot, ok := v.Slot()
	if !ok {
		s.translator.Run(&v.Data, s.vertices[s.writeOff:s.writeOff+s.vertexSize])
		s.writeOff += s.vertexSize
		slot = uint16(s.nrVertices)
		s.Pipe.TagVertex(r, slot)
		s.nrVertices++
		return slot
	}
	if int(slot) >= s.nrVertices {
		panic(&draw.InconsistencyError{Op: "vbuf.emitVertex",
			Msg: fmt.Sprintf("vertex slot %d outside buffer of %d vertices", slot, s.nrVertices)})
	}
	return slot
}

// flushIndices draws the pending index list.
func (s *Stage) flushIndices() {
	if len(s.indices) == 0 {
		return
	}
	draw.Assert(s.writeOff == s.nrVertices*s.vertexSize, "vbuf.flushIndices",
		"%d vertices emitted but %d bytes written", s.nrVertices, s.writeOff)

	s.render.Draw(s.indices)
	s.indices = s.indices[:0]
}

// flushVertices draws pending indices, invalidates every vertex tag in
// the pipeline and releases the vertex buffer.
func (s *Stage) flushVertices() {
	if s.vertices == nil {
		return
	}
	s.flushIndices()

	if s.nrVertices > 0 {
		s.Pipe.ResetVertexIDs()
	}
	s.render.ReleaseVertices(s.vertices, s.vertexSize, s.nrVertices)
	draw.Logger().Debug("vbuf: vertex buffer released", "vertices", s.nrVertices)

	s.vertices = nil
	s.writeOff = 0
	s.nrVertices = 0
	s.maxVertices = 0
}

// allocVertices obtains a new vertex buffer from the renderer. A renderer
// that cannot provide one aborts the draw.
func (s *Stage) allocVertices() {
	draw.Assert(len(s.indices) == 0, "vbuf.allocVertices", "%d indices pending", len(s.indices))
	draw.Assert(s.vertices == nil, "vbuf.allocVertices", "vertex buffer already held")
	draw.Assert(s.vertexSize > 0, "vbuf.allocVertices", "zero vertex size")

	// Slot ids must fit an emission tag.
	s.maxVertices = min(s.limits.MaxVertexBufferBytes/s.vertexSize, draw.MaxVertexSlots)
	draw.Assert(s.maxVertices >= 3, "vbuf.allocVertices",
		"%d byte buffers hold only %d vertices of %d bytes",
		s.limits.MaxVertexBufferBytes, s.maxVertices, s.vertexSize)

	buf := s.render.AllocateVertices(s.vertexSize, s.maxVertices)
	if buf == nil {
		panic(fmt.Errorf("vbuf: allocate %d vertices of %d bytes: %w",
			s.maxVertices, s.vertexSize, draw.ErrAllocation))
	}
	draw.Assert(len(buf) >= s.maxVertices*s.vertexSize, "vbuf.allocVertices",
		"renderer returned %d bytes, want %d", len(buf), s.maxVertices*s.vertexSize)

	s.vertices = buf
	s.writeOff = 0
	s.nrVertices = 0
	draw.Logger().Debug("vbuf: vertex buffer allocated",
		"vertexSize", s.vertexSize, "maxVertices", s.maxVertices)
}

// Flush implements draw.Stage. Pending indices are always drawn; the
// vertex buffer is released only for draw.FlushBackend.
func (s *Stage) Flush(flags draw.FlushFlags) {
	s.flushIndices()
	s.state = stateIdle
	if flags&draw.FlushBackend != 0 {
		s.flushVertices()
	}
}

// ResetStippleCounter implements draw.Stage. Stipple is applied upstream.
func (s *Stage) ResetStippleCounter() {}

// Destroy releases the vertex buffer and the renderer.
func (s *Stage) Destroy() {
	s.flushVertices()
	s.state = stateIdle
	s.translator = nil
	s.translators.Clear()
	if s.render != nil {
		s.render.Destroy()
		s.render = nil
	}
	s.StageBase.Destroy()
}
