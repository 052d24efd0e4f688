package recording

import (
	"errors"
	"fmt"

	"github.com/gogpu/draw"
	"github.com/gogpu/draw/internal/translate"
	"github.com/gogpu/draw/vbuf"
)

// ErrPlayback is returned when a recording cannot be replayed.
var ErrPlayback = errors.New("recording: playback failed")

// Recorder captures renderer calls as commands. It implements
// vbuf.Renderer.
//
// The Recorder is not safe for concurrent use.
type Recorder struct {
	layout  *draw.Layout
	layouts map[draw.Kind]*draw.Layout
	limits  vbuf.Limits
	kind    draw.Kind

	commands  []Command
	resources *ResourcePool

	// live buffers handed out and not yet released
	live map[*byte]liveBuffer
	cur  BufferRef

	failAllocs int
	destroyed  bool
}

type liveBuffer struct {
	ref BufferRef
	buf []byte
}

var _ vbuf.Renderer = (*Recorder)(nil)

// NewRecorder returns a Recorder reporting layout for every primitive kind.
func NewRecorder(layout *draw.Layout, limits vbuf.Limits) *Recorder {
	return &Recorder{
		layout:    layout,
		layouts:   make(map[draw.Kind]*draw.Layout),
		limits:    limits,
		resources: NewResourcePool(),
		live:      make(map[*byte]liveBuffer),
		cur:       BufferRef(InvalidRef),
	}
}

// SetLayout overrides the layout reported for kind.
func (r *Recorder) SetLayout(kind draw.Kind, l *draw.Layout) {
	r.layouts[kind] = l
}

// FailAllocations makes the next n AllocateVertices calls return nil.
func (r *Recorder) FailAllocations(n int) {
	r.failAllocs = n
}

// Destroyed reports whether Destroy was called.
func (r *Recorder) Destroyed() bool { return r.destroyed }

// VertexLayout implements vbuf.Renderer.
func (r *Recorder) VertexLayout() *draw.Layout {
	if l, ok := r.layouts[r.kind]; ok {
		return l
	}
	return r.layout
}

// AllocateVertices implements vbuf.Renderer.
func (r *Recorder) AllocateVertices(vertexSize, count int) []byte {
	if r.failAllocs > 0 {
		r.failAllocs--
		r.commands = append(r.commands, AllocateCommand{Buffer: BufferRef(InvalidRef), VertexSize: vertexSize, Count: count})
		return nil
	}
	ref := r.resources.AddBuffer()
	buf := make([]byte, vertexSize*count)
	if len(buf) > 0 {
		r.live[&buf[0]] = liveBuffer{ref: ref, buf: buf}
	}
	r.cur = ref
	r.commands = append(r.commands, AllocateCommand{Buffer: ref, VertexSize: vertexSize, Count: count})
	return buf
}

// ReleaseVertices implements vbuf.Renderer.
func (r *Recorder) ReleaseVertices(buf []byte, vertexSize, count int) {
	ref := BufferRef(InvalidRef)
	if len(buf) > 0 {
		if lb, ok := r.live[&buf[0]]; ok {
			ref = lb.ref
			r.resources.SetBuffer(ref, buf[:min(len(buf), vertexSize*count)])
			delete(r.live, &buf[0])
		}
	}
	if ref == r.cur {
		r.cur = BufferRef(InvalidRef)
	}
	r.commands = append(r.commands, ReleaseCommand{Buffer: ref, VertexSize: vertexSize, Count: count})
}

// SetPrimitive implements vbuf.Renderer.
func (r *Recorder) SetPrimitive(kind draw.Kind) {
	r.kind = kind
	r.commands = append(r.commands, SetPrimitiveCommand{
		Kind:   kind,
		Layout: r.resources.AddLayout(r.VertexLayout()),
	})
}

// Draw implements vbuf.Renderer.
func (r *Recorder) Draw(indices []uint16) {
	r.commands = append(r.commands, DrawCommand{
		Buffer:  r.cur,
		Indices: r.resources.AddIndices(indices),
	})
}

// Limits implements vbuf.Renderer.
func (r *Recorder) Limits() vbuf.Limits { return r.limits }

// Destroy implements vbuf.Renderer.
func (r *Recorder) Destroy() {
	r.destroyed = true
	r.commands = append(r.commands, DestroyCommand{})
}

// FinishRecording returns a Recording of every command so far. Buffers
// still held by the caller are captured with their current contents.
func (r *Recorder) FinishRecording() *Recording {
	for _, lb := range r.live {
		r.resources.SetBuffer(lb.ref, lb.buf)
	}
	return &Recording{
		commands:  append([]Command(nil), r.commands...),
		resources: r.resources,
	}
}

// Recording is an immutable container for recorded renderer commands.
type Recording struct {
	commands  []Command
	resources *ResourcePool
}

// Commands returns the recorded commands.
func (r *Recording) Commands() []Command {
	return r.commands
}

// Resources returns the resource pool.
func (r *Recording) Resources() *ResourcePool {
	return r.resources
}

// Events returns a compact text form of every command, one string each:
// "prim <kind>", "alloc <count>x<size>", "draw <indices>", "release
// <count>" or "destroy".
func (r *Recording) Events() []string {
	events := make([]string, 0, len(r.commands))
	for _, cmd := range r.commands {
		switch c := cmd.(type) {
		case SetPrimitiveCommand:
			events = append(events, "prim "+c.Kind.String())
		case AllocateCommand:
			events = append(events, fmt.Sprintf("alloc %dx%d", c.Count, c.VertexSize))
		case DrawCommand:
			events = append(events, fmt.Sprintf("draw %d", len(r.resources.Indices(c.Indices))))
		case ReleaseCommand:
			events = append(events, fmt.Sprintf("release %d", c.Count))
		case DestroyCommand:
			events = append(events, "destroy")
		}
	}
	return events
}

// Primitive is one drawn primitive decoded back into attribute slots.
type Primitive struct {
	Kind     draw.Kind
	Vertices [][draw.MaxAttribs][4]float32
}

// Primitives decodes every draw into primitives in submission order.
// Slots are filled according to the layout active for each draw.
func (r *Recording) Primitives() ([]Primitive, error) {
	var (
		prims []Primitive
		kind  draw.Kind
		tr    *translate.Translator
	)
	for _, cmd := range r.commands {
		switch c := cmd.(type) {
		case SetPrimitiveCommand:
			kind = c.Kind
			l := r.resources.Layout(c.Layout)
			if l == nil {
				tr = nil
				continue
			}
			key, err := translate.KeyFromLayout(l)
			if err != nil {
				return nil, err
			}
			tr = translate.New(key)
		case DrawCommand:
			if tr == nil {
				return nil, fmt.Errorf("recording: draw without a layout")
			}
			buf := r.resources.Buffer(c.Buffer)
			indices := r.resources.Indices(c.Indices)
			n := kind.Verts()
			stride := tr.Stride()
			for i := 0; i+n <= len(indices); i += n {
				p := Primitive{Kind: kind, Vertices: make([][draw.MaxAttribs][4]float32, n)}
				for j := 0; j < n; j++ {
					off := int(indices[i+j]) * stride
					if off+stride > len(buf) {
						return nil, fmt.Errorf("recording: index %d outside buffer %d", indices[i+j], c.Buffer)
					}
					tr.Fetch(buf[off:off+stride], &p.Vertices[j])
				}
				prims = append(prims, p)
			}
		}
	}
	return prims, nil
}

// Playback replays the recording into dst. Destroy commands are not
// replayed; the caller owns dst.
func (r *Recording) Playback(dst vbuf.Renderer) error {
	held := make(map[BufferRef][]byte)
	for i, cmd := range r.commands {
		switch c := cmd.(type) {
		case SetPrimitiveCommand:
			dst.SetPrimitive(c.Kind)
		case AllocateCommand:
			if !c.Buffer.IsValid() {
				continue
			}
			buf := dst.AllocateVertices(c.VertexSize, c.Count)
			if buf == nil {
				return fmt.Errorf("%w: command %d: allocation of %d vertices refused", ErrPlayback, i, c.Count)
			}
			copy(buf, r.resources.Buffer(c.Buffer))
			held[c.Buffer] = buf
		case DrawCommand:
			if _, ok := held[c.Buffer]; !ok {
				return fmt.Errorf("%w: command %d: draw without a vertex buffer", ErrPlayback, i)
			}
			dst.Draw(r.resources.Indices(c.Indices))
		case ReleaseCommand:
			buf, ok := held[c.Buffer]
			if !ok {
				continue
			}
			dst.ReleaseVertices(buf, c.VertexSize, c.Count)
			delete(held, c.Buffer)
		}
	}
	return nil
}
