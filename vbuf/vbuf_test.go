package vbuf

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gogpu/draw"
	"github.com/gogpu/draw/internal/translate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRenderer records renderer calls and decodes drawn vertices.
type fakeRenderer struct {
	layouts   map[draw.Kind]*draw.Layout
	limits    Limits
	failAlloc bool

	kind      draw.Kind
	buf       []byte
	events    []string
	draws     [][]uint16
	positions [][2]float32
	destroyed bool
	onRelease func()
}

func posLayout() *draw.Layout {
	l := &draw.Layout{}
	l.Add(draw.Emit4F, draw.InterpPos, 0)
	l.ComputeSize()
	return l
}

func newFake(limits Limits) *fakeRenderer {
	l := posLayout()
	return &fakeRenderer{
		layouts: map[draw.Kind]*draw.Layout{draw.Points: l, draw.Lines: l, draw.Triangles: l},
		limits:  limits,
	}
}

func (r *fakeRenderer) VertexLayout() *draw.Layout { return r.layouts[r.kind] }

func (r *fakeRenderer) AllocateVertices(vertexSize, count int) []byte {
	r.events = append(r.events, fmt.Sprintf("alloc %dx%d", count, vertexSize))
	if r.failAlloc {
		return nil
	}
	r.buf = make([]byte, vertexSize*count)
	return r.buf
}

func (r *fakeRenderer) ReleaseVertices(_ []byte, _, count int) {
	r.events = append(r.events, fmt.Sprintf("release %d", count))
	if r.onRelease != nil {
		r.onRelease()
	}
	r.buf = nil
}

func (r *fakeRenderer) SetPrimitive(kind draw.Kind) {
	r.kind = kind
	r.events = append(r.events, "prim "+kind.String())
}

func (r *fakeRenderer) Draw(indices []uint16) {
	r.events = append(r.events, fmt.Sprintf("draw %d", len(indices)))
	r.draws = append(r.draws, append([]uint16(nil), indices...))

	key, err := translate.KeyFromLayout(r.VertexLayout())
	if err != nil {
		panic(err)
	}
	tr := translate.New(key)
	for _, i := range indices {
		var attrs [draw.MaxAttribs][4]float32
		tr.Fetch(r.buf[int(i)*key.Stride:], &attrs)
		r.positions = append(r.positions, [2]float32{attrs[0][0], attrs[0][1]})
	}
}

func (r *fakeRenderer) Limits() Limits { return r.limits }
func (r *fakeRenderer) Destroy()       { r.destroyed = true }

func bigLimits() Limits {
	return Limits{MaxVertexBufferBytes: 1000 * 16, MaxIndices: 3000}
}

func vertexAt(x, y float32) draw.Vertex {
	return draw.Vertex{
		EdgeFlag: 1,
		Clip:     [4]float32{x, y, 0, 1},
		Data:     [draw.MaxAttribs][4]float32{{x, y, 0, 1}},
	}
}

// fanVertices is a centre vertex and four rim vertices.
func fanVertices() []draw.Vertex {
	return []draw.Vertex{
		vertexAt(0, 0),
		vertexAt(0.5, 0),
		vertexAt(0.5, 0.5),
		vertexAt(0, 0.5),
		vertexAt(-0.5, 0.5),
	}
}

// slots returns the buffer slot of each vertex, or -1 if it was not emitted.
func slots(verts []draw.Vertex) []int {
	out := make([]int, len(verts))
	for i := range verts {
		slot, ok := verts[i].Slot()
		if !ok {
			out[i] = -1
			continue
		}
		out[i] = int(slot)
	}
	return out
}

func newPipe(t *testing.T, r Renderer, opts ...draw.Option) (*draw.Pipeline, *Stage) {
	t.Helper()
	pipe, err := draw.New(opts...)
	require.NoError(t, err)
	t.Cleanup(pipe.Destroy)

	s, err := New(pipe, r)
	require.NoError(t, err)
	pipe.Install(draw.SlotRasterize, s)
	return pipe, s
}

func TestNewValidatesArguments(t *testing.T) {
	pipe, err := draw.New()
	require.NoError(t, err)
	defer pipe.Destroy()

	_, err = New(pipe, nil)
	assert.ErrorIs(t, err, ErrNilRenderer)

	_, err = New(pipe, newFake(Limits{MaxVertexBufferBytes: 1024, MaxIndices: 2}))
	assert.ErrorIs(t, err, draw.ErrInvalidLimits)

	_, err = New(pipe, newFake(Limits{MaxIndices: 16}))
	assert.ErrorIs(t, err, draw.ErrInvalidLimits)
}

func TestNewClampsMaxIndices(t *testing.T) {
	pipe, err := draw.New()
	require.NoError(t, err)
	defer pipe.Destroy()

	s, err := New(pipe, newFake(Limits{MaxVertexBufferBytes: 1024, MaxIndices: 1 << 20}))
	require.NoError(t, err)
	assert.Equal(t, draw.MaxVertexSlots-1, s.maxIndices)
}

func TestScenarioFan(t *testing.T) {
	r := newFake(bigLimits())
	pipe, _ := newPipe(t, r)

	verts := fanVertices()
	indices := draw.Decompose(draw.ModeTriangleFan, []uint16{0, 1, 2, 3, 4})
	require.Len(t, indices, 9)

	pipe.Run(draw.Triangles, verts, indices)
	pipe.Flush(draw.FlushBackend)

	assert.Equal(t, []string{"prim Triangles", "alloc 1000x16", "draw 9", "release 5"}, r.events)
	require.Len(t, r.draws, 1)
	assert.Equal(t, []uint16{0, 1, 2, 0, 2, 3, 0, 3, 4}, r.draws[0])
}

func TestScenarioSmallBuffer(t *testing.T) {
	r := newFake(Limits{MaxVertexBufferBytes: 3 * 16, MaxIndices: 100})
	pipe, s := newPipe(t, r)

	verts := []draw.Vertex{vertexAt(0, 0), vertexAt(0.5, 0), vertexAt(0, 0.5), vertexAt(0.5, 0.5)}
	pipe.Run(draw.Triangles, verts, []uint16{0, 1, 2, 2, 1, 3})

	// The second triangle starts a new buffer with fresh ids.
	assert.Equal(t, []int{-1, 1, 0, 2}, slots(verts))
	assert.LessOrEqual(t, s.nrVertices, s.maxVertices)

	pipe.Flush(draw.FlushBackend)
	assert.Equal(t, []string{
		"prim Triangles", "alloc 3x16",
		"draw 3", "release 3",
		"alloc 3x16",
		"draw 3", "release 3",
	}, r.events)
	for _, v := range verts {
		assert.Equal(t, draw.UndefinedVertexID, v.ID)
	}
}

func TestDedupWritesSharedVertexOnce(t *testing.T) {
	r := newFake(bigLimits())
	pipe, s := newPipe(t, r)

	verts := []draw.Vertex{vertexAt(0, 0), vertexAt(0.5, 0), vertexAt(0, 0.5), vertexAt(0.5, 0.5)}
	pipe.Run(draw.Triangles, verts, []uint16{0, 1, 2, 2, 1, 3})

	assert.Equal(t, 4, s.nrVertices)
	assert.Equal(t, 4*16, s.writeOff)

	// A second Run in the same batch reuses the slots.
	pipe.Run(draw.Triangles, verts, []uint16{3, 2, 1})
	assert.Equal(t, 4, s.nrVertices)

	pipe.Flush(draw.FlushStateChange)
	require.Len(t, r.draws, 1)
	assert.Equal(t, []uint16{0, 1, 2, 2, 1, 3, 3, 2, 1}, r.draws[0])
}

func TestEmissionFollowsFirstReference(t *testing.T) {
	r := newFake(bigLimits())
	pipe, _ := newPipe(t, r)

	verts := []draw.Vertex{vertexAt(0, 0), vertexAt(0.5, 0), vertexAt(0, 0.5), vertexAt(0.5, 0.5)}
	pipe.Run(draw.Triangles, verts, []uint16{3, 1, 2})
	pipe.Flush(draw.FlushStateChange)

	assert.Equal(t, []uint16{0, 1, 2}, r.draws[0])
	assert.Equal(t, [][2]float32{{0.5, 0.5}, {0.5, 0}, {0, 0.5}}, r.positions)
}

func TestIndexCapacityFlushKeepsVertexBuffer(t *testing.T) {
	r := newFake(Limits{MaxVertexBufferBytes: 1000 * 16, MaxIndices: 6})
	pipe, s := newPipe(t, r)

	verts := fanVertices()
	pipe.Run(draw.Triangles, verts, draw.Decompose(draw.ModeTriangleFan, []uint16{0, 1, 2, 3, 4}))
	assert.LessOrEqual(t, len(s.indices), s.maxIndices)
	pipe.Flush(draw.FlushBackend)

	assert.Equal(t, []string{"prim Triangles", "alloc 1000x16", "draw 6", "draw 3", "release 5"}, r.events)
	// Vertex 0 keeps its slot across the index flush.
	assert.Equal(t, []uint16{0, 3, 4}, r.draws[1])
}

func TestKindSwitchResetsPrimitive(t *testing.T) {
	r := newFake(bigLimits())
	pipe, _ := newPipe(t, r)

	verts := fanVertices()
	pipe.Run(draw.Triangles, verts, []uint16{0, 1, 2})
	pipe.Run(draw.Lines, verts, []uint16{0, 3})
	pipe.Run(draw.Triangles, verts, []uint16{0, 3, 4})
	pipe.Flush(draw.FlushBackend)

	assert.Equal(t, []string{
		"prim Triangles", "alloc 1000x16",
		"draw 3", "prim Lines",
		"draw 2", "prim Triangles",
		"draw 3", "release 5",
	}, r.events)
	assert.Equal(t, [][]uint16{{0, 1, 2}, {0, 3}, {0, 3, 4}}, r.draws)
}

func TestLayoutChangeReallocates(t *testing.T) {
	r := newFake(bigLimits())
	wide := posLayout()
	wide.Add(draw.Emit4F, draw.InterpLinear, 1)
	wide.ComputeSize()
	r.layouts[draw.Lines] = wide
	pipe, s := newPipe(t, r)

	verts := fanVertices()
	pipe.Run(draw.Triangles, verts, []uint16{0, 1, 2})
	pipe.Run(draw.Lines, verts, []uint16{0, 3})
	assert.Equal(t, 32, s.vertexSize)
	pipe.Flush(draw.FlushBackend)

	assert.Equal(t, []string{
		"prim Triangles", "alloc 1000x16",
		"draw 3", "prim Lines",
		"release 3", "alloc 500x32",
		"draw 2", "release 2",
	}, r.events)
}

func TestTranslatorsReusedAcrossLayouts(t *testing.T) {
	r := newFake(bigLimits())
	wide := posLayout()
	wide.Add(draw.Emit4F, draw.InterpLinear, 1)
	wide.ComputeSize()
	r.layouts[draw.Lines] = wide
	pipe, s := newPipe(t, r)

	verts := fanVertices()
	pipe.Run(draw.Triangles, verts, []uint16{0, 1, 2})
	triangles := s.translator
	pipe.Run(draw.Lines, verts, []uint16{0, 3})
	assert.NotSame(t, triangles, s.translator)
	pipe.Run(draw.Triangles, verts, []uint16{0, 2, 3})
	assert.Same(t, triangles, s.translator)

	st := s.translators.Stats()
	assert.Equal(t, 2, st.Len)
	assert.Equal(t, 2, st.Misses)
	assert.Equal(t, 1, st.Hits)
}

func TestFlushStateChangeKeepsBuffer(t *testing.T) {
	r := newFake(bigLimits())
	pipe, s := newPipe(t, r)

	verts := fanVertices()
	pipe.Run(draw.Triangles, verts, []uint16{0, 1, 2})
	pipe.Flush(draw.FlushStateChange)

	assert.NotNil(t, s.vertices)
	assert.Equal(t, stateIdle, s.state)
	assert.Equal(t, []int{0, 1, 2, -1, -1}, slots(verts))

	// Same kind after a flush still announces the primitive.
	pipe.Run(draw.Triangles, verts, []uint16{0, 2, 3})
	pipe.Flush(draw.FlushBackend)
	assert.Equal(t, []string{
		"prim Triangles", "alloc 1000x16", "draw 3",
		"prim Triangles", "draw 3", "release 4",
	}, r.events)
}

func TestAllocationFailurePanics(t *testing.T) {
	r := newFake(bigLimits())
	r.failAlloc = true
	pipe, _ := newPipe(t, r)

	defer func() {
		v := recover()
		err, ok := v.(error)
		require.True(t, ok, "panic value %v", v)
		assert.True(t, errors.Is(err, draw.ErrAllocation))
	}()
	pipe.Run(draw.Triangles, fanVertices(), []uint16{0, 1, 2})
	t.Fatal("Run did not panic")
}

func TestStaleVertexIDPanics(t *testing.T) {
	r := newFake(bigLimits())
	pipe, _ := newPipe(t, r)

	verts := fanVertices()
	verts[2].ID = 40
	assert.PanicsWithError(t,
		"draw: internal inconsistency in vbuf.emitVertex: vertex slot 39 outside buffer of 2 vertices",
		func() { pipe.Run(draw.Triangles, verts, []uint16{0, 1, 2}) })
}

func TestZeroVertexIsEmitted(t *testing.T) {
	r := newFake(bigLimits())
	pipe, s := newPipe(t, r)

	pipe.Run(draw.Triangles, fanVertices(), []uint16{0, 1, 2})

	var verts [3]draw.Vertex
	for i, p := range [][2]float32{{9, 9}, {10, 9}, {9, 10}} {
		verts[i].EdgeFlag = 1
		verts[i].Data[0] = [4]float32{p[0], p[1], 0, 1}
	}
	pipe.Run(draw.Triangles, verts[:], []uint16{0, 1, 2})
	assert.Equal(t, 6, s.nrVertices)

	pipe.Flush(draw.FlushBackend)
	assert.Equal(t, [][]uint16{{0, 1, 2, 3, 4, 5}}, r.draws)
	assert.Equal(t, [][2]float32{{0, 0}, {0.5, 0}, {0.5, 0.5}, {9, 9}, {10, 9}, {9, 10}}, r.positions)
}

// refRecorder remembers the temporary vertices reaching the emission stage.
type refRecorder struct {
	*Stage
	temps []draw.VertexRef
}

func (r *refRecorder) Tri(p *draw.Prim) {
	for _, ref := range p.V {
		if ref.IsTemp() {
			r.temps = append(r.temps, ref)
		}
	}
	r.Stage.Tri(p)
}

func TestCapacityFlushResetsTempIDs(t *testing.T) {
	r := newFake(Limits{MaxVertexBufferBytes: 4 * 16, MaxIndices: 100})
	rast := draw.DefaultRasterizer()
	rast.PointSize = 4
	pipe, err := draw.New(draw.WithRasterizer(rast), draw.WithWidePointThreshold(1))
	require.NoError(t, err)
	t.Cleanup(pipe.Destroy)

	s, err := New(pipe, r)
	require.NoError(t, err)
	rec := &refRecorder{Stage: s}
	pipe.Install(draw.SlotRasterize, rec)

	released := 0
	r.onRelease = func() {
		released++
		for _, ref := range rec.temps {
			assert.Equal(t, draw.UndefinedVertexID, pipe.Vertex(ref).ID, "release %d", released)
		}
	}

	// Each wide point is two triangles over four temps; a buffer holds
	// only one triangle's worth of fresh vertices.
	pipe.Run(draw.Points, fanVertices(), []uint16{1, 3})
	assert.Equal(t, 3, released)
	require.NotEmpty(t, rec.temps)
	_, ok := pipe.Vertex(rec.temps[len(rec.temps)-1]).Slot()
	assert.True(t, ok)

	pipe.Flush(draw.FlushBackend)
	assert.Equal(t, 4, released)
}

func TestPointSizeConstant(t *testing.T) {
	r := newFake(bigLimits())
	l := posLayout()
	l.Add(draw.Emit1FPointSize, draw.InterpConstant, 0)
	l.ComputeSize()
	r.layouts[draw.Points] = l

	rast := draw.DefaultRasterizer()
	rast.PointSize = 5
	pipe, s := newPipe(t, r, draw.WithRasterizer(rast))

	pipe.Run(draw.Points, fanVertices(), []uint16{1})
	size, ok := s.translator.PointSizeAt(r.buf)
	require.True(t, ok)
	assert.Equal(t, float32(5), size)
}

func TestOrderPreservedAcrossFlushes(t *testing.T) {
	r := newFake(Limits{MaxVertexBufferBytes: 7 * 16, MaxIndices: 9})
	pipe, _ := newPipe(t, r)

	const n = 40
	var verts []draw.Vertex
	for i := 0; i < n; i++ {
		verts = append(verts, vertexAt(float32(i/2)*0.02, float32(i%2)*0.5))
	}
	strip := make([]uint16, n)
	for i := range strip {
		strip[i] = uint16(i)
	}
	indices := draw.Decompose(draw.ModeTriangleStrip, strip)
	pipe.Run(draw.Triangles, verts, indices)
	pipe.Flush(draw.FlushBackend)

	var want [][2]float32
	for _, i := range indices {
		want = append(want, [2]float32{verts[i].Data[0][0], verts[i].Data[0][1]})
	}
	assert.Equal(t, want, r.positions)
}

func TestDestroyReleasesRenderer(t *testing.T) {
	r := newFake(bigLimits())
	pipe, err := draw.New()
	require.NoError(t, err)
	s, err := New(pipe, r)
	require.NoError(t, err)
	pipe.Install(draw.SlotRasterize, s)

	pipe.Run(draw.Triangles, fanVertices(), []uint16{0, 1, 2})
	pipe.Destroy()

	assert.True(t, r.destroyed)
	assert.Equal(t, "release 3", r.events[len(r.events)-1])
}
