package native

import (
	"encoding/binary"
	"fmt"
	"testing"
	"unsafe"

	"github.com/chewxy/math32"
	"github.com/gogpu/draw"
	"github.com/gogpu/draw/backend"
	"github.com/gogpu/draw/vbuf"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openNoop(t *testing.T) hal.OpenDevice {
	t.Helper()
	open, err := (&noop.Adapter{}).Open(gputypes.Features(0), gputypes.DefaultLimits())
	require.NoError(t, err)
	t.Cleanup(open.Device.Destroy)
	return open
}

func posColorLayout() *draw.Layout {
	l := &draw.Layout{}
	l.Add(draw.Emit4F, draw.InterpPos, 0)
	l.Add(draw.Emit4UB, draw.InterpPerspective, 1)
	l.ComputeSize()
	return l
}

func quad() ([]draw.Vertex, []uint16) {
	at := func(x, y float32) draw.Vertex {
		return draw.Vertex{
			EdgeFlag: 1,
			Clip:     [4]float32{x, y, 0, 1},
			Data:     [draw.MaxAttribs][4]float32{{x, y, 0, 1}, {0, 1, 0, 1}},
		}
	}
	return []draw.Vertex{at(10, 10), at(30, 10), at(30, 30), at(10, 30)}, []uint16{0, 1, 2, 0, 2, 3}
}

// newPipeline wires a renderer on a noop device behind the vbuf stage.
func newPipeline(t *testing.T) (*draw.Pipeline, *Renderer, hal.Device) {
	t.Helper()
	open := openNoop(t)
	r, err := NewRenderer(open.Device, open.Queue, backend.Config{
		Width:     64,
		Height:    64,
		Layout:    posColorLayout(),
		ColorSlot: 1,
	})
	require.NoError(t, err)

	pipe, err := draw.New()
	require.NoError(t, err)
	t.Cleanup(pipe.Destroy)
	stage, err := vbuf.New(pipe, r)
	require.NoError(t, err)
	pipe.Install(draw.SlotRasterize, stage)
	return pipe, r, open.Device
}

func readBuffer(t *testing.T, device hal.Device, buf hal.Buffer, n int) []byte {
	t.Helper()
	m, err := device.MapBuffer(buf, 0, uint64(n))
	require.NoError(t, err)
	return append([]byte(nil), unsafe.Slice((*byte)(m.Ptr), n)...)
}

func TestRendererUploadsDraws(t *testing.T) {
	pipe, r, device := newPipeline(t)
	verts, indices := quad()
	pipe.Run(draw.Triangles, verts, indices)
	pipe.Flush(draw.FlushStateChange)

	calls := r.Calls()
	require.Len(t, calls, 1)
	c := calls[0]
	assert.Equal(t, gputypes.PrimitiveTopologyTriangleList, c.Topology)
	assert.Equal(t, uint32(6), c.Count)

	stride := 20
	st := r.Stats()
	assert.Equal(t, 1, st.VertexBuffers)
	assert.Equal(t, 1, st.Draws)
	assert.Equal(t, 6, st.Indices)
	assert.Equal(t, 4*stride, st.BytesUploaded)

	idx := readBuffer(t, device, c.Indices, 12)
	vtx := readBuffer(t, device, c.Vertices, 4*stride)
	for k := range indices {
		i := int(binary.LittleEndian.Uint16(idx[2*k:]))
		require.Less(t, i, 4)
		x := math32.Float32frombits(binary.LittleEndian.Uint32(vtx[i*stride:]))
		y := math32.Float32frombits(binary.LittleEndian.Uint32(vtx[i*stride+4:]))
		want := verts[indices[k]].Data[0]
		assert.Equal(t, want[0], x, "index %d x", k)
		assert.Equal(t, want[1], y, "index %d y", k)
		assert.Equal(t, []byte{0, 255, 0, 255}, vtx[i*stride+16:i*stride+20], "index %d color", k)
	}
}

type recordingPass struct {
	hal.RenderPassEncoder
	ops []string
}

func (p *recordingPass) SetVertexBuffer(slot uint32, _ hal.Buffer, offset uint64) {
	p.ops = append(p.ops, fmt.Sprintf("vertex %d+%d", slot, offset))
}

func (p *recordingPass) SetIndexBuffer(_ hal.Buffer, format gputypes.IndexFormat, offset uint64) {
	p.ops = append(p.ops, fmt.Sprintf("index %v+%d", format == gputypes.IndexFormatUint16, offset))
}

func (p *recordingPass) DrawIndexed(count, instances, first uint32, base int32, firstInstance uint32) {
	p.ops = append(p.ops, fmt.Sprintf("draw %d %d %d %d %d", count, instances, first, base, firstInstance))
}

func TestRendererEncode(t *testing.T) {
	pipe, r, _ := newPipeline(t)
	verts, indices := quad()
	pipe.Run(draw.Triangles, verts, indices)
	pipe.Run(draw.Lines, verts, []uint16{0, 1})
	pipe.Flush(draw.FlushStateChange)

	pass := &recordingPass{}
	var binds []gputypes.PrimitiveTopology
	r.Encode(pass, func(topo gputypes.PrimitiveTopology) {
		binds = append(binds, topo)
	})

	assert.Equal(t, []gputypes.PrimitiveTopology{
		gputypes.PrimitiveTopologyTriangleList,
		gputypes.PrimitiveTopologyLineList,
	}, binds)
	assert.Equal(t, []string{
		"vertex 0+0", "index true+0", "draw 6 1 0 0 0",
		"vertex 0+0", "index true+0", "draw 2 1 0 0 0",
	}, pass.ops)

	r.Reset()
	assert.Empty(t, r.Calls())
}

func TestRendererAllocateLimits(t *testing.T) {
	open := openNoop(t)
	r, err := NewRenderer(open.Device, open.Queue, backend.Config{
		Width:  8,
		Height: 8,
		Layout: posColorLayout(),
		Limits: vbuf.Limits{MaxVertexBufferBytes: 200, MaxIndices: 30},
	})
	require.NoError(t, err)
	defer r.Destroy()

	assert.Nil(t, r.AllocateVertices(16, 4), "wrong vertex size")
	assert.Nil(t, r.AllocateVertices(20, 11), "over the byte limit")
	assert.Len(t, r.AllocateVertices(20, 10), 200)
	assert.Equal(t, vbuf.Limits{MaxVertexBufferBytes: 200, MaxIndices: 30}, r.Limits())
}

func TestRendererReleaseUploadsRemainder(t *testing.T) {
	open := openNoop(t)
	r, err := NewRenderer(open.Device, open.Queue, backend.Config{Width: 8, Height: 8, Layout: posColorLayout()})
	require.NoError(t, err)
	defer r.Destroy()

	buf := r.AllocateVertices(20, 3)
	require.NotNil(t, buf)
	r.ReleaseVertices(buf, 20, 2)
	assert.Equal(t, 40, r.Stats().BytesUploaded)
	assert.Empty(t, r.Calls())
}

func TestNewRendererErrors(t *testing.T) {
	_, err := NewRenderer(nil, nil, backend.Config{Width: 1, Height: 1, Layout: posColorLayout()})
	assert.ErrorIs(t, err, ErrNoDevice)

	open := openNoop(t)
	_, err = NewRenderer(open.Device, open.Queue, backend.Config{Width: 1, Height: 1})
	assert.ErrorIs(t, err, backend.ErrInvalidConfig)
}

type fakeProvider struct {
	device gpucontext.Device
	queue  gpucontext.Queue
}

func (p fakeProvider) Device() gpucontext.Device { return p.device }
func (p fakeProvider) Queue() gpucontext.Queue { return p.queue }
func (p fakeProvider) SurfaceFormat() gputypes.TextureFormat { return gputypes.TextureFormatUndefined }
func (p fakeProvider) Adapter() gpucontext.Adapter { return nil }
func (p fakeProvider) AdapterInfo() gpucontext.AdapterInfo { return gpucontext.AdapterInfo{Name: "noop"} }

func TestNewFromProvider(t *testing.T) {
	open := openNoop(t)

	b, err := NewFromProvider(fakeProvider{device: open.Device, queue: open.Queue})
	require.NoError(t, err)
	require.NoError(t, b.Init())
	assert.Equal(t, open.Device, b.Device())

	_, err = NewFromProvider(fakeProvider{device: "not a device", queue: open.Queue})
	assert.ErrorIs(t, err, ErrNoDevice)

	_, err = NewFromProvider(nil)
	assert.ErrorIs(t, err, ErrNoDevice)
}

func TestBackendLifecycle(t *testing.T) {
	open := openNoop(t)
	b := New(open.Device, open.Queue)
	assert.Equal(t, backend.BackendNative, b.Name())

	cfg := backend.Config{Width: 4, Height: 4, Layout: posColorLayout()}
	_, err := b.NewRenderer(cfg)
	assert.ErrorIs(t, err, backend.ErrNotInitialized)

	require.NoError(t, b.Init())
	r, err := b.NewRenderer(cfg)
	require.NoError(t, err)
	r.Destroy()

	b.Close()
	_, err = b.NewRenderer(cfg)
	assert.ErrorIs(t, err, backend.ErrNotInitialized)
}

func TestRegisteredBackendUsesDefaultProvider(t *testing.T) {
	t.Cleanup(func() { SetDefaultProvider(nil) })

	SetDefaultProvider(nil)
	assert.ErrorIs(t, backend.Get(backend.BackendNative).Init(), ErrNoDevice)

	open := openNoop(t)
	SetDefaultProvider(fakeProvider{device: open.Device, queue: open.Queue})
	b := backend.Get(backend.BackendNative)
	require.NoError(t, b.Init())
	defer b.Close()

	r, err := b.NewRenderer(backend.Config{Width: 4, Height: 4, Layout: posColorLayout()})
	require.NoError(t, err)
	r.Destroy()
}
