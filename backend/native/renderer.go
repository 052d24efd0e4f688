package native

import (
	"encoding/binary"
	"fmt"

	"github.com/gogpu/draw"
	"github.com/gogpu/draw/backend"
	"github.com/gogpu/draw/internal/translate"
	"github.com/gogpu/draw/vbuf"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// DrawCall is one indexed draw waiting to be encoded.
type DrawCall struct {
	Topology gputypes.PrimitiveTopology
	Vertices hal.Buffer
	Indices  hal.Buffer
	Count    uint32
}

// Stats counts the GPU work a Renderer has produced.
type Stats struct {
	VertexBuffers int
	Draws         int
	Indices       int
	BytesUploaded int
}

// Renderer uploads emitted vertices and indices into hal buffers. It
// implements vbuf.Renderer.
//
// Vertices are written into a CPU staging slice and copied to the GPU
// buffer lazily, up to the highest index a draw references. Draw calls
// accumulate until Encode replays them into a render pass.
//
// The Renderer is not safe for concurrent use.
type Renderer struct {
	device hal.Device
	queue  hal.Queue
	cfg    backend.Config
	tr     *translate.Translator
	module hal.ShaderModule

	kind     draw.Kind
	staging  []byte
	vbuf     hal.Buffer
	uploaded int

	calls     []DrawCall
	retired   []hal.Buffer
	indexBufs []hal.Buffer
	stats     Stats
}

var _ vbuf.Renderer = (*Renderer)(nil)

// NewRenderer creates a renderer on device and queue. When cfg.Shader is
// set its SPIR-V is turned into a shader module owned by the renderer.
func NewRenderer(device hal.Device, queue hal.Queue, cfg backend.Config) (*Renderer, error) {
	if device == nil || queue == nil {
		return nil, ErrNoDevice
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	key, err := translate.KeyFromLayout(cfg.Layout)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", backend.ErrInvalidConfig, err)
	}
	r := &Renderer{
		device: device,
		queue:  queue,
		cfg:    cfg,
		tr:     translate.New(key),
	}
	if cfg.Shader != nil {
		r.module, err = cfg.Shader.CreateShaderModule(device)
		if err != nil {
			return nil, err
		}
	}
	return r, nil
}

// ShaderModule returns the vertex shader module, or nil when the config
// carried no shader.
func (r *Renderer) ShaderModule() hal.ShaderModule { return r.module }

// VertexBufferLayout describes the vertex buffers bound by Encode, for
// building render pipelines.
func (r *Renderer) VertexBufferLayout() gputypes.VertexBufferLayout { return r.tr.Layout() }

// Calls returns the draw calls recorded since the last Reset.
func (r *Renderer) Calls() []DrawCall { return r.calls }

// Stats returns the work counters.
func (r *Renderer) Stats() Stats { return r.stats }

// VertexLayout implements vbuf.Renderer.
func (r *Renderer) VertexLayout() *draw.Layout { return r.cfg.Layout }

// Limits implements vbuf.Renderer.
func (r *Renderer) Limits() vbuf.Limits { return r.cfg.Limits }

// SetPrimitive implements vbuf.Renderer.
func (r *Renderer) SetPrimitive(kind draw.Kind) { r.kind = kind }

// AllocateVertices implements vbuf.Renderer. It returns nil when the
// request does not fit the limits or the device refuses the buffer.
func (r *Renderer) AllocateVertices(vertexSize, count int) []byte {
	size := vertexSize * count
	if vertexSize != r.tr.Stride() || size <= 0 || size > r.cfg.Limits.MaxVertexBufferBytes {
		return nil
	}
	buf, err := r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "draw vertices",
		Size:  align4(size),
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		draw.Logger().Warn("native: vertex buffer allocation failed", "bytes", size, "err", err)
		return nil
	}
	r.vbuf = buf
	r.uploaded = 0
	r.staging = make([]byte, size)
	r.stats.VertexBuffers++
	return r.staging
}

// ReleaseVertices implements vbuf.Renderer. Vertices written after the
// last draw are uploaded before the buffer is retired.
func (r *Renderer) ReleaseVertices(buf []byte, vertexSize, count int) {
	if r.vbuf == nil {
		return
	}
	if err := r.upload(min(vertexSize*count, len(r.staging))); err != nil {
		draw.Logger().Warn("native: vertex upload failed", "err", err)
	}
	r.retired = append(r.retired, r.vbuf)
	r.vbuf = nil
	r.staging = nil
	r.uploaded = 0
}

// Draw implements vbuf.Renderer.
func (r *Renderer) Draw(indices []uint16) {
	if r.vbuf == nil || len(indices) == 0 {
		return
	}
	var maxIndex uint16
	for _, i := range indices {
		maxIndex = max(maxIndex, i)
	}
	if err := r.upload((int(maxIndex) + 1) * r.tr.Stride()); err != nil {
		draw.Logger().Warn("native: vertex upload failed", "err", err)
		return
	}

	data := make([]byte, align4(2*len(indices)))
	for i, idx := range indices {
		binary.LittleEndian.PutUint16(data[2*i:], idx)
	}
	ib, err := r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "draw indices",
		Size:  uint64(len(data)),
		Usage: gputypes.BufferUsageIndex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		draw.Logger().Warn("native: index buffer allocation failed", "count", len(indices), "err", err)
		return
	}
	if err := r.queue.WriteBuffer(ib, 0, data); err != nil {
		r.device.DestroyBuffer(ib)
		draw.Logger().Warn("native: index upload failed", "err", fmt.Errorf("%w: %w", ErrUpload, err))
		return
	}
	r.indexBufs = append(r.indexBufs, ib)
	r.calls = append(r.calls, DrawCall{
		Topology: r.kind.Topology(),
		Vertices: r.vbuf,
		Indices:  ib,
		Count:    uint32(len(indices)), // #nosec G115 -- bounded by Limits.MaxIndices
	})
	r.stats.Draws++
	r.stats.Indices += len(indices)
}

// upload copies staging bytes up to end that are not on the GPU yet.
func (r *Renderer) upload(end int) error {
	end = min(end, len(r.staging))
	if end <= r.uploaded {
		return nil
	}
	if err := r.queue.WriteBuffer(r.vbuf, uint64(r.uploaded), r.staging[r.uploaded:end]); err != nil { // #nosec G115
		return fmt.Errorf("%w: %w", ErrUpload, err)
	}
	r.stats.BytesUploaded += end - r.uploaded
	r.uploaded = end
	return nil
}

// Encode replays the recorded draw calls into pass. bind is called
// before the first call and whenever the topology changes, and must set
// a pipeline built for that topology.
func (r *Renderer) Encode(pass hal.RenderPassEncoder, bind func(gputypes.PrimitiveTopology)) {
	for i, c := range r.calls {
		if i == 0 || c.Topology != r.calls[i-1].Topology {
			bind(c.Topology)
		}
		pass.SetVertexBuffer(0, c.Vertices, 0)
		pass.SetIndexBuffer(c.Indices, gputypes.IndexFormatUint16, 0)
		pass.DrawIndexed(c.Count, 1, 0, 0, 0)
	}
}

// Reset drops the recorded draw calls and destroys the buffers only they
// referenced. Call it once the encoded pass has been submitted.
func (r *Renderer) Reset() {
	for _, b := range r.indexBufs {
		r.device.DestroyBuffer(b)
	}
	for _, b := range r.retired {
		r.device.DestroyBuffer(b)
	}
	r.indexBufs = r.indexBufs[:0]
	r.retired = r.retired[:0]
	r.calls = r.calls[:0]
}

// Destroy implements vbuf.Renderer.
func (r *Renderer) Destroy() {
	r.Reset()
	if r.vbuf != nil {
		r.device.DestroyBuffer(r.vbuf)
		r.vbuf = nil
		r.staging = nil
	}
	if r.module != nil {
		r.device.DestroyShaderModule(r.module)
		r.module = nil
	}
}

func align4(n int) uint64 {
	return uint64((n + 3) &^ 3) // #nosec G115 -- n is a positive byte count
}
