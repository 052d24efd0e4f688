package backend

import (
	"fmt"
	"image"
	"image/color"

	"github.com/chewxy/math32"
	"github.com/gogpu/draw"
	"github.com/gogpu/draw/internal/translate"
	"github.com/gogpu/draw/vbuf"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/vector"
)

// Backend name constants.
const (
	// BackendSoftware is the name of the CPU-based software backend.
	BackendSoftware = "software"
	// BackendNative is the name of the Pure Go GPU backend (gogpu/wgpu).
	BackendNative = "native"
)

// SoftwareBackend is a CPU-based rendering backend. Its renderers
// rasterize emitted primitives into an *image.RGBA.
type SoftwareBackend struct {
	initialized bool
}

// init registers the software backend on package import.
func init() {
	Register(BackendSoftware, func() RenderBackend {
		return &SoftwareBackend{}
	})
}

// NewSoftwareBackend creates a new software rendering backend.
func NewSoftwareBackend() *SoftwareBackend {
	return &SoftwareBackend{}
}

// Name returns the backend identifier.
func (b *SoftwareBackend) Name() string {
	return BackendSoftware
}

// Init initializes the backend.
func (b *SoftwareBackend) Init() error {
	b.initialized = true
	return nil
}

// Close releases all backend resources.
func (b *SoftwareBackend) Close() {
	b.initialized = false
}

// NewRenderer creates a SoftwareRenderer.
func (b *SoftwareBackend) NewRenderer(cfg Config) (vbuf.Renderer, error) {
	if !b.initialized {
		return nil, ErrNotInitialized
	}
	r, err := NewSoftwareRenderer(cfg)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// SoftwareStats counts what a SoftwareRenderer has drawn.
type SoftwareStats struct {
	Points, Lines, Triangles int
}

// SoftwareRenderer rasterizes emitted primitives with an anti-aliasing
// scanline rasterizer. Triangles are filled, lines are drawn one pixel
// wide and points as squares of the emitted point size. Every primitive
// takes the colour of its last vertex.
type SoftwareRenderer struct {
	cfg   Config
	img   *image.RGBA
	ras   vector.Rasterizer
	tr    *translate.Translator
	kind  draw.Kind
	buf   []byte
	stats SoftwareStats
}

var _ vbuf.Renderer = (*SoftwareRenderer)(nil)

// NewSoftwareRenderer returns a renderer drawing into a transparent
// cfg.Width x cfg.Height image.
func NewSoftwareRenderer(cfg Config) (*SoftwareRenderer, error) {
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	key, err := translate.KeyFromLayout(cfg.Layout)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return &SoftwareRenderer{
		cfg: cfg,
		img: image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height)),
		tr:  translate.New(key),
	}, nil
}

// Image returns the render target.
func (r *SoftwareRenderer) Image() *image.RGBA { return r.img }

// Stats returns the primitive counts drawn so far.
func (r *SoftwareRenderer) Stats() SoftwareStats { return r.stats }

// Clear fills the target with c.
func (r *SoftwareRenderer) Clear(c color.Color) {
	xdraw.Draw(r.img, r.img.Bounds(), image.NewUniform(c), image.Point{}, xdraw.Src)
}

// VertexLayout implements vbuf.Renderer.
func (r *SoftwareRenderer) VertexLayout() *draw.Layout { return r.cfg.Layout }

// AllocateVertices implements vbuf.Renderer.
func (r *SoftwareRenderer) AllocateVertices(vertexSize, count int) []byte {
	if vertexSize != r.tr.Stride() || vertexSize*count > r.cfg.Limits.MaxVertexBufferBytes {
		return nil
	}
	r.buf = make([]byte, vertexSize*count)
	return r.buf
}

// ReleaseVertices implements vbuf.Renderer.
func (r *SoftwareRenderer) ReleaseVertices([]byte, int, int) { r.buf = nil }

// SetPrimitive implements vbuf.Renderer.
func (r *SoftwareRenderer) SetPrimitive(kind draw.Kind) { r.kind = kind }

// Limits implements vbuf.Renderer.
func (r *SoftwareRenderer) Limits() vbuf.Limits { return r.cfg.Limits }

// Destroy implements vbuf.Renderer.
func (r *SoftwareRenderer) Destroy() { r.buf = nil }

// Draw implements vbuf.Renderer.
func (r *SoftwareRenderer) Draw(indices []uint16) {
	n := r.kind.Verts()
	stride := r.tr.Stride()
	var v [3][draw.MaxAttribs][4]float32
	var size [3]float32
	for i := 0; i+n <= len(indices); i += n {
		for j := 0; j < n; j++ {
			src := r.buf[int(indices[i+j])*stride:][:stride]
			v[j] = [draw.MaxAttribs][4]float32{}
			r.tr.Fetch(src, &v[j])
			size[j] = 1
			if ps, ok := r.tr.PointSizeAt(src); ok {
				size[j] = ps
			}
		}
		fill := r.color(&v[n-1])
		switch r.kind {
		case draw.Points:
			r.point(v[0][0], size[0], fill)
			r.stats.Points++
		case draw.Lines:
			r.line(v[0][0], v[1][0], fill)
			r.stats.Lines++
		case draw.Triangles:
			r.triangle(v[0][0], v[1][0], v[2][0], fill)
			r.stats.Triangles++
		}
	}
}

func (r *SoftwareRenderer) color(v *[draw.MaxAttribs][4]float32) color.Color {
	if r.cfg.ColorSlot == 0 {
		return color.White
	}
	c := v[r.cfg.ColorSlot]
	return color.NRGBA{R: unorm8(c[0]), G: unorm8(c[1]), B: unorm8(c[2]), A: unorm8(c[3])}
}

func unorm8(f float32) uint8 {
	return uint8(math32.Round(math32.Max(0, math32.Min(1, f)) * 255))
}

func (r *SoftwareRenderer) begin() {
	r.ras.Reset(r.cfg.Width, r.cfg.Height)
}

func (r *SoftwareRenderer) end(c color.Color) {
	r.ras.Draw(r.img, r.img.Bounds(), image.NewUniform(c), image.Point{})
}

func (r *SoftwareRenderer) triangle(a, b, c [4]float32, fill color.Color) {
	r.begin()
	r.ras.MoveTo(a[0], a[1])
	r.ras.LineTo(b[0], b[1])
	r.ras.LineTo(c[0], c[1])
	r.ras.ClosePath()
	r.end(fill)
}

// line draws a one pixel wide quad from a to b.
func (r *SoftwareRenderer) line(a, b [4]float32, fill color.Color) {
	dx, dy := b[0]-a[0], b[1]-a[1]
	l := math32.Hypot(dx, dy)
	if l == 0 {
		r.point(a, 1, fill)
		return
	}
	nx, ny := -dy/l*0.5, dx/l*0.5
	r.begin()
	r.ras.MoveTo(a[0]+nx, a[1]+ny)
	r.ras.LineTo(b[0]+nx, b[1]+ny)
	r.ras.LineTo(b[0]-nx, b[1]-ny)
	r.ras.LineTo(a[0]-nx, a[1]-ny)
	r.ras.ClosePath()
	r.end(fill)
}

func (r *SoftwareRenderer) point(p [4]float32, size float32, fill color.Color) {
	h := size / 2
	r.begin()
	r.ras.MoveTo(p[0]-h, p[1]-h)
	r.ras.LineTo(p[0]+h, p[1]-h)
	r.ras.LineTo(p[0]+h, p[1]+h)
	r.ras.LineTo(p[0]-h, p[1]+h)
	r.ras.ClosePath()
	r.end(fill)
}
