package backend

import (
	"errors"
	"image/color"
	"slices"
	"testing"

	"github.com/gogpu/draw"
	"github.com/gogpu/draw/vbuf"
)

func colorLayout() *draw.Layout {
	l := &draw.Layout{}
	l.Add(draw.Emit4F, draw.InterpPos, 0)
	l.Add(draw.Emit4F, draw.InterpPerspective, 1)
	l.ComputeSize()
	return l
}

// stubBackend is a registrable backend whose Init result is fixed.
type stubBackend struct {
	name    string
	initErr error
}

func (b *stubBackend) Name() string { return b.name }
func (b *stubBackend) Init() error  { return b.initErr }
func (b *stubBackend) Close()       {}
func (b *stubBackend) NewRenderer(Config) (vbuf.Renderer, error) {
	return nil, ErrBackendNotAvailable
}

func TestSoftwareBackendName(t *testing.T) {
	b := NewSoftwareBackend()
	if b.Name() != "software" {
		t.Errorf("Name() = %q, want %q", b.Name(), "software")
	}
}

func TestSoftwareBackendRequiresInit(t *testing.T) {
	b := NewSoftwareBackend()
	_, err := b.NewRenderer(Config{Width: 10, Height: 10, Layout: colorLayout()})
	if !errors.Is(err, ErrNotInitialized) {
		t.Errorf("NewRenderer before Init error = %v, want ErrNotInitialized", err)
	}
}

func TestConfigNormalize(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"valid", Config{Width: 4, Height: 4, Layout: colorLayout()}, true},
		{"zero size", Config{Layout: colorLayout()}, false},
		{"no layout", Config{Width: 4, Height: 4}, false},
		{"color slot", Config{Width: 4, Height: 4, Layout: colorLayout(), ColorSlot: draw.MaxAttribs}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Normalize()
			if tt.ok && err != nil {
				t.Errorf("Normalize() error = %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Normalize() error = %v, want ErrInvalidConfig", err)
			}
		})
	}

	cfg := Config{Width: 4, Height: 4, Layout: colorLayout()}
	if err := cfg.Normalize(); err != nil {
		t.Fatal(err)
	}
	if cfg.Limits != DefaultLimits() {
		t.Errorf("Limits = %+v, want defaults", cfg.Limits)
	}
}

func TestRegistry(t *testing.T) {
	if !IsRegistered(BackendSoftware) {
		t.Fatal("software backend should register itself")
	}
	if b := Get(BackendSoftware); b == nil || b.Name() != BackendSoftware {
		t.Errorf("Get(software) = %v", b)
	}
	if b := Get("missing"); b != nil {
		t.Errorf("Get(missing) = %v, want nil", b)
	}

	Register("zz-test", func() RenderBackend { return &stubBackend{name: "zz-test"} })
	defer Unregister("zz-test")
	if !slices.Contains(Available(), "zz-test") {
		t.Errorf("Available() = %v, missing zz-test", Available())
	}
	if !slices.IsSorted(Available()) {
		t.Errorf("Available() not sorted: %v", Available())
	}
}

func TestDefaultPriority(t *testing.T) {
	Register(BackendNative, func() RenderBackend { return &stubBackend{name: BackendNative} })
	defer Unregister(BackendNative)

	if got := Default().Name(); got != BackendNative {
		t.Errorf("Default() = %q, want %q", got, BackendNative)
	}
}

func TestInitDefaultFallsBack(t *testing.T) {
	Register(BackendNative, func() RenderBackend {
		return &stubBackend{name: BackendNative, initErr: errors.New("no device")}
	})
	defer Unregister(BackendNative)

	b, err := InitDefault()
	if err != nil {
		t.Fatalf("InitDefault() error = %v", err)
	}
	defer b.Close()
	if b.Name() != BackendSoftware {
		t.Errorf("InitDefault() = %q, want fallback to software", b.Name())
	}
}

func TestMustDefault(t *testing.T) {
	if b := MustDefault(); b == nil {
		t.Error("MustDefault() returned nil")
	}
}

func newSoftware(t *testing.T, w, h int) *SoftwareRenderer {
	t.Helper()
	r, err := NewSoftwareRenderer(Config{Width: w, Height: h, Layout: colorLayout(), ColorSlot: 1})
	if err != nil {
		t.Fatalf("NewSoftwareRenderer: %v", err)
	}
	return r
}

func windowVertex(x, y float32, c [4]float32) draw.Vertex {
	return draw.Vertex{
		EdgeFlag: 1,
		Clip:     [4]float32{0, 0, 0, 1},
		Data:     [draw.MaxAttribs][4]float32{{x, y, 0.5, 1}, c},
	}
}

func TestSoftwareRendererThroughPipeline(t *testing.T) {
	r := newSoftware(t, 32, 32)
	pipe, err := draw.New(draw.WithViewport(draw.NewViewport(0, 0, 32, 32)))
	if err != nil {
		t.Fatal(err)
	}
	defer pipe.Destroy()
	stage, err := vbuf.New(pipe, r)
	if err != nil {
		t.Fatal(err)
	}
	pipe.Install(draw.SlotRasterize, stage)

	red := [4]float32{1, 0, 0, 1}
	verts := []draw.Vertex{
		windowVertex(2, 2, red),
		windowVertex(30, 2, red),
		windowVertex(2, 30, red),
	}
	pipe.Run(draw.Triangles, verts, []uint16{0, 1, 2})
	pipe.Flush(draw.FlushBackend)

	if got := r.Stats().Triangles; got != 1 {
		t.Fatalf("Triangles = %d, want 1", got)
	}
	if got := r.Image().RGBAAt(8, 8); got.R < 250 || got.A < 250 || got.G != 0 {
		t.Errorf("pixel inside = %v, want opaque red", got)
	}
	if got := r.Image().RGBAAt(28, 28); got.A != 0 {
		t.Errorf("pixel outside = %v, want transparent", got)
	}
}

func TestSoftwareRendererLinesAndPoints(t *testing.T) {
	r := newSoftware(t, 16, 16)
	r.Clear(color.Black)
	r.SetPrimitive(draw.Lines)
	buf := r.AllocateVertices(32, 3)
	if buf == nil {
		t.Fatal("AllocateVertices returned nil")
	}
	green := [draw.MaxAttribs][4]float32{{0, 8, 0, 1}, {0, 1, 0, 1}}
	r.tr.Run(&green, buf[0:])
	end := green
	end[0] = [4]float32{16, 8, 0, 1}
	r.tr.Run(&end, buf[32:])
	r.Draw([]uint16{0, 1})

	if got := r.Image().RGBAAt(4, 7); got.G == 0 {
		t.Errorf("line pixel = %v, want green coverage", got)
	}

	r.SetPrimitive(draw.Points)
	blue := [draw.MaxAttribs][4]float32{{3.5, 3.5, 0, 1}, {0, 0, 1, 1}}
	r.tr.Run(&blue, buf[64:])
	r.Draw([]uint16{2})
	if got := r.Image().RGBAAt(3, 3); got.B < 250 || got.R != 0 {
		t.Errorf("point pixel = %v, want blue", got)
	}
	want := SoftwareStats{Points: 1, Lines: 1}
	if r.Stats() != want {
		t.Errorf("Stats() = %+v, want %+v", r.Stats(), want)
	}
	r.ReleaseVertices(buf, 32, 3)
}

func TestSoftwareRendererRefusesOversizedBuffer(t *testing.T) {
	r, err := NewSoftwareRenderer(Config{
		Width: 4, Height: 4, Layout: colorLayout(),
		Limits: vbuf.Limits{MaxVertexBufferBytes: 64, MaxIndices: 3},
	})
	if err != nil {
		t.Fatal(err)
	}
	if buf := r.AllocateVertices(32, 3); buf != nil {
		t.Error("allocation over the limit should fail")
	}
	if buf := r.AllocateVertices(16, 2); buf != nil {
		t.Error("allocation with a foreign vertex size should fail")
	}
	if buf := r.AllocateVertices(32, 2); len(buf) != 64 {
		t.Errorf("allocation len = %d, want 64", len(buf))
	}
}
