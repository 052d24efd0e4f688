package main

import (
	"encoding/binary"
	"fmt"
	"image"

	"github.com/chewxy/math32"
	"github.com/gogpu/draw"
	"github.com/gogpu/draw/backend"
	"github.com/gogpu/draw/shader"
	"github.com/gogpu/draw/vbuf"
	"github.com/gogpu/draw/vs"
	"github.com/gogpu/gputypes"
)

// inputLayout is the interleaved scene vertex: position then colour.
var inputLayout = gputypes.VertexBufferLayout{
	ArrayStride: 20,
	StepMode:    gputypes.VertexStepModeVertex,
	Attributes: []gputypes.VertexAttribute{
		{Format: gputypes.VertexFormatFloat32x4, Offset: 0, ShaderLocation: 0},
		{Format: gputypes.VertexFormatUnorm8x4, Offset: 16, ShaderLocation: 1},
	},
}

// transformProgram multiplies the position by the matrix rows held in
// constants 0..3 and passes the colour through.
var transformProgram = &vs.Shader{
	Name:    "transform",
	Outputs: 2,
	Instructions: []vs.Instruction{
		vs.Inst(vs.OpDP4, vs.Out(0).Masked(vs.WriteX), vs.In(0), vs.Const(0)),
		vs.Inst(vs.OpDP4, vs.Out(0).Masked(vs.WriteY), vs.In(0), vs.Const(1)),
		vs.Inst(vs.OpDP4, vs.Out(0).Masked(vs.WriteZ), vs.In(0), vs.Const(2)),
		vs.Inst(vs.OpDP4, vs.Out(0).Masked(vs.WriteW), vs.In(0), vs.Const(3)),
		vs.Inst(vs.OpMOV, vs.Out(1), vs.In(1)),
	},
}

// hardwareLayout returns the emitted vertex: window position, colour and
// the rasterizer point size.
func hardwareLayout() *draw.Layout {
	l := &draw.Layout{}
	l.Add(draw.Emit4F, draw.InterpPos, 0)
	l.Add(draw.Emit4F, draw.InterpPerspective, 1)
	l.Add(draw.Emit1FPointSize, draw.InterpConstant, 0)
	l.ComputeSize()
	return l
}

// result summarizes a rendered scene.
type result struct {
	Backend  string
	Image    *image.RGBA // nil unless the backend draws on the CPU
	Vertices int
	Batches  int
	Draws    int
	Traffic  vbuf.Stats
	Stats    backend.SoftwareStats
}

// render draws s with a renderer from rb. module is optional and only
// consumed by GPU backends.
func render(s *Scene, rb backend.RenderBackend, module *shader.Module) (*result, error) {
	rend, err := rb.NewRenderer(backend.Config{
		Width:     s.Width,
		Height:    s.Height,
		Layout:    hardwareLayout(),
		ColorSlot: 1,
		Shader:    module,
	})
	if err != nil {
		return nil, err
	}

	pipe, err := draw.New(draw.WithViewport(draw.NewViewport(0, 0, float32(s.Width), float32(s.Height))))
	if err != nil {
		rend.Destroy()
		return nil, err
	}
	defer pipe.Destroy()

	res := &result{Backend: rb.Name()}
	stage, err := vbuf.New(pipe, vbuf.Chain(rend, vbuf.StatsHook(&res.Traffic)))
	if err != nil {
		rend.Destroy()
		return nil, err
	}
	pipe.Install(draw.SlotRasterize, stage)

	sw, _ := rend.(*backend.SoftwareRenderer)
	if sw != nil {
		bg, _ := parseColor(s.Background)
		sw.Clear(bg)
	}

	consts := s.constants()
	for i := range s.Draws {
		it := &s.Draws[i]
		n, batches, err := drawItem(pipe, it, consts)
		if err != nil {
			return nil, fmt.Errorf("draw %d: %w", i, err)
		}
		res.Vertices += n
		res.Batches += batches
		res.Draws++
	}
	pipe.Flush(draw.FlushBackend)

	if sw != nil {
		res.Image = sw.Image()
		res.Stats = sw.Stats()
	}
	draw.Logger().Debug("drawdemo: scene rendered", "backend", res.Backend, "draws", res.Draws, "vertices", res.Vertices)
	return res, nil
}

func drawItem(pipe *draw.Pipeline, it *Item, consts [][4]float32) (vertices, batches int, err error) {
	mode, err := draw.ParseMode(it.Mode)
	if err != nil {
		return 0, 0, err
	}
	f := &vs.ArrayFetcher{Data: it.encode(), Layout: inputLayout}
	ex, err := vs.New(pipe, transformProgram, f, vs.WithConstants(consts))
	if err != nil {
		return 0, 0, err
	}

	n := len(it.Vertices)
	elts := make([]uint32, n)
	for i := range elts {
		elts[i] = uint32(i) // #nosec G115 -- vertex count fits uint16
	}
	verts := make([]draw.Vertex, n)
	if err := ex.Shade(elts, verts); err != nil {
		return 0, 0, err
	}

	pipe.SetRasterizer(it.rasterizer())
	pipe.Run(mode.Kind(), verts, draw.Decompose(mode, it.elements()))
	return n, ex.Batches(), nil
}

// encode packs the item vertices in inputLayout.
func (it *Item) encode() []byte {
	stride := int(inputLayout.ArrayStride)
	data := make([]byte, stride*len(it.Vertices))
	for i := range it.Vertices {
		v := data[i*stride:]
		p := it.position(i)
		for c := 0; c < 4; c++ {
			binary.LittleEndian.PutUint32(v[4*c:], math32.Float32bits(p[c]))
		}
		col := it.colorAt(i)
		v[16], v[17], v[18], v[19] = col.R, col.G, col.B, col.A
	}
	return data
}

// constants returns the transform as four row constants, identity when
// the scene has none.
func (s *Scene) constants() [][4]float32 {
	m := s.Transform
	if len(m) != 16 {
		m = []float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}
	}
	rows := make([][4]float32, 4)
	for r := range rows {
		copy(rows[r][:], m[4*r:4*r+4])
	}
	return rows
}
