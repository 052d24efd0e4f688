package main

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"strings"

	"github.com/gogpu/draw"
	"github.com/gogpu/gputypes"
	"golang.org/x/image/colornames"
	"gopkg.in/yaml.v3"
)

var errScene = errors.New("drawdemo: invalid scene")

// Scene is the YAML document describing what to draw.
//
//	width: 256
//	height: 256
//	background: black
//	transform: [1,0,0,0, 0,1,0,0, 0,0,1,0, 0,0,0,1]
//	draws:
//	  - mode: TriangleFan
//	    color: orange
//	    vertices: [[-0.5,-0.5], [0.5,-0.5], [0.5,0.5], [-0.5,0.5]]
type Scene struct {
	Width      int       `yaml:"width"`
	Height     int       `yaml:"height"`
	Background string    `yaml:"background"`
	Transform  []float32 `yaml:"transform"`
	Draws      []Item    `yaml:"draws"`
}

// Item is one draw call.
type Item struct {
	Mode     string      `yaml:"mode"`
	Vertices [][]float32 `yaml:"vertices"`
	Indices  []uint16    `yaml:"indices"`
	Color    string      `yaml:"color"`
	Colors   []string    `yaml:"colors"`

	LineWidth float32 `yaml:"line_width"`
	PointSize float32 `yaml:"point_size"`
	Cull      string  `yaml:"cull"`
	Fill      string  `yaml:"fill"`
	Flatshade bool    `yaml:"flatshade"`
}

// LoadScene reads and parses a scene file.
func LoadScene(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScene(data)
}

// ParseScene parses and validates a YAML scene.
func ParseScene(data []byte) (*Scene, error) {
	s := &Scene{Width: 256, Height: 256, Background: "black"}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("%w: %w", errScene, err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scene) validate() error {
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("%w: size %dx%d", errScene, s.Width, s.Height)
	}
	if len(s.Transform) != 0 && len(s.Transform) != 16 {
		return fmt.Errorf("%w: transform needs 16 values, got %d", errScene, len(s.Transform))
	}
	if _, err := parseColor(s.Background); err != nil {
		return err
	}
	for i := range s.Draws {
		if err := s.Draws[i].validate(); err != nil {
			return fmt.Errorf("draw %d: %w", i, err)
		}
	}
	return nil
}

func (it *Item) validate() error {
	m, err := draw.ParseMode(it.Mode)
	if err != nil {
		return fmt.Errorf("%w: %w", errScene, err)
	}
	if len(it.Vertices) == 0 || len(it.Vertices) > 0xffff {
		return fmt.Errorf("%w: %d vertices", errScene, len(it.Vertices))
	}
	for j, v := range it.Vertices {
		if len(v) < 2 || len(v) > 4 {
			return fmt.Errorf("%w: vertex %d has %d components", errScene, j, len(v))
		}
	}
	for _, idx := range it.Indices {
		if int(idx) >= len(it.Vertices) {
			return fmt.Errorf("%w: index %d out of range", errScene, idx)
		}
	}
	if n := len(it.Colors); n != 0 && n != len(it.Vertices) {
		return fmt.Errorf("%w: %d colors for %d vertices", errScene, n, len(it.Vertices))
	}
	for _, c := range append([]string{it.Color}, it.Colors...) {
		if _, err := parseColor(c); err != nil {
			return err
		}
	}
	if !draw.ValidatePrim(m, len(it.elements())) {
		return fmt.Errorf("%w: too few vertices for %v", errScene, m)
	}
	if _, err := parseCull(it.Cull); err != nil {
		return err
	}
	if _, err := parseFill(it.Fill); err != nil {
		return err
	}
	return nil
}

// elements returns the vertex order of the draw.
func (it *Item) elements() []uint16 {
	if len(it.Indices) > 0 {
		return it.Indices
	}
	seq := make([]uint16, len(it.Vertices))
	for i := range seq {
		seq[i] = uint16(i) // #nosec G115 -- validated to fit
	}
	return seq
}

// position expands a vertex to (x, y, z, w) with z = 0 and w = 1 defaults.
func (it *Item) position(i int) [4]float32 {
	p := [4]float32{0, 0, 0, 1}
	copy(p[:], it.Vertices[i])
	return p
}

// colorAt returns the colour of vertex i. Validated items never fail.
func (it *Item) colorAt(i int) color.RGBA {
	name := it.Color
	if len(it.Colors) > 0 {
		name = it.Colors[i]
	}
	c, _ := parseColor(name)
	return c
}

// rasterizer returns the rasterizer state of the draw.
func (it *Item) rasterizer() draw.Rasterizer {
	r := draw.DefaultRasterizer()
	if it.LineWidth > 0 {
		r.LineWidth = it.LineWidth
	}
	if it.PointSize > 0 {
		r.PointSize = it.PointSize
	}
	r.CullMode, _ = parseCull(it.Cull)
	r.FillFront, _ = parseFill(it.Fill)
	r.FillBack = r.FillFront
	r.Flatshade = it.Flatshade
	return r
}

// parseColor accepts an SVG colour name. Empty means white.
func parseColor(name string) (color.RGBA, error) {
	if name == "" {
		return color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, nil
	}
	c, ok := colornames.Map[strings.ToLower(name)]
	if !ok {
		return color.RGBA{}, fmt.Errorf("%w: unknown color %q", errScene, name)
	}
	return c, nil
}

func parseCull(s string) (gputypes.CullMode, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return gputypes.CullModeNone, nil
	case "front":
		return gputypes.CullModeFront, nil
	case "back":
		return gputypes.CullModeBack, nil
	}
	return gputypes.CullModeNone, fmt.Errorf("%w: cull mode %q", errScene, s)
}

func parseFill(s string) (draw.FillMode, error) {
	switch strings.ToLower(s) {
	case "", "solid":
		return draw.FillSolid, nil
	case "line":
		return draw.FillLine, nil
	case "point":
		return draw.FillPoint, nil
	}
	return draw.FillSolid, fmt.Errorf("%w: fill mode %q", errScene, s)
}
