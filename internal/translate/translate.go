// Package translate converts post-transform vertices into the packed
// hardware vertex format described by a draw.Layout.
package translate

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/gogpu/draw"
	"github.com/gogpu/gputypes"
)

// ErrUnsupportedEmit is returned by KeyFromLayout for an emit mode that has
// no hardware format.
var ErrUnsupportedEmit = errors.New("translate: unsupported emit mode")

// Element is one attribute of the hardware vertex.
type Element struct {
	// Src is the post-transform slot read.
	Src int
	// Format is the hardware format written.
	Format gputypes.VertexFormat
	// Offset is the byte offset inside the hardware vertex.
	Offset int
	// PointSize writes the translator constant instead of Src.
	PointSize bool
}

// Key identifies a translator: equal keys translate identically.
type Key struct {
	Elements []Element
	Stride   int
}

// Equal reports whether k and o describe the same hardware vertex.
func (k Key) Equal(o Key) bool {
	if k.Stride != o.Stride || len(k.Elements) != len(o.Elements) {
		return false
	}
	for i := range k.Elements {
		if k.Elements[i] != o.Elements[i] {
			return false
		}
	}
	return true
}

func formatFor(e draw.EmitMode) (gputypes.VertexFormat, bool) {
	switch e {
	case draw.Emit1F, draw.Emit1FPointSize:
		return gputypes.VertexFormatFloat32, true
	case draw.Emit2F:
		return gputypes.VertexFormatFloat32x2, true
	case draw.Emit3F:
		return gputypes.VertexFormatFloat32x3, true
	case draw.Emit4F:
		return gputypes.VertexFormatFloat32x4, true
	case draw.Emit4UB:
		return gputypes.VertexFormatUnorm8x4, true
	}
	return gputypes.VertexFormatUndefined, false
}

// KeyFromLayout builds the translation key of l. Omitted attributes take no
// space.
func KeyFromLayout(l *draw.Layout) (Key, error) {
	var k Key
	for i, a := range l.Attribs {
		if a.Emit == draw.EmitOmit {
			continue
		}
		f, ok := formatFor(a.Emit)
		if !ok {
			return Key{}, fmt.Errorf("%w: attribute %d: %v", ErrUnsupportedEmit, i, a.Emit)
		}
		k.Elements = append(k.Elements, Element{
			Src:       a.Src,
			Format:    f,
			Offset:    k.Stride,
			PointSize: a.Emit == draw.Emit1FPointSize,
		})
		k.Stride += int(f.Size())
	}
	return k, nil
}

// Translator writes vertices in the format of its key.
type Translator struct {
	key       Key
	pointSize float32
}

// New returns a translator for key.
func New(key Key) *Translator {
	for _, e := range key.Elements {
		switch e.Format {
		case gputypes.VertexFormatFloat32, gputypes.VertexFormatFloat32x2,
			gputypes.VertexFormatFloat32x3, gputypes.VertexFormatFloat32x4,
			gputypes.VertexFormatUnorm8x4:
		default:
			draw.Assert(false, "translate.New", "unreachable format %v", e.Format)
		}
	}
	return &Translator{key: key}
}

// Key returns the translator key.
func (t *Translator) Key() Key { return t.key }

// Stride returns the hardware vertex size in bytes.
func (t *Translator) Stride() int { return t.key.Stride }

// SetConstant sets the value written for point-size elements.
func (t *Translator) SetConstant(pointSize float32) { t.pointSize = pointSize }

// Run writes one vertex into dst, which must hold at least Stride bytes.
func (t *Translator) Run(src *[draw.MaxAttribs][4]float32, dst []byte) {
	if t.key.Stride == 0 {
		return
	}
	_ = dst[t.key.Stride-1]
	for _, e := range t.key.Elements {
		out := dst[e.Offset:]
		if e.PointSize {
			putFloat(out, t.pointSize)
			continue
		}
		in := &src[e.Src]
		switch e.Format {
		case gputypes.VertexFormatFloat32:
			putFloat(out, in[0])
		case gputypes.VertexFormatFloat32x2:
			putFloat(out, in[0])
			putFloat(out[4:], in[1])
		case gputypes.VertexFormatFloat32x3:
			putFloat(out, in[0])
			putFloat(out[4:], in[1])
			putFloat(out[8:], in[2])
		case gputypes.VertexFormatFloat32x4:
			putFloat(out, in[0])
			putFloat(out[4:], in[1])
			putFloat(out[8:], in[2])
			putFloat(out[12:], in[3])
		case gputypes.VertexFormatUnorm8x4:
			out[0] = unorm8(in[0])
			out[1] = unorm8(in[1])
			out[2] = unorm8(in[2])
			out[3] = unorm8(in[3])
		}
	}
}

// Fetch decodes one hardware vertex back into attribute slots. Components a
// format does not carry are left untouched.
func (t *Translator) Fetch(src []byte, dst *[draw.MaxAttribs][4]float32) {
	for _, e := range t.key.Elements {
		in := src[e.Offset:]
		if e.PointSize {
			continue
		}
		out := &dst[e.Src]
		switch e.Format {
		case gputypes.VertexFormatUnorm8x4:
			for c := 0; c < 4; c++ {
				out[c] = float32(in[c]) / 255
			}
		default:
			n := int(e.Format.Size() / 4)
			for c := 0; c < n; c++ {
				out[c] = getFloat(in[4*c:])
			}
		}
	}
}

// PointSizeAt returns the point size stored in a hardware vertex, or false
// when the key has no point-size element.
func (t *Translator) PointSizeAt(src []byte) (float32, bool) {
	for _, e := range t.key.Elements {
		if e.PointSize {
			return getFloat(src[e.Offset:]), true
		}
	}
	return 0, false
}

// Layout describes the hardware vertex as a GPU vertex buffer layout. The
// shader location of each element is its index.
func (t *Translator) Layout() gputypes.VertexBufferLayout {
	l := gputypes.VertexBufferLayout{
		ArrayStride: uint64(t.key.Stride),
		StepMode:    gputypes.VertexStepModeVertex,
	}
	for i, e := range t.key.Elements {
		l.Attributes = append(l.Attributes, gputypes.VertexAttribute{
			Format:         e.Format,
			Offset:         uint64(e.Offset),
			ShaderLocation: uint32(i),
		})
	}
	return l
}

func putFloat(b []byte, f float32) {
	binary.LittleEndian.PutUint32(b, math32.Float32bits(f))
}

func getFloat(b []byte) float32 {
	return math32.Float32frombits(binary.LittleEndian.Uint32(b))
}

func unorm8(f float32) byte {
	switch {
	case f <= 0 || f != f:
		return 0
	case f >= 1:
		return 255
	}
	return byte(f*255 + 0.5)
}
