package vs

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/gogpu/draw"
	"github.com/gogpu/gputypes"
)

// ErrFetchRange is returned when an element lies outside the vertex data.
var ErrFetchRange = errors.New("vs: element out of range")

// ErrUnsupportedFormat is returned for an input format the fetcher cannot
// decode.
var ErrUnsupportedFormat = errors.New("vs: unsupported vertex format")

// Fetcher loads shader inputs for a batch of elements into lanes
// 0..len(elts)-1 of in.
type Fetcher interface {
	Fetch(in *Registers, elts []uint32) error
}

// ArrayFetcher reads interleaved vertices described by a vertex buffer
// layout. Each attribute lands in the input register named by its shader
// location. Missing components default to (0, 0, 0, 1).
type ArrayFetcher struct {
	Data   []byte
	Layout gputypes.VertexBufferLayout
}

// Count returns the number of whole vertices in Data.
func (f *ArrayFetcher) Count() int {
	if f.Layout.ArrayStride == 0 {
		return 0
	}
	return len(f.Data) / int(f.Layout.ArrayStride)
}

// Check validates the layout against the formats the fetcher decodes.
func (f *ArrayFetcher) Check() error {
	for _, a := range f.Layout.Attributes {
		if a.ShaderLocation >= draw.MaxAttribs {
			return fmt.Errorf("vs: shader location %d out of range", a.ShaderLocation)
		}
		if _, ok := components(a.Format); !ok {
			return fmt.Errorf("%w: %v", ErrUnsupportedFormat, a.Format)
		}
		if a.Offset+a.Format.Size() > f.Layout.ArrayStride {
			return fmt.Errorf("vs: attribute at location %d overruns stride %d", a.ShaderLocation, f.Layout.ArrayStride)
		}
	}
	return nil
}

// Fetch implements Fetcher.
func (f *ArrayFetcher) Fetch(in *Registers, elts []uint32) error {
	stride := int(f.Layout.ArrayStride)
	for lane, elt := range elts {
		base := int(elt) * stride
		if stride == 0 || base+stride > len(f.Data) {
			return fmt.Errorf("%w: element %d of %d", ErrFetchRange, elt, f.Count())
		}
		for _, a := range f.Layout.Attributes {
			v, err := decode(a.Format, f.Data[base+int(a.Offset):])
			if err != nil {
				return err
			}
			in[a.ShaderLocation].SetLane(lane, v)
		}
	}
	return nil
}

func components(f gputypes.VertexFormat) (int, bool) {
	switch f {
	case gputypes.VertexFormatFloat32:
		return 1, true
	case gputypes.VertexFormatFloat32x2:
		return 2, true
	case gputypes.VertexFormatFloat32x3:
		return 3, true
	case gputypes.VertexFormatFloat32x4, gputypes.VertexFormatUnorm8x4:
		return 4, true
	}
	return 0, false
}

func decode(f gputypes.VertexFormat, b []byte) ([4]float32, error) {
	v := [4]float32{0, 0, 0, 1}
	n, ok := components(f)
	if !ok {
		return v, fmt.Errorf("%w: %v", ErrUnsupportedFormat, f)
	}
	if f == gputypes.VertexFormatUnorm8x4 {
		for i := 0; i < 4; i++ {
			v[i] = float32(b[i]) / 255
		}
		return v, nil
	}
	for i := 0; i < n; i++ {
		v[i] = math32.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}
