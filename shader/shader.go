package shader

import (
	"errors"
	"fmt"
	"sort"

	"github.com/gogpu/draw"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
	"github.com/gogpu/naga/spirv"
)

// Sentinel errors returned by Compile.
var (
	ErrNoVertexEntry   = errors.New("shader: no vertex entry point")
	ErrNoPosition      = errors.New("shader: vertex entry does not write @builtin(position)")
	ErrUnsupportedType = errors.New("shader: unsupported vertex attribute type")
)

// Attribute is one reflected @location binding.
type Attribute struct {
	Name       string
	Location   int
	Components int
	Interp     draw.InterpMode
}

// Module is a compiled vertex program.
type Module struct {
	Entry   string
	SPIRV   []uint32
	Inputs  []Attribute
	Outputs []Attribute
}

// Compile parses, validates and lowers WGSL source to SPIR-V. entry names
// the vertex entry point; an empty name selects the first one.
func Compile(source, entry string) (*Module, error) {
	ast, err := naga.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("shader: %w", err)
	}
	module, err := naga.LowerWithSource(ast, source)
	if err != nil {
		return nil, fmt.Errorf("shader: lower: %w", err)
	}
	verrs, err := naga.Validate(module)
	if err != nil {
		return nil, fmt.Errorf("shader: validate: %w", err)
	}
	if len(verrs) > 0 {
		return nil, fmt.Errorf("shader: validation failed: %w", &verrs[0])
	}

	ep := findVertexEntry(module, entry)
	if ep == nil {
		if entry == "" {
			return nil, ErrNoVertexEntry
		}
		return nil, fmt.Errorf("%w: %q", ErrNoVertexEntry, entry)
	}

	m := &Module{Entry: ep.Name}
	r := reflector{module: module}
	for _, arg := range ep.Function.Arguments {
		if err := r.collect(&m.Inputs, arg.Name, arg.Type, arg.Binding); err != nil {
			return nil, err
		}
	}
	hasPosition := false
	if res := ep.Function.Result; res != nil {
		if err := r.collect(&m.Outputs, "", res.Type, res.Binding); err != nil {
			return nil, err
		}
		hasPosition = r.position
	}
	if !hasPosition {
		return nil, fmt.Errorf("%w: %q", ErrNoPosition, ep.Name)
	}
	sortByLocation(m.Inputs)
	sortByLocation(m.Outputs)

	code, err := naga.GenerateSPIRV(module, spirv.Options{Version: spirv.Version1_3})
	if err != nil {
		return nil, fmt.Errorf("shader: %w", err)
	}
	m.SPIRV = toWords(code)

	draw.Logger().Debug("shader: compiled",
		"entry", m.Entry, "inputs", len(m.Inputs), "outputs", len(m.Outputs), "words", len(m.SPIRV))
	return m, nil
}

func findVertexEntry(module *ir.Module, name string) *ir.EntryPoint {
	for i := range module.EntryPoints {
		ep := &module.EntryPoints[i]
		if ep.Stage != ir.StageVertex {
			continue
		}
		if name == "" || ep.Name == name {
			return ep
		}
	}
	return nil
}

type reflector struct {
	module   *ir.Module
	position bool
}

// collect appends the location bindings of a value of type th. Values
// without a binding must be structs whose members carry one.
func (r *reflector) collect(dst *[]Attribute, name string, th ir.TypeHandle, b *ir.Binding) error {
	inner := r.module.Types[th].Inner
	if b == nil {
		st, ok := inner.(ir.StructType)
		if !ok {
			return fmt.Errorf("%w: %q has no binding", ErrUnsupportedType, name)
		}
		for _, mem := range st.Members {
			if err := r.collect(dst, mem.Name, mem.Type, mem.Binding); err != nil {
				return err
			}
		}
		return nil
	}

	switch bind := (*b).(type) {
	case ir.BuiltinBinding:
		if bind.Builtin == ir.BuiltinPosition {
			r.position = true
		}
	case ir.LocationBinding:
		n, err := components(inner)
		if err != nil {
			return fmt.Errorf("%w: %q", err, name)
		}
		*dst = append(*dst, Attribute{
			Name:       name,
			Location:   int(bind.Location),
			Components: n,
			Interp:     interpMode(bind.Interpolation),
		})
	}
	return nil
}

func components(inner ir.TypeInner) (int, error) {
	switch t := inner.(type) {
	case ir.ScalarType:
		if t.Kind == ir.ScalarFloat {
			return 1, nil
		}
	case ir.VectorType:
		if t.Scalar.Kind == ir.ScalarFloat {
			return int(t.Size), nil
		}
	}
	return 0, ErrUnsupportedType
}

func interpMode(in *ir.Interpolation) draw.InterpMode {
	if in == nil {
		return draw.InterpPerspective
	}
	switch in.Kind {
	case ir.InterpolationFlat:
		return draw.InterpConstant
	case ir.InterpolationLinear:
		return draw.InterpLinear
	}
	return draw.InterpPerspective
}

func sortByLocation(attrs []Attribute) {
	sort.Slice(attrs, func(i, j int) bool { return attrs[i].Location < attrs[j].Location })
}

var emitModes = [...]draw.EmitMode{1: draw.Emit1F, 2: draw.Emit2F, 3: draw.Emit3F, 4: draw.Emit4F}

// Layout returns the post-transform vertex layout produced by the program:
// the position in slot 0 followed by every output at slot location+1.
func (m *Module) Layout() *draw.Layout {
	l := &draw.Layout{}
	l.Add(draw.Emit4F, draw.InterpPos, 0)
	for _, a := range m.Outputs {
		l.Add(emitModes[a.Components], a.Interp, a.Location+1)
	}
	l.ComputeSize()
	return l
}

// OutputSlots returns the number of executor output slots the program
// writes.
func (m *Module) OutputSlots() int {
	n := 1
	for _, a := range m.Outputs {
		n = max(n, a.Location+2)
	}
	return n
}

var floatFormats = [...]gputypes.VertexFormat{
	1: gputypes.VertexFormatFloat32,
	2: gputypes.VertexFormatFloat32x2,
	3: gputypes.VertexFormatFloat32x3,
	4: gputypes.VertexFormatFloat32x4,
}

// VertexBufferLayout returns a tightly packed interleaved layout for the
// program inputs, in location order.
func (m *Module) VertexBufferLayout() gputypes.VertexBufferLayout {
	vbl := gputypes.VertexBufferLayout{StepMode: gputypes.VertexStepModeVertex}
	var off uint64
	for _, a := range m.Inputs {
		f := floatFormats[a.Components]
		vbl.Attributes = append(vbl.Attributes, gputypes.VertexAttribute{
			Format:         f,
			Offset:         off,
			ShaderLocation: uint32(a.Location),
		})
		off += f.Size()
	}
	vbl.ArrayStride = off
	return vbl
}
