package vs

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/gogpu/draw"
)

// ErrInvalidShader is returned for a shader that cannot be executed.
var ErrInvalidShader = errors.New("vs: invalid shader")

// Opcode selects an interpreter operation.
type Opcode uint8

// Interpreter opcodes.
const (
	OpMOV Opcode = iota
	OpADD
	OpMUL
	OpMAD
	OpDP3
	OpDP4
	OpRCP
	OpMIN
	OpMAX
	numOpcodes
)

var opInfo = [numOpcodes]struct {
	name string
	srcs int
}{
	OpMOV: {"MOV", 1},
	OpADD: {"ADD", 2},
	OpMUL: {"MUL", 2},
	OpMAD: {"MAD", 3},
	OpDP3: {"DP3", 2},
	OpDP4: {"DP4", 2},
	OpRCP: {"RCP", 1},
	OpMIN: {"MIN", 2},
	OpMAX: {"MAX", 2},
}

func (o Opcode) String() string {
	if o < numOpcodes {
		return opInfo[o].name
	}
	return fmt.Sprintf("Opcode(%d)", o)
}

// File is a register file.
type File uint8

// Register files.
const (
	FileInput File = iota
	FileOutput
	FileTemp
	FileConst
)

// Operand is a source register with swizzle and negation.
type Operand struct {
	File    File
	Index   int
	Swizzle [4]uint8
	Negate  bool
}

var identity = [4]uint8{0, 1, 2, 3}

// In reads input register i.
func In(i int) Operand { return Operand{File: FileInput, Index: i, Swizzle: identity} }

// Temp reads temporary register i.
func Temp(i int) Operand { return Operand{File: FileTemp, Index: i, Swizzle: identity} }

// Const reads constant i.
func Const(i int) Operand { return Operand{File: FileConst, Index: i, Swizzle: identity} }

// Swz returns o with components reordered; 0..3 select x..w.
func (o Operand) Swz(x, y, z, w uint8) Operand {
	o.Swizzle = [4]uint8{x, y, z, w}
	return o
}

// Neg returns o negated.
func (o Operand) Neg() Operand {
	o.Negate = !o.Negate
	return o
}

// Write mask bits.
const (
	WriteX uint8 = 1 << iota
	WriteY
	WriteZ
	WriteW
	WriteXYZW = WriteX | WriteY | WriteZ | WriteW
)

// Dst is a destination register with a write mask.
type Dst struct {
	File  File
	Index int
	Mask  uint8
}

// Out writes output register i.
func Out(i int) Dst { return Dst{File: FileOutput, Index: i, Mask: WriteXYZW} }

// TempDst writes temporary register i.
func TempDst(i int) Dst { return Dst{File: FileTemp, Index: i, Mask: WriteXYZW} }

// Masked returns d restricted to mask.
func (d Dst) Masked(mask uint8) Dst {
	d.Mask = mask
	return d
}

// Instruction is one interpreter step.
type Instruction struct {
	Op  Opcode
	Dst Dst
	Src [3]Operand
}

// Inst builds an instruction.
func Inst(op Opcode, dst Dst, src ...Operand) Instruction {
	in := Instruction{Op: op, Dst: dst}
	copy(in.Src[:], src)
	return in
}

// Shader is a vertex program. When Executable is set it runs natively,
// otherwise Instructions are interpreted.
type Shader struct {
	Name         string
	Instructions []Instruction
	Executable   Func

	// Outputs is the number of output slots written, including the
	// position in slot 0.
	Outputs int
}

// Native reports whether s runs without the interpreter.
func (s *Shader) Native() bool { return s.Executable != nil }

// Validate checks register ranges and operand counts.
func (s *Shader) Validate() error {
	if s.Outputs < 1 || s.Outputs > draw.MaxAttribs {
		return fmt.Errorf("%w: %d outputs", ErrInvalidShader, s.Outputs)
	}
	if s.Native() {
		return nil
	}
	if len(s.Instructions) == 0 {
		return fmt.Errorf("%w: no instructions", ErrInvalidShader)
	}
	for i, in := range s.Instructions {
		if in.Op >= numOpcodes {
			return fmt.Errorf("%w: instruction %d: unknown %s", ErrInvalidShader, i, in.Op)
		}
		switch in.Dst.File {
		case FileOutput:
			if in.Dst.Index < 0 || in.Dst.Index >= s.Outputs {
				return fmt.Errorf("%w: instruction %d: output %d out of range", ErrInvalidShader, i, in.Dst.Index)
			}
		case FileTemp:
			if in.Dst.Index < 0 || in.Dst.Index >= MaxTemps {
				return fmt.Errorf("%w: instruction %d: temp %d out of range", ErrInvalidShader, i, in.Dst.Index)
			}
		default:
			return fmt.Errorf("%w: instruction %d: destination must be output or temp", ErrInvalidShader, i)
		}
		for j := 0; j < opInfo[in.Op].srcs; j++ {
			if err := in.Src[j].validate(); err != nil {
				return fmt.Errorf("%w: instruction %d: %w", ErrInvalidShader, i, err)
			}
		}
	}
	return nil
}

func (o Operand) validate() error {
	limit := 0
	switch o.File {
	case FileInput, FileOutput:
		limit = draw.MaxAttribs
	case FileTemp:
		limit = MaxTemps
	case FileConst:
		limit = -1
	default:
		return fmt.Errorf("unknown register file %d", o.File)
	}
	if o.Index < 0 || (limit >= 0 && o.Index >= limit) {
		return fmt.Errorf("register %d out of range", o.Index)
	}
	for _, c := range o.Swizzle {
		if c > 3 {
			return fmt.Errorf("swizzle component %d", c)
		}
	}
	return nil
}

// maxConst returns the highest constant index read, or -1.
func (s *Shader) maxConst() int {
	hi := -1
	for _, in := range s.Instructions {
		for j := 0; j < opInfo[in.Op].srcs; j++ {
			if in.Src[j].File == FileConst && in.Src[j].Index > hi {
				hi = in.Src[j].Index
			}
		}
	}
	return hi
}

// interpret runs s over the first lanes lanes of m.
func (s *Shader) interpret(m *Machine, lanes int) {
	for _, in := range s.Instructions {
		n := opInfo[in.Op].srcs
		for l := 0; l < lanes; l++ {
			var a, b, c [4]float32
			a = m.fetch(in.Src[0], l)
			if n > 1 {
				b = m.fetch(in.Src[1], l)
			}
			if n > 2 {
				c = m.fetch(in.Src[2], l)
			}
			m.store(in.Dst, l, execute(in.Op, a, b, c))
		}
	}
}

func execute(op Opcode, a, b, c [4]float32) [4]float32 {
	var r [4]float32
	switch op {
	case OpMOV:
		r = a
	case OpADD:
		for i := range r {
			r[i] = a[i] + b[i]
		}
	case OpMUL:
		for i := range r {
			r[i] = a[i] * b[i]
		}
	case OpMAD:
		for i := range r {
			r[i] = a[i]*b[i] + c[i]
		}
	case OpDP3:
		d := a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
		r = [4]float32{d, d, d, d}
	case OpDP4:
		d := a[0]*b[0] + a[1]*b[1] + a[2]*b[2] + a[3]*b[3]
		r = [4]float32{d, d, d, d}
	case OpRCP:
		d := 1 / a[0]
		r = [4]float32{d, d, d, d}
	case OpMIN:
		for i := range r {
			r[i] = math32.Min(a[i], b[i])
		}
	case OpMAX:
		for i := range r {
			r[i] = math32.Max(a[i], b[i])
		}
	}
	return r
}

func (m *Machine) reg(f File, i int) *Vector {
	switch f {
	case FileInput:
		return &m.Inputs[i]
	case FileOutput:
		return &m.Outputs[i]
	case FileTemp:
		return &m.Temps[i]
	}
	return nil
}

func (m *Machine) fetch(o Operand, lane int) [4]float32 {
	var v [4]float32
	if o.File == FileConst {
		v = m.Consts[o.Index]
	} else {
		v = m.reg(o.File, o.Index).Lane(lane)
	}
	r := [4]float32{v[o.Swizzle[0]], v[o.Swizzle[1]], v[o.Swizzle[2]], v[o.Swizzle[3]]}
	if o.Negate {
		for i := range r {
			r[i] = -r[i]
		}
	}
	return r
}

func (m *Machine) store(d Dst, lane int, v [4]float32) {
	reg := m.reg(d.File, d.Index)
	for c := 0; c < 4; c++ {
		if d.Mask&(1<<c) != 0 {
			reg[c][lane] = v[c]
		}
	}
}
