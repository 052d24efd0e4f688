package vs

import "github.com/gogpu/draw"

// Lanes is the number of vertices shaded together.
const Lanes = 4

// MaxTemps is the size of the temporary register file.
const MaxTemps = 16

// Vector is one register for a whole batch. The first index selects the
// component (x, y, z, w), the second the lane.
type Vector [4][Lanes]float32

// Lane returns the four components of lane i.
func (v *Vector) Lane(i int) [4]float32 {
	return [4]float32{v[0][i], v[1][i], v[2][i], v[3][i]}
}

// SetLane stores c into lane i.
func (v *Vector) SetLane(i int, c [4]float32) {
	v[0][i], v[1][i], v[2][i], v[3][i] = c[0], c[1], c[2], c[3]
}

// Registers is an input or output register file.
type Registers = [draw.MaxAttribs]Vector

// Func is a native vertex program. It reads in and consts and writes out.
// Only the first lanes lanes carry live vertices.
type Func func(in, out *Registers, consts [][4]float32, temps *[MaxTemps]Vector, lanes int)

// Machine holds the register state of one executor.
type Machine struct {
	Inputs  Registers
	Outputs Registers
	Temps   [MaxTemps]Vector
	Consts  [][4]float32
}

// clearInputs zeroes lanes n..Lanes-1 so stale data never reaches a program.
func (m *Machine) clearInputs(n int) {
	for s := range m.Inputs {
		for c := 0; c < 4; c++ {
			for l := n; l < Lanes; l++ {
				m.Inputs[s][c][l] = 0
			}
		}
	}
}
