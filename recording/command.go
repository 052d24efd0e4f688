package recording

import "github.com/gogpu/draw"

// CommandType identifies the type of a command.
type CommandType uint8

const (
	CmdSetPrimitive CommandType = iota // Announce a primitive kind
	CmdAllocate                        // Allocate a vertex buffer
	CmdDraw                            // Draw an index list
	CmdRelease                         // Release a vertex buffer
	CmdDestroy                         // Destroy the renderer
)

var commandTypeNames = [...]string{
	CmdSetPrimitive: "SetPrimitive",
	CmdAllocate:     "Allocate",
	CmdDraw:         "Draw",
	CmdRelease:      "Release",
	CmdDestroy:      "Destroy",
}

// String returns the string representation of a CommandType.
func (c CommandType) String() string {
	if int(c) < len(commandTypeNames) {
		return commandTypeNames[c]
	}
	return "Unknown"
}

// Command is the interface implemented by all command types.
type Command interface {
	// Type returns the CommandType for this command.
	Type() CommandType
}

// BufferRef is a reference to a vertex buffer in the resource pool.
type BufferRef uint32

// IndexRef is a reference to an index list in the resource pool.
type IndexRef uint32

// LayoutRef is a reference to a vertex layout in the resource pool.
type LayoutRef uint32

// InvalidRef is the sentinel value for an invalid reference.
const InvalidRef = ^uint32(0)

// IsValid returns true if the reference points to a valid buffer.
func (r BufferRef) IsValid() bool { return uint32(r) != InvalidRef }

// IsValid returns true if the reference points to a valid index list.
func (r IndexRef) IsValid() bool { return uint32(r) != InvalidRef }

// IsValid returns true if the reference points to a valid layout.
func (r LayoutRef) IsValid() bool { return uint32(r) != InvalidRef }

// SetPrimitiveCommand records a primitive kind change together with the
// layout the renderer reported for it.
type SetPrimitiveCommand struct {
	Kind   draw.Kind
	Layout LayoutRef
}

// Type implements Command.
func (SetPrimitiveCommand) Type() CommandType { return CmdSetPrimitive }

// AllocateCommand records a vertex buffer allocation. Buffer is
// InvalidRef when the allocation was refused.
type AllocateCommand struct {
	Buffer     BufferRef
	VertexSize int
	Count      int
}

// Type implements Command.
func (AllocateCommand) Type() CommandType { return CmdAllocate }

// DrawCommand records a draw from a vertex buffer.
type DrawCommand struct {
	Buffer  BufferRef
	Indices IndexRef
}

// Type implements Command.
func (DrawCommand) Type() CommandType { return CmdDraw }

// ReleaseCommand records the release of a vertex buffer. Count is the
// number of vertices written.
type ReleaseCommand struct {
	Buffer     BufferRef
	VertexSize int
	Count      int
}

// Type implements Command.
func (ReleaseCommand) Type() CommandType { return CmdRelease }

// DestroyCommand records renderer destruction.
type DestroyCommand struct{}

// Type implements Command.
func (DestroyCommand) Type() CommandType { return CmdDestroy }
