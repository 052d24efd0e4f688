package vbuf

import "github.com/gogpu/draw"

// Limits are the capacity limits of a Renderer.
type Limits struct {
	// MaxVertexBufferBytes is the largest vertex buffer the renderer
	// hands out.
	MaxVertexBufferBytes int
	// MaxIndices is the largest index list accepted by one Draw call.
	MaxIndices int
}

// Renderer is the backend sink of the emission stage.
//
// The stage calls SetPrimitive before any vertices of a new primitive kind
// are emitted, allocates a vertex buffer, fills it, and issues Draw calls
// whose indices address vertices in that buffer. ReleaseVertices ends the
// buffer's life.
//
// Renderer methods are called from the goroutine running the pipeline.
type Renderer interface {
	// VertexLayout returns the hardware vertex layout for the current
	// primitive kind. It is read after every SetPrimitive.
	VertexLayout() *draw.Layout

	// AllocateVertices returns a buffer of at least vertexSize*count bytes,
	// or nil if none is available.
	AllocateVertices(vertexSize, count int) []byte

	// ReleaseVertices returns a buffer obtained from AllocateVertices.
	// count is the number of vertices actually written.
	ReleaseVertices(buf []byte, vertexSize, count int)

	// SetPrimitive announces the kind of the following Draw calls.
	SetPrimitive(kind draw.Kind)

	// Draw draws indexed primitives from the current vertex buffer. The
	// renderer must not retain indices after returning.
	Draw(indices []uint16)

	// Limits returns the capacity limits of the renderer.
	Limits() Limits

	// Destroy releases renderer resources.
	Destroy()
}
