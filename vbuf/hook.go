package vbuf

import (
	"log/slog"

	"github.com/gogpu/draw"
)

// Hook wraps a Renderer with extra behaviour. The returned renderer must
// forward every call it does not consume to next.
type Hook func(next Renderer) Renderer

// Chain applies hooks to r. The first hook is outermost and sees every
// call first.
func Chain(r Renderer, hooks ...Hook) Renderer {
	for i := len(hooks) - 1; i >= 0; i-- {
		r = hooks[i](r)
	}
	return r
}

// Forward is a Renderer that passes every call to Next. Hooks embed it and
// override only the methods they care about.
type Forward struct {
	Next Renderer
}

// VertexLayout implements Renderer.
func (f Forward) VertexLayout() *draw.Layout { return f.Next.VertexLayout() }

// AllocateVertices implements Renderer.
func (f Forward) AllocateVertices(vertexSize, count int) []byte {
	return f.Next.AllocateVertices(vertexSize, count)
}

// ReleaseVertices implements Renderer.
func (f Forward) ReleaseVertices(buf []byte, vertexSize, count int) {
	f.Next.ReleaseVertices(buf, vertexSize, count)
}

// SetPrimitive implements Renderer.
func (f Forward) SetPrimitive(kind draw.Kind) { f.Next.SetPrimitive(kind) }

// Draw implements Renderer.
func (f Forward) Draw(indices []uint16) { f.Next.Draw(indices) }

// Limits implements Renderer.
func (f Forward) Limits() Limits { return f.Next.Limits() }

// Destroy implements Renderer.
func (f Forward) Destroy() { f.Next.Destroy() }

// LogHook logs every renderer call at debug level. A nil logger uses
// draw.Logger at the time of each call.
func LogHook(logger *slog.Logger) Hook {
	return func(next Renderer) Renderer {
		return &logRenderer{Forward: Forward{Next: next}, logger: logger}
	}
}

type logRenderer struct {
	Forward
	logger *slog.Logger
}

func (r *logRenderer) log() *slog.Logger {
	if r.logger != nil {
		return r.logger
	}
	return draw.Logger()
}

func (r *logRenderer) AllocateVertices(vertexSize, count int) []byte {
	buf := r.Next.AllocateVertices(vertexSize, count)
	r.log().Debug("vbuf: allocate vertices",
		"vertexSize", vertexSize, "count", count, "ok", buf != nil)
	return buf
}

func (r *logRenderer) ReleaseVertices(buf []byte, vertexSize, count int) {
	r.log().Debug("vbuf: release vertices", "vertexSize", vertexSize, "count", count)
	r.Next.ReleaseVertices(buf, vertexSize, count)
}

func (r *logRenderer) SetPrimitive(kind draw.Kind) {
	r.log().Debug("vbuf: set primitive", "kind", kind.String())
	r.Next.SetPrimitive(kind)
}

func (r *logRenderer) Draw(indices []uint16) {
	r.log().Debug("vbuf: draw", "indices", len(indices))
	r.Next.Draw(indices)
}

// Stats counts renderer traffic.
type Stats struct {
	PrimitiveChanges int
	Allocations      int
	Releases         int
	Vertices         int
	Draws            int
	Indices          int
}

// StatsHook accumulates call counts into s.
func StatsHook(s *Stats) Hook {
	return func(next Renderer) Renderer {
		return &statsRenderer{Forward: Forward{Next: next}, stats: s}
	}
}

type statsRenderer struct {
	Forward
	stats *Stats
}

func (r *statsRenderer) AllocateVertices(vertexSize, count int) []byte {
	r.stats.Allocations++
	return r.Next.AllocateVertices(vertexSize, count)
}

func (r *statsRenderer) ReleaseVertices(buf []byte, vertexSize, count int) {
	r.stats.Releases++
	r.stats.Vertices += count
	r.Next.ReleaseVertices(buf, vertexSize, count)
}

func (r *statsRenderer) SetPrimitive(kind draw.Kind) {
	r.stats.PrimitiveChanges++
	r.Next.SetPrimitive(kind)
}

func (r *statsRenderer) Draw(indices []uint16) {
	r.stats.Draws++
	r.stats.Indices += len(indices)
	r.Next.Draw(indices)
}
