// Package vbuf implements the terminal stage of a draw.Pipeline: it packs
// surviving primitives into hardware vertex and index buffers and hands
// them to a Renderer.
//
// Vertices shared by several primitives are written once per vertex
// buffer. The stage tags each vertex with its slot in the buffer and
// resets every tag in the pipeline when the buffer is released, so a tag
// is never read across buffers.
//
// Cross-cutting behaviour such as logging or statistics is added by
// wrapping the Renderer with hooks:
//
//	r := vbuf.Chain(backendRenderer, vbuf.LogHook(nil), vbuf.StatsHook(&stats))
//	stage, err := vbuf.New(pipe, r)
package vbuf
