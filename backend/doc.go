// Package backend provides a pluggable renderer backend abstraction for
// the vertex emission stage.
//
// A backend hands out vbuf.Renderer values. The emission stage fills their
// vertex buffers and issues indexed draws; what happens to those draws is up
// to the backend.
//
// # Backend Registration
//
// Backends are registered via init() functions and selected at runtime.
// The software backend is automatically registered on import:
//
//	import _ "github.com/gogpu/draw/backend"
//
// The GPU backend registers itself when its package is imported:
//
//	import _ "github.com/gogpu/draw/backend/native"
//
// # Backend Selection
//
// Use InitDefault() to initialize the best available backend, or Get() to
// request a specific backend by name:
//
//	b, err := backend.InitDefault()
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer b.Close()
//
//	r, err := b.NewRenderer(backend.Config{Width: 800, Height: 600, Layout: layout})
//
// # Available Backends
//
//   - "software": CPU scanline rasterizer into an *image.RGBA (always available)
//   - "native": GPU vertex and index buffers via gogpu/wgpu hal
package backend
