// Package native provides a Pure Go GPU renderer backend using gogpu/wgpu.
//
// Each vertex buffer the emission stage fills is uploaded into a hal
// vertex buffer, and each index list becomes a hal index buffer. The
// resulting draw calls are replayed into a render pass with Encode:
//
//	b, err := native.NewFromProvider(provider)
//	if err != nil {
//	    return err
//	}
//	r, err := b.NewRenderer(backend.Config{Width: w, Height: h, Layout: layout, Shader: mod})
//	...
//	gpu := r.(*native.Renderer)
//	gpu.Encode(pass, func(t gputypes.PrimitiveTopology) { pass.SetPipeline(pipelines[t]) })
//	gpu.Reset()
//
// Importing the package registers the "native" backend. The registered
// instance uses the provider set with SetDefaultProvider and fails Init with
// ErrNoDevice when none was set, so backend.InitDefault falls back to the
// software backend.
package native
