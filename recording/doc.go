// Package recording captures the calls a vertex emission stage makes on its
// renderer so they can be inspected or replayed.
//
// A Recorder implements vbuf.Renderer. Every call becomes a typed command;
// vertex buffer contents and index lists are stored in a ResourcePool and
// referenced by handles (BufferRef, IndexRef, LayoutRef).
//
// # Basic Usage
//
//	rec := recording.NewRecorder(layout, vbuf.Limits{MaxVertexBufferBytes: 4096, MaxIndices: 96})
//	stage, err := vbuf.New(pipe, rec)
//	if err != nil {
//	    return err
//	}
//	pipe.Install(draw.SlotRasterize, stage)
//	pipe.Run(draw.Triangles, verts, indices)
//	pipe.Flush(draw.FlushBackend)
//
//	r := rec.FinishRecording()
//	for _, p := range r.Primitives() {
//	    fmt.Println(p.Kind, p.Vertices[0][0])
//	}
//
// # Playback
//
// A Recording can be replayed into any other renderer, for example a GPU
// backend:
//
//	if err := r.Playback(gpuRenderer); err != nil {
//	    return err
//	}
//
// Commands are replayed in the order they were issued, so the target sees
// exactly the allocation, draw and release sequence of the original run.
package recording
