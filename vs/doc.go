// Package vs runs vertex programs over batches of up to four vertices and
// writes the results as post-transform [draw.Vertex] values.
//
// An [Executor] queues (element, destination) pairs. When the queue fills
// or Flush is called, elements are fetched through a [Fetcher], shaded four
// at a time and written to their destinations with the clip position in
// Clip, the frustum and user clip mask in ClipMask, and the viewport
// mapped window position in Data[0]:
//
//	exec, err := vs.New(pipe, shader, &vs.ArrayFetcher{Data: buf, Layout: layout})
//	if err != nil {
//	    return err
//	}
//	out := make([]draw.Vertex, len(elts))
//	if err := exec.Shade(elts, out); err != nil {
//	    return err
//	}
//	pipe.Run(draw.Triangles, out, indices)
//
// A [Shader] either carries a native [Func] or a list of [Instruction]
// values executed by the built-in interpreter.
package vs
