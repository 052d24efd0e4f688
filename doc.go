// Package draw is a software geometry pipeline for 3D rendering backends.
//
// # Overview
//
// draw takes vertices that have already been shaded into clip space, groups
// them into points, lines and triangles, and runs every primitive through a
// chain of stages before a terminal stage hands the survivors to a backend.
//
//	vs.Executor -> Pipeline.Run -> validate -> flatshade -> clip -> cull
//	    -> twoside -> offset -> unfilled -> stipple -> wide point
//	    -> wide line -> rasterize (vbuf.Stage -> vbuf.Renderer)
//
// The validate stage is the chain entry after every flush. It looks at the
// rasterizer state and links only the stages that state needs, so a plain
// filled, unclipped draw goes straight from cull to the terminal stage.
//
// # Quick Start
//
//	pipe, err := draw.New(draw.WithViewport(draw.NewViewport(0, 0, 640, 480)))
//	if err != nil {
//	    return err
//	}
//	defer pipe.Destroy()
//
//	emit, err := vbuf.New(pipe, renderer)
//	if err != nil {
//	    return err
//	}
//	pipe.Install(draw.SlotRasterize, emit)
//
//	pipe.Run(draw.Triangles, verts, indices)
//	pipe.Flush(draw.FlushBackend)
//
// # Vertices
//
// Stages never hold pointers to vertices. A [Prim] carries [VertexRef]
// values that index either the vertex slice bound by [Pipeline.Run] or the
// temporary vertices a stage reserved with [StageBase.AllocTemps]. Both are
// reached through [Pipeline.Vertex].
//
// Each vertex carries an emission ID. The terminal stage uses it to write a
// shared vertex once per hardware buffer; any stage that changes a vertex
// must give it [UndefinedVertexID], which is the zero value.
//
// # Coordinate System
//
// Slot 0 of [Vertex.Data] holds the window position after the viewport
// transform, with 1/w in the fourth component. [NewViewport] maps y down,
// which makes counter-clockwise triangles have a negative determinant.
//
// # Errors
//
// Construction errors wrap [ErrAllocation] or [ErrInvalidOption]. Broken
// internal invariants panic with an [*InconsistencyError].
package draw
