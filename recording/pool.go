package recording

import (
	"slices"

	"github.com/gogpu/draw"
)

// ResourcePool stores the data referenced by recording commands.
//
// ResourcePool is not safe for concurrent use.
type ResourcePool struct {
	buffers [][]byte
	indices [][]uint16
	layouts []*draw.Layout
}

// NewResourcePool creates an empty resource pool.
func NewResourcePool() *ResourcePool {
	return &ResourcePool{
		buffers: make([][]byte, 0, 8),
		indices: make([][]uint16, 0, 64),
		layouts: make([]*draw.Layout, 0, 4),
	}
}

// AddBuffer reserves a vertex buffer slot. Its contents are set later with
// SetBuffer.
func (p *ResourcePool) AddBuffer() BufferRef {
	p.buffers = append(p.buffers, nil)
	// #nosec G115 -- pool size is bounded by available memory, well under uint32 max
	return BufferRef(uint32(len(p.buffers) - 1))
}

// SetBuffer stores a copy of data as the contents of ref.
func (p *ResourcePool) SetBuffer(ref BufferRef, data []byte) {
	if int(ref) >= len(p.buffers) {
		return
	}
	p.buffers[ref] = slices.Clone(data)
}

// Buffer returns the contents of ref, or nil for an invalid reference.
func (p *ResourcePool) Buffer(ref BufferRef) []byte {
	if int(ref) >= len(p.buffers) {
		return nil
	}
	return p.buffers[ref]
}

// AddIndices stores a copy of indices.
func (p *ResourcePool) AddIndices(indices []uint16) IndexRef {
	p.indices = append(p.indices, slices.Clone(indices))
	// #nosec G115 -- pool size is bounded by available memory, well under uint32 max
	return IndexRef(uint32(len(p.indices) - 1))
}

// Indices returns the index list of ref, or nil for an invalid reference.
func (p *ResourcePool) Indices(ref IndexRef) []uint16 {
	if int(ref) >= len(p.indices) {
		return nil
	}
	return p.indices[ref]
}

// AddLayout stores a copy of l. Equal layouts share one reference.
func (p *ResourcePool) AddLayout(l *draw.Layout) LayoutRef {
	if l == nil {
		return LayoutRef(InvalidRef)
	}
	for i, have := range p.layouts {
		if have.Equal(l) {
			// #nosec G115 -- pool size is bounded by available memory, well under uint32 max
			return LayoutRef(uint32(i))
		}
	}
	p.layouts = append(p.layouts, l.Clone())
	// #nosec G115 -- pool size is bounded by available memory, well under uint32 max
	return LayoutRef(uint32(len(p.layouts) - 1))
}

// Layout returns the layout of ref, or nil for an invalid reference.
func (p *ResourcePool) Layout(ref LayoutRef) *draw.Layout {
	if int(ref) >= len(p.layouts) {
		return nil
	}
	return p.layouts[ref]
}

// BufferCount returns the number of vertex buffers in the pool.
func (p *ResourcePool) BufferCount() int { return len(p.buffers) }

// IndexCount returns the number of index lists in the pool.
func (p *ResourcePool) IndexCount() int { return len(p.indices) }

// LayoutCount returns the number of distinct layouts in the pool.
func (p *ResourcePool) LayoutCount() int { return len(p.layouts) }
