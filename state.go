package draw

import "github.com/gogpu/gputypes"

// FillMode is how a polygon face is rasterized.
type FillMode uint8

const (
	// FillSolid rasterizes the interior.
	FillSolid FillMode = iota
	// FillLine draws the edges that carry an edge flag.
	FillLine
	// FillPoint draws the vertices that start a flagged edge.
	FillPoint
)

// SlotPair maps a front-facing attribute slot to its back-facing twin.
type SlotPair struct {
	Front, Back int
}

// Rasterizer is the geometry-relevant part of rasterizer state.
type Rasterizer struct {
	FrontFace gputypes.FrontFace
	CullMode  gputypes.CullMode

	FillFront FillMode
	FillBack  FillMode

	Flatshade bool

	// TwoSide selects back colours for back-facing triangles.
	TwoSide      bool
	TwoSideSlots []SlotPair

	OffsetEnable bool
	OffsetUnits  float32
	OffsetScale  float32

	LineWidth          float32
	LineSmooth         bool
	LineStippleEnable  bool
	LineStipplePattern uint16
	LineStippleFactor  int

	PointSize float32
	// PointSizeSlot, when non-negative, holds a per-vertex size in its
	// first component.
	PointSizeSlot int
	PointSmooth   bool
	PointSprite   bool
	// SpriteCoordSlots receive generated (s, t, 0, 1) coordinates for
	// point sprites.
	SpriteCoordSlots []int

	PolyStipple bool

	// BypassClipping skips the clip stage entirely.
	BypassClipping bool
}

// DefaultRasterizer returns filled, unculled, one pixel wide state.
func DefaultRasterizer() Rasterizer {
	return Rasterizer{
		FrontFace:          gputypes.FrontFaceCCW,
		CullMode:           gputypes.CullModeNone,
		LineWidth:          1,
		LineStipplePattern: 0xffff,
		LineStippleFactor:  1,
		PointSize:          1,
		PointSizeSlot:      -1,
	}
}

// Viewport maps normalized device coordinates to window coordinates.
type Viewport struct {
	Scale     [4]float32
	Translate [4]float32
}

// IdentityViewport leaves NDC untouched.
func IdentityViewport() Viewport {
	return Viewport{Scale: [4]float32{1, 1, 1, 1}}
}

// NewViewport returns the viewport for a width x height target with y
// pointing down and depth mapped to [0, 1].
func NewViewport(x, y, width, height float32) Viewport {
	return Viewport{
		Scale:     [4]float32{width / 2, -height / 2, 0.5, 1},
		Translate: [4]float32{x + width/2, y + height/2, 0.5, 0},
	}
}

// FlushFlags select how deep a flush goes.
type FlushFlags uint8

const (
	// FlushStateChange ends the current primitive batch.
	FlushStateChange FlushFlags = 1 << iota
	// FlushBackend also releases the hardware vertex buffer.
	FlushBackend
)
