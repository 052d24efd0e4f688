package draw

import "fmt"

// Option configures a Pipeline during creation.
//
// Example:
//
//	pipe, err := draw.New(
//	    draw.WithViewport(draw.NewViewport(0, 0, 800, 600)),
//	    draw.WithWideLineThreshold(2),
//	)
type Option func(*config)

// config holds optional configuration for Pipeline creation.
type config struct {
	rasterizer         Rasterizer
	viewport           Viewport
	wideLineThreshold  float32
	widePointThreshold float32
	lineStipple        bool
	pointSprite        bool
	maxTempVertices    int
	clipPlanes         [][4]float32
}

// defaultConfig returns the defaults of a software rasterizer backend.
func defaultConfig() config {
	return config{
		rasterizer:         DefaultRasterizer(),
		viewport:           IdentityViewport(),
		wideLineThreshold:  1,
		widePointThreshold: 1000000,
		lineStipple:        true,
		pointSprite:        true,
		maxTempVertices:    64,
	}
}

func (c *config) validate() error {
	if c.maxTempVertices <= 0 {
		return fmt.Errorf("%w: max temp vertices %d", ErrInvalidOption, c.maxTempVertices)
	}
	if len(c.clipPlanes) > MaxUserClipPlanes {
		return fmt.Errorf("%w: %d user clip planes, at most %d",
			ErrInvalidOption, len(c.clipPlanes), MaxUserClipPlanes)
	}
	return nil
}

// WithRasterizer sets the initial rasterizer state.
func WithRasterizer(r Rasterizer) Option {
	return func(c *config) {
		c.rasterizer = r
	}
}

// WithViewport sets the initial viewport.
func WithViewport(v Viewport) Option {
	return func(c *config) {
		c.viewport = v
	}
}

// WithWideLineThreshold sets the line width above which lines are turned
// into triangles by the pipeline instead of the backend.
func WithWideLineThreshold(w float32) Option {
	return func(c *config) {
		c.wideLineThreshold = w
	}
}

// WithWidePointThreshold sets the point size above which points are turned
// into quads.
func WithWidePointThreshold(s float32) Option {
	return func(c *config) {
		c.widePointThreshold = s
	}
}

// WithLineStipple controls whether the pipeline stipples lines itself.
// Backends with hardware stipple pass false.
func WithLineStipple(enable bool) Option {
	return func(c *config) {
		c.lineStipple = enable
	}
}

// WithPointSprite controls whether the pipeline expands point sprites.
func WithPointSprite(enable bool) Option {
	return func(c *config) {
		c.pointSprite = enable
	}
}

// WithMaxTempVertices bounds the arena block shared by stage temporaries.
func WithMaxTempVertices(n int) Option {
	return func(c *config) {
		c.maxTempVertices = n
	}
}

// WithClipPlanes sets the user clip planes in clip space.
func WithClipPlanes(planes ...[4]float32) Option {
	return func(c *config) {
		c.clipPlanes = append([][4]float32(nil), planes...)
	}
}
