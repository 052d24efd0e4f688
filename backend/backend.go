package backend

import (
	"errors"
	"fmt"

	"github.com/gogpu/draw"
	"github.com/gogpu/draw/shader"
	"github.com/gogpu/draw/vbuf"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not available.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrNotInitialized is returned when operations are called before Init.
	ErrNotInitialized = errors.New("backend: not initialized")

	// ErrInvalidConfig is returned by NewRenderer for an unusable Config.
	ErrInvalidConfig = errors.New("backend: invalid renderer config")
)

// Config describes a renderer to create.
type Config struct {
	// Width and Height are the target size in pixels.
	Width, Height int

	// Layout is the hardware vertex layout reported for every primitive
	// kind. Slot 0 must be the window position.
	Layout *draw.Layout

	// Limits bound the buffers the renderer hands out. Zero fields take
	// the value from DefaultLimits.
	Limits vbuf.Limits

	// ColorSlot is the post-transform slot holding the RGBA colour of a
	// primitive. Zero means every primitive is drawn white.
	ColorSlot int

	// Shader is the compiled vertex program, used by GPU backends.
	Shader *shader.Module
}

// DefaultLimits returns the limits used for zero Config.Limits fields.
func DefaultLimits() vbuf.Limits {
	return vbuf.Limits{MaxVertexBufferBytes: 64 << 10, MaxIndices: 4096}
}

// Normalize fills defaults and validates c.
func (c *Config) Normalize() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: size %dx%d", ErrInvalidConfig, c.Width, c.Height)
	}
	if c.Layout == nil || len(c.Layout.Attribs) == 0 {
		return fmt.Errorf("%w: no vertex layout", ErrInvalidConfig)
	}
	if c.ColorSlot < 0 || c.ColorSlot >= draw.MaxAttribs {
		return fmt.Errorf("%w: color slot %d", ErrInvalidConfig, c.ColorSlot)
	}
	d := DefaultLimits()
	if c.Limits.MaxVertexBufferBytes <= 0 {
		c.Limits.MaxVertexBufferBytes = d.MaxVertexBufferBytes
	}
	if c.Limits.MaxIndices <= 0 {
		c.Limits.MaxIndices = d.MaxIndices
	}
	return nil
}

// RenderBackend is the interface for rendering backends.
// Each backend produces renderers the vertex emission stage draws into.
//
// Backends must be registered via Register() and are selected via
// Get() or Default().
type RenderBackend interface {
	// Name returns the backend identifier (e.g., "software", "native").
	Name() string

	// Init initializes the backend.
	// This should be called before any rendering operations.
	Init() error

	// Close releases all backend resources.
	// The backend should not be used after Close is called.
	Close()

	// NewRenderer creates a renderer for the emission stage.
	NewRenderer(cfg Config) (vbuf.Renderer, error)
}
