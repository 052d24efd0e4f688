package vs

import (
	"errors"
	"fmt"

	"github.com/gogpu/draw"
)

// Sentinel errors returned by New and Shade.
var (
	ErrNilPipeline = errors.New("vs: nil pipeline")
	ErrNilFetcher  = errors.New("vs: nil fetcher")
	ErrShortOutput = errors.New("vs: output slice too short")
)

const defaultQueueSize = 16

// Option configures an Executor.
type Option func(*config)

type config struct {
	consts    [][4]float32
	queueSize int
}

// WithConstants sets the constant buffer read by the program.
func WithConstants(c [][4]float32) Option {
	return func(cfg *config) { cfg.consts = c }
}

// WithQueueSize sets how many vertices are queued before an automatic
// flush. It must be positive.
func WithQueueSize(n int) Option {
	return func(cfg *config) { cfg.queueSize = n }
}

type queued struct {
	elt uint32
	dst *draw.Vertex
}

// Executor shades queued vertices in batches of Lanes.
type Executor struct {
	pipe    *draw.Pipeline
	shader  *Shader
	fetcher Fetcher
	queue   []queued
	m       Machine
	batches int
}

// New returns an executor running shader for pipe. Inputs come from f.
func New(pipe *draw.Pipeline, shader *Shader, f Fetcher, opts ...Option) (*Executor, error) {
	if pipe == nil {
		return nil, ErrNilPipeline
	}
	if shader == nil {
		return nil, fmt.Errorf("%w: nil", ErrInvalidShader)
	}
	if f == nil {
		return nil, ErrNilFetcher
	}
	cfg := config{queueSize: defaultQueueSize}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.queueSize <= 0 {
		return nil, fmt.Errorf("%w: queue size %d", draw.ErrInvalidOption, cfg.queueSize)
	}
	if err := shader.Validate(); err != nil {
		return nil, err
	}
	if !shader.Native() {
		if hi := shader.maxConst(); hi >= len(cfg.consts) {
			return nil, fmt.Errorf("%w: constant %d read, %d supplied", ErrInvalidShader, hi, len(cfg.consts))
		}
	}
	if af, ok := f.(*ArrayFetcher); ok {
		if err := af.Check(); err != nil {
			return nil, err
		}
	}

	e := &Executor{
		pipe:    pipe,
		shader:  shader,
		fetcher: f,
		queue:   make([]queued, 0, cfg.queueSize),
	}
	e.m.Consts = cfg.consts
	draw.Logger().Debug("vs: executor created",
		"shader", shader.Name, "native", shader.Native(), "outputs", shader.Outputs, "queue", cfg.queueSize)
	return e, nil
}

// Shader returns the program being run.
func (e *Executor) Shader() *Shader { return e.shader }

// Batches returns the number of batches shaded so far.
func (e *Executor) Batches() int { return e.batches }

// Queue schedules element elt to be shaded into dst. The queue is flushed
// when it becomes full.
func (e *Executor) Queue(elt uint32, dst *draw.Vertex) error {
	e.queue = append(e.queue, queued{elt: elt, dst: dst})
	if len(e.queue) == cap(e.queue) {
		return e.Flush()
	}
	return nil
}

// Pending returns the number of queued vertices.
func (e *Executor) Pending() int { return len(e.queue) }

// Flush shades every queued vertex. The queue is empty afterwards even when
// an error is returned.
func (e *Executor) Flush() error {
	defer func() { e.queue = e.queue[:0] }()

	var elts [Lanes]uint32
	for i := 0; i < len(e.queue); i += Lanes {
		batch := e.queue[i:min(i+Lanes, len(e.queue))]
		for j, q := range batch {
			elts[j] = q.elt
		}
		if err := e.run(elts[:len(batch)]); err != nil {
			return err
		}
		for j, q := range batch {
			e.writeVertex(j, q.dst)
		}
	}
	return nil
}

// Shade runs the program over elts and writes vertex i of the result to
// out[i].
func (e *Executor) Shade(elts []uint32, out []draw.Vertex) error {
	if len(out) < len(elts) {
		return fmt.Errorf("%w: %d vertices for %d elements", ErrShortOutput, len(out), len(elts))
	}
	for i, elt := range elts {
		if err := e.Queue(elt, &out[i]); err != nil {
			return err
		}
	}
	return e.Flush()
}

func (e *Executor) run(elts []uint32) error {
	n := len(elts)
	e.m.clearInputs(n)
	if err := e.fetcher.Fetch(&e.m.Inputs, elts); err != nil {
		return err
	}
	if e.shader.Native() {
		e.shader.Executable(&e.m.Inputs, &e.m.Outputs, e.m.Consts, &e.m.Temps, n)
	} else {
		e.shader.interpret(&e.m, n)
	}
	e.batches++
	return nil
}

// writeVertex stores lane j of the outputs into v.
func (e *Executor) writeVertex(j int, v *draw.Vertex) {
	pos := e.m.Outputs[0].Lane(j)
	vp := e.pipe.Viewport()

	v.Clip = pos
	v.ClipMask = draw.ComputeClipMask(pos) | e.pipe.UserClipMask()
	v.EdgeFlag = 1
	v.ResetStipple = false
	v.ID = draw.UndefinedVertexID

	w := 1 / pos[3]
	v.Data[0] = [4]float32{
		pos[0]*w*vp.Scale[0] + vp.Translate[0],
		pos[1]*w*vp.Scale[1] + vp.Translate[1],
		pos[2]*w*vp.Scale[2] + vp.Translate[2],
		w,
	}
	for s := 1; s < e.shader.Outputs; s++ {
		v.Data[s] = e.m.Outputs[s].Lane(j)
	}
}
