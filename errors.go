package draw

import (
	"errors"
	"fmt"
)

// Pipeline errors.
var (
	// ErrAllocation is returned when a stage, temp vertex pool or hardware
	// buffer cannot be allocated.
	ErrAllocation = errors.New("draw: allocation failed")

	// ErrInvalidLimits is returned when renderer capacity limits cannot hold
	// a single primitive.
	ErrInvalidLimits = errors.New("draw: invalid capacity limits")

	// ErrInvalidOption is returned by New for out-of-range options.
	ErrInvalidOption = errors.New("draw: invalid option")
)

// InconsistencyError is the panic value raised when an internal invariant
// of the pipeline is violated. The pipeline never continues after one.
type InconsistencyError struct {
	Op  string
	Msg string
}

func (e *InconsistencyError) Error() string {
	return "draw: internal inconsistency in " + e.Op + ": " + e.Msg
}

func inconsistency(op, format string, args ...any) *InconsistencyError {
	return &InconsistencyError{Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Assert panics with an *InconsistencyError when cond is false.
func Assert(cond bool, op, format string, args ...any) {
	if !cond {
		panic(inconsistency(op, format, args...))
	}
}
