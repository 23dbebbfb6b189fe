package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for solve operations.
var (
	// ErrInvalidState indicates a state or covariance factor with NaN or Inf entries.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrDimensionMismatch indicates mismatched state/vector field dimensions.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and system")

	// ErrUnsupportedMethod indicates an unknown solver method tag.
	ErrUnsupportedMethod = errors.New("dynamo: unsupported method")

	// ErrPrecondition indicates a caller violated an input contract.
	ErrPrecondition = errors.New("dynamo: precondition violated")

	// ErrNoSeries indicates exact initialization was requested for a system
	// that cannot be evaluated on Taylor series.
	ErrNoSeries = errors.New("dynamo: system does not support Taylor series evaluation")

	// ErrSingular indicates a singular innovation or smoother gain system.
	ErrSingular = errors.New("dynamo: singular linear system")
)

// SolveError wraps an error with the grid position where it surfaced.
type SolveError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *SolveError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SolveError) Unwrap() error {
	return e.Wrapped
}
