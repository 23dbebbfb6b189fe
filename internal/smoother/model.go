package smoother

import (
	"fmt"

	"github.com/san-kum/odefilter/internal/dynamo"
	"github.com/san-kum/odefilter/internal/gauss"
	"gonum.org/v1/gonum/mat"
)

// TransitionModel is the linear map x -> A·x + Offset with additive noise
// of square-root covariance NoiseFactor.
type TransitionModel struct {
	A           *mat.Dense
	Offset      *mat.VecDense
	NoiseFactor *mat.Dense
}

// ObservationModel is the nonlinear map x -> Func(t, x) + Offset with
// additive noise of square-root covariance NoiseFactor. Jacobian is optional;
// when nil, linearizers fall back to finite differences.
type ObservationModel struct {
	Func        func(t float64, x mat.Vector) *mat.VecDense
	Jacobian    func(t float64, x mat.Vector) (*mat.Dense, error)
	Offset      *mat.VecDense
	NoiseFactor *mat.Dense
}

// Dim returns the observation dimension.
func (m ObservationModel) Dim() int {
	return m.Offset.Len()
}

// Problem bundles everything one engine call needs. Times has one entry
// per grid point; Observations[k] belongs to Times[k+1].
type Problem struct {
	Times        []float64
	Observations []*mat.VecDense
	X0           gauss.MVNSqrt
	Transition   TransitionModel
	Observation  ObservationModel
	Linearizer   Linearizer
	Parallel     bool
}

func (p *Problem) validate(nominal *gauss.Trajectory) error {
	n := len(p.Times)
	if n < 2 {
		return fmt.Errorf("%w: need at least 2 grid points, got %d", dynamo.ErrPrecondition, n)
	}
	if len(p.Observations) != n-1 {
		return fmt.Errorf("%w: %d observations for %d grid points", dynamo.ErrDimensionMismatch, len(p.Observations), n)
	}
	dim := p.X0.Dim()
	if r, c := p.Transition.A.Dims(); r != dim || c != dim {
		return fmt.Errorf("%w: transition is %dx%d, state has %d entries", dynamo.ErrDimensionMismatch, r, c, dim)
	}
	if nominal != nil && (nominal.Len() != n || nominal.Dim() != dim) {
		return fmt.Errorf("%w: nominal trajectory is %dx%d, want %dx%d", dynamo.ErrDimensionMismatch, nominal.Len(), nominal.Dim(), n, dim)
	}
	if p.Linearizer == nil {
		return fmt.Errorf("%w: no linearization method", dynamo.ErrPrecondition)
	}
	return nil
}

// Criterion decides whether iterated smoothing runs another iteration.
// i counts completed iterations, starting at 1.
type Criterion func(i int, prev, curr *gauss.Trajectory) bool
