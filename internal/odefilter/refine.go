package odefilter

import (
	"context"
	"fmt"

	"github.com/san-kum/odefilter/internal/dynamo"
	"github.com/san-kum/odefilter/internal/gauss"
	"github.com/san-kum/odefilter/internal/smoother"
	"go.uber.org/zap"
)

// Refiner runs one Method against a Model and records how the refinement
// went. A Refiner is not safe for concurrent use.
type Refiner struct {
	Model      *Model
	Method     Method
	Linearizer smoother.Linearizer
	Parallel   bool
	Logger     *zap.Logger

	// Iterations is the number of engine calls of the last Run.
	Iterations int
	// Residuals holds, for iterated smoothing, the mean squared difference
	// between each iterate and its predecessor.
	Residuals []float64
}

// Run estimates the trajectory over times from the preconditioned initial
// belief x0. Engine errors end the run; they are not retried.
func (r *Refiner) Run(ctx context.Context, times []float64, x0 gauss.MVNSqrt) (*gauss.Trajectory, error) {
	if err := validateMethod(r.Method); err != nil {
		return nil, err
	}
	log := r.Logger
	if log == nil {
		log = zap.NewNop()
	}
	lin := r.Linearizer
	if lin == nil {
		lin = smoother.Extended{}
	}

	r.Iterations = 0
	r.Residuals = nil
	p := r.Model.Problem(times, x0, lin, r.Parallel)

	switch m := r.Method.(type) {
	case Filtering:
		r.Iterations = 1
		return smoother.Filter(p, nil)
	case Smoothing:
		r.Iterations = 1
		return smoother.FilterSmooth(p, nil)
	case IteratedSmoothing:
		return r.iterate(ctx, p, m.Convergence, log)
	default:
		return nil, fmt.Errorf("%w: %T", dynamo.ErrUnsupportedMethod, m)
	}
}

func (r *Refiner) iterate(ctx context.Context, p *smoother.Problem, conv Convergence, log *zap.Logger) (*gauss.Trajectory, error) {
	init := gauss.NewConstant(p.X0.Mean, len(p.Times))

	var ctxErr error
	crit := func(i int, prev, curr *gauss.Trajectory) bool {
		r.Iterations = i
		mse, err := curr.MeanSquaredDiff(prev)
		if err != nil {
			ctxErr = err
			return false
		}
		r.Residuals = append(r.Residuals, mse)
		log.Debug("iteration", zap.Int("iteration", i), zap.Float64("mse", mse))

		if err := ctx.Err(); err != nil {
			ctxErr = err
			return false
		}
		switch c := conv.(type) {
		case FixedIterations:
			return i < c.N
		case AutoConvergence:
			if mse <= c.tol() {
				return false
			}
			if c.MaxIter > 0 && i >= c.MaxIter {
				log.Warn("iteration cap reached before convergence",
					zap.Int("max_iter", c.MaxIter), zap.Float64("mse", mse), zap.Float64("tol", c.tol()))
				return false
			}
			return true
		}
		return false
	}

	out, err := smoother.IteratedSmooth(p, init, crit)
	if err != nil {
		return nil, err
	}
	if ctxErr != nil {
		return nil, ctxErr
	}
	return out, nil
}
