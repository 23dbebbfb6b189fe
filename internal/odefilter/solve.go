package odefilter

import (
	"context"
	"fmt"

	"github.com/san-kum/odefilter/internal/dynamo"
	"github.com/san-kum/odefilter/internal/gauss"
	"go.uber.org/zap"
)

// Solution is the outcome of a solve on a fixed grid.
type Solution struct {
	Times  []float64
	Values []dynamo.State
	// Derivatives holds the posterior mean of y'.
	Derivatives []dynamo.State
	StdDev      []dynamo.State

	// Trajectory is the full posterior in preconditioned coordinates.
	Trajectory *gauss.Trajectory
	Method     string
	Iterations int
	Residuals  []float64
}

// Solve integrates y' = f(t, y), y(0) = y0 on the grid 0, dt, ..., up to
// the first point at or beyond T.
func Solve(sys dynamo.System, y0 dynamo.State, T float64, opts Options) (*Solution, error) {
	return SolveIVP(&dynamo.IVP{System: sys, T0: 0, TMax: T, Y0: y0}, opts)
}

// SolveIVP is Solve on an IVP descriptor; the grid starts at ivp.T0.
func SolveIVP(ivp *dynamo.IVP, opts Options) (*Solution, error) {
	return SolveContext(context.Background(), ivp, opts)
}

// SolveContext is SolveIVP with cancellation between refinement iterations.
func SolveContext(ctx context.Context, ivp *dynamo.IVP, opts Options) (*Solution, error) {
	opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if err := ivp.Validate(); err != nil {
		return nil, err
	}

	times, err := dynamo.Grid(ivp.T0, ivp.TMax, opts.Dt)
	if err != nil {
		return nil, err
	}

	model, err := BuildModel(ivp.System, ivp.Dim(), opts.Order, opts.Dt, opts.Diffusion, opts.ObservationNoise)
	if err != nil {
		return nil, err
	}

	x0, mode, err := initialBelief(ivp, opts)
	if err != nil {
		return nil, err
	}

	opts.Logger.Debug("solve",
		zap.Stringer("method", opts.Method),
		zap.Int("order", opts.Order),
		zap.Int("grid_points", len(times)),
		zap.Int("dim", ivp.Dim()),
		zap.Stringer("init", mode),
		zap.Bool("parallel", opts.Parallel),
	)

	r := &Refiner{
		Model:      model,
		Method:     opts.Method,
		Linearizer: opts.Linearization,
		Parallel:   opts.Parallel,
		Logger:     opts.Logger,
	}
	traj, err := r.Run(ctx, times, model.PreconditionBelief(x0))
	if err != nil {
		return nil, fmt.Errorf("%s solve: %w", opts.Method, err)
	}

	proj := model.Projector()
	return &Solution{
		Times:       times,
		Values:      proj.Project(traj),
		Derivatives: proj.ProjectDerivative(traj),
		StdDev:      proj.StdDev(traj),
		Trajectory:  traj,
		Method:      opts.Method.String(),
		Iterations:  r.Iterations,
		Residuals:   r.Residuals,
	}, nil
}

// initialBelief resolves the init mode and returns the unpreconditioned
// initial belief.
func initialBelief(ivp *dynamo.IVP, opts Options) (gauss.MVNSqrt, InitMode, error) {
	mode := opts.Init
	series, hasSeries := ivp.System.(dynamo.SeriesSystem)
	if mode == InitAuto {
		mode = InitUncertain
		if hasSeries {
			mode = InitTaylor
		}
	}

	switch mode {
	case InitTaylor:
		if !hasSeries {
			return gauss.MVNSqrt{}, mode, fmt.Errorf("taylor init of %T: %w", ivp.System, dynamo.ErrNoSeries)
		}
		x0, err := TaylorModeInit(series, ivp.T0, ivp.Y0, opts.Order)
		return x0, mode, err
	case InitUncertain:
		if opts.Order >= 2 && singlePass(opts.Method) {
			return gauss.MVNSqrt{}, mode, fmt.Errorf("%w: uncertain init at order %d needs iterated smoothing, not %s",
				dynamo.ErrPrecondition, opts.Order, opts.Method)
		}
		x0, err := UncertainInit(ivp.System, ivp.T0, ivp.Y0, opts.Order, opts.InitVariance)
		return x0, mode, err
	default:
		return gauss.MVNSqrt{}, mode, fmt.Errorf("%w: init mode %v", dynamo.ErrUnsupportedMethod, mode)
	}
}
