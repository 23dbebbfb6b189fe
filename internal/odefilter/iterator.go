package odefilter

import (
	"context"

	"github.com/san-kum/odefilter/internal/dynamo"
	"github.com/san-kum/odefilter/internal/gauss"
	"github.com/san-kum/odefilter/internal/smoother"
	"go.uber.org/zap"
)

// Iterator exposes the refinement loop of iterated smoothing so callers
// can drive it, inspect intermediate iterates, or warm start it.
type Iterator struct {
	model   *Model
	ivp     dynamo.IVP
	times   []float64
	x0      gauss.MVNSqrt
	problem *smoother.Problem
	proj    Projector
	logger  *zap.Logger
}

type IteratorOption func(*Options)

func WithLinearization(lin smoother.Linearizer) IteratorOption {
	return func(o *Options) { o.Linearization = lin }
}

func WithInit(mode InitMode, variance float64) IteratorOption {
	return func(o *Options) {
		o.Init = mode
		o.InitVariance = variance
	}
}

func WithObservationNoise(sd float64) IteratorOption {
	return func(o *Options) { o.ObservationNoise = sd }
}

func WithLogger(l *zap.Logger) IteratorOption {
	return func(o *Options) { o.Logger = l }
}

// NewIterator prepares the model, grid and initial belief for ivp.
func NewIterator(ivp *dynamo.IVP, order int, dt, diffusion float64, parallel bool, opts ...IteratorOption) (*Iterator, error) {
	o := DefaultOptions()
	o.Order = order
	o.Dt = dt
	o.Diffusion = diffusion
	o.Parallel = parallel
	o.Method = IteratedSmoothing{Convergence: AutoConvergence{Tol: DefaultTolerance}}
	for _, opt := range opts {
		opt(&o)
	}
	o.withDefaults()
	if err := o.validate(); err != nil {
		return nil, err
	}
	if err := ivp.Validate(); err != nil {
		return nil, err
	}

	times, err := dynamo.Grid(ivp.T0, ivp.TMax, dt)
	if err != nil {
		return nil, err
	}
	model, err := BuildModel(ivp.System, ivp.Dim(), order, dt, diffusion, o.ObservationNoise)
	if err != nil {
		return nil, err
	}
	x0, mode, err := initialBelief(ivp, o)
	if err != nil {
		return nil, err
	}
	x0 = model.PreconditionBelief(x0)

	o.Logger.Debug("iterator",
		zap.Int("order", order),
		zap.Int("grid_points", len(times)),
		zap.Stringer("init", mode),
		zap.Bool("parallel", parallel),
	)

	return &Iterator{
		model:   model,
		ivp:     *ivp,
		times:   times,
		x0:      x0,
		problem: model.Problem(times, x0, o.Linearization, parallel),
		proj:    model.Projector(),
		logger:  o.Logger,
	}, nil
}

func (it *Iterator) Times() []float64 {
	out := make([]float64, len(it.times))
	copy(out, it.times)
	return out
}

func (it *Iterator) Model() *Model {
	return it.model
}

// Initial returns the preconditioned initial mean broadcast over the grid
// with zero covariance factors.
func (it *Iterator) Initial() *gauss.Trajectory {
	return gauss.NewConstant(it.x0.Mean, len(it.times))
}

// WarmStart builds a nominal trajectory from solution values on the grid,
// for example a reference integrator's output. First derivatives come from
// the vector field, higher ones are zero.
func (it *Iterator) WarmStart(values []dynamo.State) (*gauss.Trajectory, error) {
	states, err := InitialTrajectory(it.ivp.System, TrajectorySeed{
		Values: values,
		Times:  it.Times(),
	}, it.model.Prior.Order(), true)
	if err != nil {
		return nil, err
	}
	return it.model.Precondition(states)
}

// Refine runs one filter-smoother pass linearised at traj.
func (it *Iterator) Refine(traj *gauss.Trajectory) (*gauss.Trajectory, error) {
	return smoother.FilterSmooth(it.problem, traj)
}

// Run drives Refine from the initial trajectory until conv says stop and
// returns the last iterate with the per-iteration mean squared differences.
func (it *Iterator) Run(ctx context.Context, conv Convergence) (*gauss.Trajectory, []float64, error) {
	r := &Refiner{
		Model:      it.model,
		Method:     IteratedSmoothing{Convergence: conv},
		Linearizer: it.problem.Linearizer,
		Parallel:   it.problem.Parallel,
		Logger:     it.logger,
	}
	traj, err := r.Run(ctx, it.times, it.x0)
	return traj, r.Residuals, err
}

// Project returns the solution means of traj.
func (it *Iterator) Project(traj *gauss.Trajectory) []dynamo.State {
	return it.proj.Project(traj)
}

// StdDev returns the marginal solution standard deviations of traj.
func (it *Iterator) StdDev(traj *gauss.Trajectory) []dynamo.State {
	return it.proj.StdDev(traj)
}
