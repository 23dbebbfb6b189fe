package odefilter

import (
	"fmt"
	"math"

	"github.com/san-kum/odefilter/internal/dynamo"
	"github.com/san-kum/odefilter/internal/gauss"
	"github.com/san-kum/odefilter/internal/iwp"
	"github.com/san-kum/odefilter/internal/smoother"
	"github.com/san-kum/odefilter/internal/taylor"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
)

// Model is the state-space model of one solve, in preconditioned
// coordinates.
type Model struct {
	Prior *iwp.Transition
	Dt    float64

	// P maps preconditioned to plain Nordsieck coordinates, PInv the reverse.
	P, PInv *mat.DiagDense
	// E0 and E1 extract the solution and its derivative from a
	// preconditioned state.
	E0, E1 *mat.Dense

	Transition  smoother.TransitionModel
	Observation smoother.ObservationModel
}

// BuildModel assembles the prior transition and the ODE constraint for a
// d-dimensional system. The process noise factor is scaled by √diffusion;
// obsNoise is the standard deviation of the constraint noise.
func BuildModel(sys dynamo.System, dim, order int, dt, diffusion, obsNoise float64) (*Model, error) {
	if sys == nil {
		return nil, fmt.Errorf("%w: no vector field", dynamo.ErrPrecondition)
	}
	if !(dt > 0) || math.IsInf(dt, 0) {
		return nil, fmt.Errorf("%w: dt must be positive, got %g", dynamo.ErrParameterBounds, dt)
	}
	if !(diffusion > 0) || math.IsInf(diffusion, 0) {
		return nil, fmt.Errorf("%w: diffusion must be positive, got %g", dynamo.ErrParameterBounds, diffusion)
	}
	if obsNoise < 0 || math.IsNaN(obsNoise) {
		return nil, fmt.Errorf("%w: observation noise must be non-negative, got %g", dynamo.ErrParameterBounds, obsNoise)
	}

	prior, err := iwp.New(order, dim)
	if err != nil {
		return nil, err
	}

	p, pInv := prior.Preconditioner(dt)
	e0 := &mat.Dense{}
	e0.Mul(prior.Projection(0), p)
	e1 := &mat.Dense{}
	e1.Mul(prior.Projection(1), p)

	a, ql := prior.PreconditionedDiscretize()
	ql.Scale(math.Sqrt(diffusion), ql)

	n := prior.StateDim()
	noise := mat.NewDense(dim, dim, nil)
	for i := 0; i < dim; i++ {
		noise.Set(i, i, obsNoise)
	}

	m := &Model{
		Prior: prior,
		Dt:    dt,
		P:     p,
		PInv:  pInv,
		E0:    e0,
		E1:    e1,
		Transition: smoother.TransitionModel{
			A:           a,
			Offset:      mat.NewVecDense(n, nil),
			NoiseFactor: ql,
		},
		Observation: smoother.ObservationModel{
			Offset:      mat.NewVecDense(dim, nil),
			NoiseFactor: noise,
		},
	}
	m.Observation.Func = m.residual(sys)
	if field := dynamo.SeriesField(sys); field != nil {
		m.Observation.Jacobian = m.residualJacobian(func(t float64, y []float64) (*mat.Dense, error) {
			return taylor.Jacobian(field, t, y)
		})
	} else {
		m.Observation.Jacobian = m.residualJacobian(numericJacobian(sys, dim))
	}
	return m, nil
}

// residual returns x -> E1·x - f(t, E0·x).
func (m *Model) residual(sys dynamo.System) func(float64, mat.Vector) *mat.VecDense {
	d, _ := m.E0.Dims()
	return func(t float64, x mat.Vector) *mat.VecDense {
		var y mat.VecDense
		y.MulVec(m.E0, x)

		out := mat.NewVecDense(d, nil)
		out.MulVec(m.E1, x)

		f := sys.Derive(t, dynamo.State(y.RawVector().Data))
		for i := 0; i < d; i++ {
			v := math.NaN()
			if i < len(f) {
				v = f[i]
			}
			out.SetVec(i, out.AtVec(i)-v)
		}
		return out
	}
}

// residualJacobian returns x -> E1 - J_f(E0·x)·E0.
func (m *Model) residualJacobian(jac func(t float64, y []float64) (*mat.Dense, error)) func(float64, mat.Vector) (*mat.Dense, error) {
	return func(t float64, x mat.Vector) (*mat.Dense, error) {
		var y mat.VecDense
		y.MulVec(m.E0, x)

		jf, err := jac(t, y.RawVector().Data)
		if err != nil {
			return nil, err
		}

		var je mat.Dense
		je.Mul(jf, m.E0)
		out := mat.DenseCopyOf(m.E1)
		out.Sub(out, &je)
		return out, nil
	}
}

// numericJacobian differentiates f by central differences in solution
// coordinates, where the step size is well scaled.
func numericJacobian(sys dynamo.System, dim int) func(float64, []float64) (*mat.Dense, error) {
	return func(t float64, y []float64) (*mat.Dense, error) {
		jf := mat.NewDense(dim, dim, nil)
		f := func(dst, x []float64) {
			out := sys.Derive(t, dynamo.State(x))
			for i := range dst {
				dst[i] = math.NaN()
				if i < len(out) {
					dst[i] = out[i]
				}
			}
		}
		fd.Jacobian(jf, f, y, &fd.JacobianSettings{Formula: fd.Central})
		for i := 0; i < dim; i++ {
			for j := 0; j < dim; j++ {
				if v := jf.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
					return nil, fmt.Errorf("vector field jacobian: %w", dynamo.ErrInvalidState)
				}
			}
		}
		return jf, nil
	}
}

// Observations returns the n-1 zero pseudo-observations of an n-point grid.
func (m *Model) Observations(n int) []*mat.VecDense {
	d, _ := m.E0.Dims()
	obs := make([]*mat.VecDense, n-1)
	for i := range obs {
		obs[i] = mat.NewVecDense(d, nil)
	}
	return obs
}

// PreconditionBelief maps a belief from plain Nordsieck coordinates into
// preconditioned ones.
func (m *Model) PreconditionBelief(b gauss.MVNSqrt) gauss.MVNSqrt {
	mean := mat.NewVecDense(b.Dim(), nil)
	mean.MulVec(m.PInv, b.Mean)
	chol := &mat.Dense{}
	chol.Mul(m.PInv, b.Chol)
	return gauss.MVNSqrt{Mean: mean, Chol: chol}
}

// Precondition maps an unpreconditioned N×D trajectory, such as the output
// of InitialTrajectory, to a nominal trajectory with zero covariance.
func (m *Model) Precondition(states *mat.Dense) (*gauss.Trajectory, error) {
	if _, c := states.Dims(); c != m.Prior.StateDim() {
		return nil, fmt.Errorf("%w: trajectory has %d columns, model state has %d", dynamo.ErrDimensionMismatch, c, m.Prior.StateDim())
	}
	means := &mat.Dense{}
	means.Mul(states, m.PInv)
	return gauss.FromMeans(means), nil
}

// Problem wires the model into a smoothing problem over times.
func (m *Model) Problem(times []float64, x0 gauss.MVNSqrt, lin smoother.Linearizer, parallel bool) *smoother.Problem {
	return &smoother.Problem{
		Times:        times,
		Observations: m.Observations(len(times)),
		X0:           x0,
		Transition:   m.Transition,
		Observation:  m.Observation,
		Linearizer:   lin,
		Parallel:     parallel,
	}
}
