package smoother

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/odefilter/internal/dynamo"
	"github.com/san-kum/odefilter/internal/gauss"
	"gonum.org/v1/gonum/mat"
)

// Filter runs the square-root filter forward over p.Times. Entry 0 of the
// result is p.X0; entry k > 0 conditions on Observations[k-1]. When nominal
// is nil the observation is linearised at each predicted belief, otherwise
// at the matching nominal belief.
func Filter(p *Problem, nominal *gauss.Trajectory) (*gauss.Trajectory, error) {
	if err := p.validate(nominal); err != nil {
		return nil, err
	}

	n := len(p.Times)
	out := gauss.NewTrajectory(n, p.X0.Dim())
	out.Set(0, p.X0)

	var lins []Linearized
	if nominal != nil {
		var err error
		lins, err = linearizeAll(p, nominal)
		if err != nil {
			return nil, err
		}
	}

	curr := p.X0
	for k := 1; k < n; k++ {
		pred := predict(curr, p.Transition)

		var lin Linearized
		if lins != nil {
			lin = lins[k-1]
		} else {
			var err error
			lin, err = p.Linearizer.Linearize(p.Observation, p.Times[k], pred)
			if err != nil {
				return nil, &dynamo.SolveError{Step: k, Time: p.Times[k], Wrapped: err}
			}
		}

		next, err := update(pred, lin, p.Observations[k-1])
		if err != nil {
			return nil, &dynamo.SolveError{Step: k, Time: p.Times[k], Wrapped: err}
		}
		if !next.IsFinite() {
			return nil, &dynamo.SolveError{Step: k, Time: p.Times[k], Wrapped: dynamo.ErrInvalidState}
		}

		out.Set(k, next)
		curr = next
	}
	return out, nil
}

// linearizeAll linearises the observation at nominal[1:]. The entries are
// independent, so in parallel mode they are computed concurrently.
func linearizeAll(p *Problem, nominal *gauss.Trajectory) ([]Linearized, error) {
	n := len(p.Times) - 1
	lins := make([]Linearized, n)
	errs := make([]error, n)

	work := func(start, end int) {
		for i := start; i < end; i++ {
			lins[i], errs[i] = p.Linearizer.Linearize(p.Observation, p.Times[i+1], nominal.At(i+1))
		}
	}
	if p.Parallel {
		dynamo.ParallelFor(n, 16, work)
	} else {
		work(0, n)
	}

	for i, err := range errs {
		if err != nil {
			return nil, &dynamo.SolveError{Step: i + 1, Time: p.Times[i+1], Wrapped: err}
		}
	}
	return lins, nil
}

// predict pushes a belief through the transition:
// m⁻ = A·m + b, L⁻ = Tria([A·L, QL]).
func predict(x gauss.MVNSqrt, tr TransitionModel) gauss.MVNSqrt {
	mean := mat.NewVecDense(x.Dim(), nil)
	mean.MulVec(tr.A, x.Mean)
	if tr.Offset != nil {
		mean.AddVec(mean, tr.Offset)
	}

	var al mat.Dense
	al.Mul(tr.A, x.Chol)
	var aug mat.Dense
	aug.Augment(&al, tr.NoiseFactor)

	return gauss.MVNSqrt{Mean: mean, Chol: gauss.Tria(&aug)}
}

// update conditions a predicted belief on y under y = H·x + C + e:
//
//	Ψ = Tria([[H·L⁻, RL], [L⁻, 0]])
//	K = Ψ21·Ψ11⁻¹, m = m⁻ + K·(y - H·m⁻ - C), L = Ψ22
func update(pred gauss.MVNSqrt, lin Linearized, y mat.Vector) (gauss.MVNSqrt, error) {
	n := pred.Dim()
	dy, _ := lin.H.Dims()

	var hl mat.Dense
	hl.Mul(lin.H, pred.Chol)

	stack := mat.NewDense(dy+n, n+dy, nil)
	stack.Slice(0, dy, 0, n).(*mat.Dense).Copy(&hl)
	stack.Slice(0, dy, n, n+dy).(*mat.Dense).Copy(lin.NoiseFactor)
	stack.Slice(dy, dy+n, 0, n).(*mat.Dense).Copy(pred.Chol)

	psi := gauss.Tria(stack)
	psi11, psi21, psi22 := gauss.Blocks(psi, dy)

	gain, err := rightDivide(psi21, psi11)
	if err != nil {
		return gauss.MVNSqrt{}, err
	}

	resid := mat.VecDenseCopyOf(y)
	var hm mat.VecDense
	hm.MulVec(lin.H, pred.Mean)
	resid.SubVec(resid, &hm)
	resid.SubVec(resid, lin.C)

	mean := mat.VecDenseCopyOf(pred.Mean)
	var corr mat.VecDense
	corr.MulVec(gain, resid)
	mean.AddVec(mean, &corr)

	return gauss.MVNSqrt{Mean: mean, Chol: psi22}, nil
}

// rightDivide returns b·a⁻¹ for square a, solved as aᵀ·xᵀ = bᵀ. A poorly
// conditioned a is accepted as long as the result stays finite.
func rightDivide(b, a *mat.Dense) (*mat.Dense, error) {
	var xt mat.Dense
	if err := xt.Solve(a.T(), b.T()); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) || math.IsInf(float64(cond), 0) || xt.IsEmpty() || !finite(&xt) {
			return nil, fmt.Errorf("%w: %v", dynamo.ErrSingular, err)
		}
	}
	return mat.DenseCopyOf(xt.T()), nil
}
