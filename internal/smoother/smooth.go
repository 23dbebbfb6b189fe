package smoother

import (
	"github.com/san-kum/odefilter/internal/dynamo"
	"github.com/san-kum/odefilter/internal/gauss"
	"gonum.org/v1/gonum/mat"
)

// FilterSmooth runs Filter followed by a square-root Rauch–Tung–Striebel
// backward pass.
func FilterSmooth(p *Problem, nominal *gauss.Trajectory) (*gauss.Trajectory, error) {
	filtered, err := Filter(p, nominal)
	if err != nil {
		return nil, err
	}
	return smooth(p, filtered)
}

func smooth(p *Problem, filtered *gauss.Trajectory) (*gauss.Trajectory, error) {
	n := filtered.Len()
	out := filtered.Clone()

	next := filtered.At(n - 1)
	for k := n - 2; k >= 0; k-- {
		s, err := smoothStep(filtered.At(k), next, p.Transition)
		if err != nil {
			return nil, &dynamo.SolveError{Step: k, Time: p.Times[k], Wrapped: err}
		}
		if !s.IsFinite() {
			return nil, &dynamo.SolveError{Step: k, Time: p.Times[k], Wrapped: dynamo.ErrInvalidState}
		}
		out.Set(k, s)
		next = s
	}
	return out, nil
}

// smoothStep combines a filtered belief with the smoothed belief one step
// ahead:
//
//	Φ = Tria([[A·Lf, QL], [Lf, 0]])
//	G = Φ21·Φ11⁻¹, m = mf + G·(ms - A·mf - b), L = Tria([Φ22, G·Ls])
func smoothStep(f, next gauss.MVNSqrt, tr TransitionModel) (gauss.MVNSqrt, error) {
	n := f.Dim()

	var al mat.Dense
	al.Mul(tr.A, f.Chol)

	stack := mat.NewDense(2*n, 2*n, nil)
	stack.Slice(0, n, 0, n).(*mat.Dense).Copy(&al)
	stack.Slice(0, n, n, 2*n).(*mat.Dense).Copy(tr.NoiseFactor)
	stack.Slice(n, 2*n, 0, n).(*mat.Dense).Copy(f.Chol)

	phi := gauss.Tria(stack)
	phi11, phi21, phi22 := gauss.Blocks(phi, n)

	gain, err := rightDivide(phi21, phi11)
	if err != nil {
		return gauss.MVNSqrt{}, err
	}

	diff := mat.VecDenseCopyOf(next.Mean)
	var am mat.VecDense
	am.MulVec(tr.A, f.Mean)
	diff.SubVec(diff, &am)
	if tr.Offset != nil {
		diff.SubVec(diff, tr.Offset)
	}

	mean := mat.VecDenseCopyOf(f.Mean)
	var corr mat.VecDense
	corr.MulVec(gain, diff)
	mean.AddVec(mean, &corr)

	var gl, aug mat.Dense
	gl.Mul(gain, next.Chol)
	aug.Augment(phi22, &gl)

	return gauss.MVNSqrt{Mean: mean, Chol: gauss.Tria(&aug)}, nil
}
