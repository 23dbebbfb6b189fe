package taylor

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ErrFieldShape indicates a Field returned the wrong number of components
// or series of the wrong length.
var ErrFieldShape = errors.New("taylor: field returned malformed series")

// Result holds the Taylor-mode initial belief over the solution derivatives.
type Result struct {
	// Mean[k][i] is the k-th time derivative of component i at t0.
	Mean [][]float64
	// Cov is the (num+1)x(num+1) covariance shared by every component.
	// Taylor mode is exact, so it is zero.
	Cov *mat.SymDense
}

// Mode computes solution derivatives by Taylor-mode propagation: with the
// first k+1 coefficients known, evaluating the field on the truncated series
// yields coefficient k+1 as [f(t0+τ, y(τ))]_k / (k+1).
type Mode struct{}

func (Mode) Compute(f Field, t0 float64, y0 []float64, num int) (Result, error) {
	if num < 0 {
		return Result{}, fmt.Errorf("taylor: negative derivative count %d", num)
	}
	d := len(y0)

	coeffs := make([][]float64, num+1)
	coeffs[0] = append([]float64(nil), y0...)

	for k := 0; k < num; k++ {
		n := k + 1
		ys := make([]Series, d)
		for i := 0; i < d; i++ {
			s := make(Series, n)
			for j := 0; j < n; j++ {
				s[j] = coeffs[j][i]
			}
			ys[i] = s
		}

		out := f(Variable(t0, n), ys)
		if len(out) != d {
			return Result{}, fmt.Errorf("%w: got %d components, want %d", ErrFieldShape, len(out), d)
		}

		next := make([]float64, d)
		for i, s := range out {
			if len(s) < n {
				return Result{}, fmt.Errorf("%w: component %d has %d coefficients, want %d", ErrFieldShape, i, len(s), n)
			}
			next[i] = s[k] / float64(k+1)
		}
		coeffs[k+1] = next
	}

	mean := make([][]float64, num+1)
	fact := 1.0
	for k := range coeffs {
		if k > 0 {
			fact *= float64(k)
		}
		row := make([]float64, d)
		for i, c := range coeffs[k] {
			row[i] = fact * c
		}
		mean[k] = row
	}

	return Result{Mean: mean, Cov: mat.NewSymDense(num+1, nil)}, nil
}

// Jacobian returns df/dy at (t, y) by forward-mode differentiation: each
// column seeds one component with a unit first-order coefficient.
func Jacobian(f Field, t float64, y []float64) (*mat.Dense, error) {
	d := len(y)
	jac := mat.NewDense(d, d, nil)
	ts := Const(t, 2)

	for j := 0; j < d; j++ {
		ys := make([]Series, d)
		for i := range ys {
			ys[i] = Const(y[i], 2)
		}
		ys[j][1] = 1

		out := f(ts, ys)
		if len(out) != d {
			return nil, fmt.Errorf("%w: got %d components, want %d", ErrFieldShape, len(out), d)
		}
		for i, s := range out {
			jac.Set(i, j, coef(s, 1))
		}
	}
	return jac, nil
}
