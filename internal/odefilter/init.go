package odefilter

import (
	"fmt"
	"math"

	"github.com/san-kum/odefilter/internal/dynamo"
	"github.com/san-kum/odefilter/internal/gauss"
	"github.com/san-kum/odefilter/internal/taylor"
	"gonum.org/v1/gonum/mat"
)

// TaylorModeInit returns the exact initial belief over y(t0) and its first
// order derivatives, in Nordsieck layout (index j·(order+1)+k holds
// derivative k of component j). The covariance factor is zero.
func TaylorModeInit(sys dynamo.SeriesSystem, t0 float64, y0 dynamo.State, order int) (gauss.MVNSqrt, error) {
	if err := checkInit(sys, y0, order); err != nil {
		return gauss.MVNSqrt{}, err
	}

	res, err := taylor.Mode{}.Compute(sys.DeriveSeries, t0, y0, order)
	if err != nil {
		return gauss.MVNSqrt{}, fmt.Errorf("taylor mode: %w", err)
	}

	d, q := len(y0), order
	mean := mat.NewVecDense(d*(q+1), nil)
	for j := 0; j < d; j++ {
		for k := 0; k <= q; k++ {
			mean.SetVec(j*(q+1)+k, res.Mean[k][j])
		}
		mean.SetVec(j*(q+1), y0[j])
	}
	if !isFinite(mean) {
		return gauss.MVNSqrt{}, fmt.Errorf("taylor mode coefficients: %w", dynamo.ErrInvalidState)
	}

	// I_d ⊗ chol(P0); Taylor mode is exact so P0 = 0.
	chol := mat.NewDense(d*(q+1), d*(q+1), nil)
	return gauss.MVNSqrt{Mean: mean, Chol: chol}, nil
}

// UncertainInit pins y(t0) and y'(t0) = f(t0, y0) and places independent
// zero-mean beliefs of the given variance on the higher derivatives. It is
// cheap but inexact; with order ≥ 2 it needs iterated refinement to correct
// the higher derivatives.
func UncertainInit(sys dynamo.System, t0 float64, y0 dynamo.State, order int, variance float64) (gauss.MVNSqrt, error) {
	if err := checkInit(sys, y0, order); err != nil {
		return gauss.MVNSqrt{}, err
	}
	if variance < 0 || math.IsNaN(variance) {
		return gauss.MVNSqrt{}, fmt.Errorf("%w: variance must be non-negative, got %g", dynamo.ErrParameterBounds, variance)
	}

	dy0 := sys.Derive(t0, y0)
	if len(dy0) != len(y0) {
		return gauss.MVNSqrt{}, fmt.Errorf("%w: field returned %d components for %d-dimensional state", dynamo.ErrDimensionMismatch, len(dy0), len(y0))
	}
	if !dy0.IsValid() {
		return gauss.MVNSqrt{}, fmt.Errorf("initial derivative: %w", dynamo.ErrInvalidState)
	}

	d, q := len(y0), order
	n := d * (q + 1)
	mean := mat.NewVecDense(n, nil)
	chol := mat.NewDense(n, n, nil)
	sd := math.Sqrt(variance)
	for j := 0; j < d; j++ {
		mean.SetVec(j*(q+1), y0[j])
		mean.SetVec(j*(q+1)+1, dy0[j])
		for k := 2; k <= q; k++ {
			chol.Set(j*(q+1)+k, j*(q+1)+k, sd)
		}
	}
	return gauss.MVNSqrt{Mean: mean, Chol: chol}, nil
}

// TrajectorySeed is the input of InitialTrajectory. Exactly one of two
// forms is valid: a single Value broadcast over N > 0 points, or a sequence
// Values with N left zero. Times, when given, holds the time of each entry
// of Values; otherwise every point is evaluated at T0.
type TrajectorySeed struct {
	Value  dynamo.State
	N      int
	Values []dynamo.State
	Times  []float64
	T0     float64
}

// InitialTrajectory builds an unpreconditioned N×d·(order+1) nominal
// trajectory in Nordsieck layout: values from the seed, first derivatives
// from the vector field (or zero when withDerivative is false), higher
// derivatives zero.
func InitialTrajectory(sys dynamo.System, seed TrajectorySeed, order int, withDerivative bool) (*mat.Dense, error) {
	if order < 1 {
		return nil, fmt.Errorf("%w: order must be at least 1, got %d", dynamo.ErrParameterBounds, order)
	}

	switch {
	case seed.Values == nil && seed.Value != nil && seed.N > 0:
		return broadcastTrajectory(sys, seed, order, withDerivative)
	case seed.Values != nil && seed.Value == nil && seed.N == 0:
		return sequenceTrajectory(sys, seed, order, withDerivative)
	case seed.Values != nil && seed.N != 0:
		return nil, fmt.Errorf("%w: N must be omitted for a sequence of values", dynamo.ErrPrecondition)
	case seed.Value != nil && seed.N <= 0:
		return nil, fmt.Errorf("%w: N must be positive for a single value, got %d", dynamo.ErrPrecondition, seed.N)
	default:
		return nil, fmt.Errorf("%w: seed needs exactly one of Value or Values", dynamo.ErrPrecondition)
	}
}

func broadcastTrajectory(sys dynamo.System, seed TrajectorySeed, order int, withDerivative bool) (*mat.Dense, error) {
	d := len(seed.Value)
	if d == 0 {
		return nil, fmt.Errorf("%w: empty value", dynamo.ErrDimensionMismatch)
	}

	var dy dynamo.State
	if withDerivative {
		if sys == nil {
			return nil, fmt.Errorf("%w: derivatives requested without a vector field", dynamo.ErrPrecondition)
		}
		dy = sys.Derive(seed.T0, seed.Value)
		if len(dy) != d {
			return nil, fmt.Errorf("%w: field returned %d components for %d-dimensional state", dynamo.ErrDimensionMismatch, len(dy), d)
		}
	}

	row := nordsieckRow(seed.Value, dy, order)
	out := mat.NewDense(seed.N, len(row), nil)
	for i := 0; i < seed.N; i++ {
		out.SetRow(i, row)
	}
	return out, nil
}

func sequenceTrajectory(sys dynamo.System, seed TrajectorySeed, order int, withDerivative bool) (*mat.Dense, error) {
	n := len(seed.Values)
	if n == 0 {
		return nil, fmt.Errorf("%w: empty sequence of values", dynamo.ErrPrecondition)
	}
	if seed.Times != nil && len(seed.Times) != n {
		return nil, fmt.Errorf("%w: %d times for %d values", dynamo.ErrDimensionMismatch, len(seed.Times), n)
	}
	d := len(seed.Values[0])
	for i, v := range seed.Values {
		if len(v) != d {
			return nil, fmt.Errorf("%w: value %d has %d components, want %d", dynamo.ErrDimensionMismatch, i, len(v), d)
		}
	}
	if withDerivative && sys == nil {
		return nil, fmt.Errorf("%w: derivatives requested without a vector field", dynamo.ErrPrecondition)
	}

	out := mat.NewDense(n, d*(order+1), nil)
	errs := make([]error, n)

	dynamo.ParallelFor(n, 64, func(start, end int) {
		for i := start; i < end; i++ {
			var dy dynamo.State
			if withDerivative {
				t := seed.T0
				if seed.Times != nil {
					t = seed.Times[i]
				}
				dy = sys.Derive(t, seed.Values[i])
				if len(dy) != d {
					errs[i] = fmt.Errorf("%w: field returned %d components at point %d", dynamo.ErrDimensionMismatch, len(dy), i)
					continue
				}
			}
			out.SetRow(i, nordsieckRow(seed.Values[i], dy, order))
		}
	})

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// nordsieckRow interleaves value and derivative per component; a nil dy
// leaves the derivatives zero.
func nordsieckRow(y, dy dynamo.State, order int) []float64 {
	row := make([]float64, len(y)*(order+1))
	for j := range y {
		row[j*(order+1)] = y[j]
		if dy != nil {
			row[j*(order+1)+1] = dy[j]
		}
	}
	return row
}

func checkInit(sys dynamo.System, y0 dynamo.State, order int) error {
	if sys == nil {
		return fmt.Errorf("%w: no vector field", dynamo.ErrPrecondition)
	}
	if order < 1 {
		return fmt.Errorf("%w: order must be at least 1, got %d", dynamo.ErrParameterBounds, order)
	}
	if len(y0) == 0 {
		return fmt.Errorf("%w: empty initial value", dynamo.ErrDimensionMismatch)
	}
	if !y0.IsValid() {
		return fmt.Errorf("initial value: %w", dynamo.ErrInvalidState)
	}
	return nil
}

func isFinite(v mat.Vector) bool {
	for i := 0; i < v.Len(); i++ {
		x := v.AtVec(i)
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
