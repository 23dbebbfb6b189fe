// Package gauss holds square-root Gaussian beliefs and trajectories of them.
//
// Covariances are never stored directly. A belief carries a factor L with
// covariance L·Lᵀ, which keeps every covariance symmetric positive
// semidefinite by construction and allows exactly degenerate components.
package gauss

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// MVNSqrt is a multivariate normal in square-root form.
type MVNSqrt struct {
	Mean *mat.VecDense
	Chol *mat.Dense
}

// NewMVNSqrt copies mean and chol into a new belief.
func NewMVNSqrt(mean mat.Vector, chol mat.Matrix) MVNSqrt {
	return MVNSqrt{
		Mean: mat.VecDenseCopyOf(mean),
		Chol: mat.DenseCopyOf(chol),
	}
}

// Dim returns the state dimension.
func (m MVNSqrt) Dim() int {
	return m.Mean.Len()
}

// Cov returns L·Lᵀ.
func (m MVNSqrt) Cov() *mat.SymDense {
	n := m.Dim()
	cov := mat.NewSymDense(n, nil)
	cov.SymOuterK(1, m.Chol)
	return cov
}

func (m MVNSqrt) IsFinite() bool {
	return finiteVec(m.Mean) && finiteMat(m.Chol)
}

// Trajectory is a sequence of beliefs on a time grid, stored as an N×D mean
// array and N square-root factors.
type Trajectory struct {
	Mean *mat.Dense
	Chol []*mat.Dense
}

// NewTrajectory allocates a zero trajectory of n beliefs of dimension dim.
func NewTrajectory(n, dim int) *Trajectory {
	chol := make([]*mat.Dense, n)
	for i := range chol {
		chol[i] = mat.NewDense(dim, dim, nil)
	}
	return &Trajectory{
		Mean: mat.NewDense(n, dim, nil),
		Chol: chol,
	}
}

// NewConstant broadcasts mean over n grid points with zero covariance factors.
func NewConstant(mean mat.Vector, n int) *Trajectory {
	tr := NewTrajectory(n, mean.Len())
	for i := 0; i < n; i++ {
		tr.Mean.SetRow(i, mat.Col(nil, 0, mean))
	}
	return tr
}

// FromMeans wraps an N×D mean array with zero covariance factors.
func FromMeans(means mat.Matrix) *Trajectory {
	n, dim := means.Dims()
	tr := NewTrajectory(n, dim)
	tr.Mean.Copy(means)
	return tr
}

func (tr *Trajectory) Len() int {
	return len(tr.Chol)
}

func (tr *Trajectory) Dim() int {
	_, c := tr.Mean.Dims()
	return c
}

// At returns a copy of the i-th belief.
func (tr *Trajectory) At(i int) MVNSqrt {
	return MVNSqrt{
		Mean: mat.VecDenseCopyOf(tr.Mean.RowView(i)),
		Chol: mat.DenseCopyOf(tr.Chol[i]),
	}
}

// Set stores a copy of b at position i.
func (tr *Trajectory) Set(i int, b MVNSqrt) {
	tr.Mean.SetRow(i, mat.Col(nil, 0, b.Mean))
	tr.Chol[i].Copy(b.Chol)
}

func (tr *Trajectory) Clone() *Trajectory {
	chol := make([]*mat.Dense, len(tr.Chol))
	for i, c := range tr.Chol {
		chol[i] = mat.DenseCopyOf(c)
	}
	return &Trajectory{
		Mean: mat.DenseCopyOf(tr.Mean),
		Chol: chol,
	}
}

// MeanSquaredDiff returns the mean of the squared elementwise difference of
// the two mean arrays.
func (tr *Trajectory) MeanSquaredDiff(other *Trajectory) (float64, error) {
	r, c := tr.Mean.Dims()
	or, oc := other.Mean.Dims()
	if r != or || c != oc {
		return 0, fmt.Errorf("gauss: trajectory shapes differ: %dx%d vs %dx%d", r, c, or, oc)
	}

	sum := 0.0
	for i := 0; i < r; i++ {
		dist := floats.Distance(tr.Mean.RawRowView(i), other.Mean.RawRowView(i), 2)
		sum += dist * dist
	}
	return sum / float64(r*c), nil
}

func (tr *Trajectory) IsFinite() bool {
	if !finiteMat(tr.Mean) {
		return false
	}
	for _, c := range tr.Chol {
		if !finiteMat(c) {
			return false
		}
	}
	return true
}

func finiteVec(v mat.Vector) bool {
	for i := 0; i < v.Len(); i++ {
		x := v.AtVec(i)
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

func finiteMat(m mat.Matrix) bool {
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			x := m.At(i, j)
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return false
			}
		}
	}
	return true
}
