package smoother

import (
	"fmt"
	"math"

	"github.com/san-kum/odefilter/internal/dynamo"
	"github.com/san-kum/odefilter/internal/gauss"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
)

// Linearized is the affine approximation y ≈ H·x + C + e, e ~ N(0, RL·RLᵀ).
type Linearized struct {
	H           *mat.Dense
	C           *mat.VecDense
	NoiseFactor *mat.Dense
}

// Linearizer approximates an observation model by an affine one around a
// belief.
type Linearizer interface {
	Linearize(m ObservationModel, t float64, at gauss.MVNSqrt) (Linearized, error)
}

// Extended linearises by first-order Taylor expansion at the mean.
type Extended struct {
	// Step is the finite-difference step used when the model has no
	// analytic Jacobian. Zero selects the gonum default.
	Step float64
}

func (e Extended) Linearize(m ObservationModel, t float64, at gauss.MVNSqrt) (Linearized, error) {
	jac, err := e.jacobian(m, t, at.Mean)
	if err != nil {
		return Linearized{}, err
	}

	// C = h(m) + c - J·m
	c := m.Func(t, at.Mean)
	c.AddVec(c, m.Offset)
	var jm mat.VecDense
	jm.MulVec(jac, at.Mean)
	c.SubVec(c, &jm)

	return Linearized{
		H:           jac,
		C:           c,
		NoiseFactor: m.NoiseFactor,
	}, nil
}

func (e Extended) jacobian(m ObservationModel, t float64, x mat.Vector) (*mat.Dense, error) {
	if m.Jacobian != nil {
		return m.Jacobian(t, x)
	}

	n := x.Len()
	jac := mat.NewDense(m.Dim(), n, nil)
	h := func(y, xs []float64) {
		copy(y, m.Func(t, mat.NewVecDense(n, xs)).RawVector().Data)
	}
	fd.Jacobian(jac, h, mat.Col(nil, 0, x), &fd.JacobianSettings{
		Formula: fd.Central,
		Step:    e.Step,
	})
	if !finite(jac) {
		return nil, fmt.Errorf("observation jacobian: %w", dynamo.ErrInvalidState)
	}
	return jac, nil
}

// Cubature linearises by statistical linear regression over third-degree
// spherical cubature points of the belief. When the belief has a singular
// covariance factor, the regression is undefined and Extended is used.
type Cubature struct {
	Fallback Extended
}

func (cb Cubature) Linearize(m ObservationModel, t float64, at gauss.MVNSqrt) (Linearized, error) {
	n := at.Dim()
	dy := m.Dim()
	if singular(at.Chol) {
		return cb.Fallback.Linearize(m, t, at)
	}

	// points m ± sqrt(n)·L·e_i, equal weights 1/(2n)
	scale := math.Sqrt(float64(n))
	w := 1 / float64(2*n)

	dx := mat.NewDense(n, 2*n, nil)
	ys := mat.NewDense(dy, 2*n, nil)
	ybar := mat.NewVecDense(dy, nil)
	for i := 0; i < 2*n; i++ {
		sign := 1.0
		if i >= n {
			sign = -1
		}
		col := mat.VecDenseCopyOf(at.Chol.ColView(i % n))
		col.ScaleVec(sign*scale, col)
		dx.SetCol(i, col.RawVector().Data)

		point := mat.NewVecDense(n, nil)
		point.AddVec(at.Mean, col)
		y := m.Func(t, point)
		ys.SetCol(i, y.RawVector().Data)
		ybar.AddScaledVec(ybar, w, y)
	}

	// centred outputs
	for i := 0; i < 2*n; i++ {
		col := mat.VecDenseCopyOf(ys.ColView(i))
		col.SubVec(col, ybar)
		ys.SetCol(i, col.RawVector().Data)
	}

	// H = Pyx · Pxx⁻¹ with Pxx = L·Lᵀ, solved as (L·Lᵀ)·Hᵀ = Pxy
	var pxy mat.Dense
	pxy.Mul(dx, ys.T())
	pxy.Scale(w, &pxy)

	var ht, tmp mat.Dense
	if err := tmp.Solve(at.Chol, &pxy); err != nil {
		return cb.Fallback.Linearize(m, t, at)
	}
	if err := ht.Solve(at.Chol.T(), &tmp); err != nil {
		return cb.Fallback.Linearize(m, t, at)
	}
	h := mat.DenseCopyOf(ht.T())

	// C = ybar + c - H·m
	c := mat.VecDenseCopyOf(ybar)
	c.AddVec(c, m.Offset)
	var hm mat.VecDense
	hm.MulVec(h, at.Mean)
	c.SubVec(c, &hm)

	// residual spread sqrt(w)·(Y - ybar - H·dX) joins the model noise
	var resid mat.Dense
	resid.Mul(h, dx)
	resid.Sub(ys, &resid)
	resid.Scale(math.Sqrt(w), &resid)

	noise := &mat.Dense{}
	noise.Augment(&resid, m.NoiseFactor)

	return Linearized{
		H:           h,
		C:           c,
		NoiseFactor: gauss.Tria(noise),
	}, nil
}

// singular reports whether a lower-triangular factor has a vanishing
// diagonal relative to its largest one.
func singular(l *mat.Dense) bool {
	n, _ := l.Dims()
	lo, hi := math.Inf(1), 0.0
	for i := 0; i < n; i++ {
		d := math.Abs(l.At(i, i))
		if math.IsNaN(d) {
			return true
		}
		lo = math.Min(lo, d)
		hi = math.Max(hi, d)
	}
	return hi == 0 || lo <= 1e-10*hi
}

func finite(m mat.Matrix) bool {
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := m.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}
