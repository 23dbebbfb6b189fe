// Package iwp provides the integrated Wiener process prior used as the
// smoothness model of an ODE solution.
//
// The state of a d-dimensional q-times integrated Wiener process stacks, for
// every component j, the value and its first q derivatives at index
// j*(q+1)+k (Nordsieck layout). In Nordsieck-preconditioned coordinates
// x = P·z with P_kk = dt^(q-k+1/2)/(q-k)!, the discretised transition and
// process noise no longer depend on dt:
//
//	Ā[i][j] = C(q-i, q-j)         for j >= i
//	Q̄[i][j] = 1 / (2q + 1 - i - j)
package iwp

import (
	"fmt"
	"math"

	"github.com/san-kum/odefilter/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// Transition is the discretised integrated Wiener process of a given order
// and dimension.
type Transition struct {
	order int
	dim   int

	a1d  *mat.Dense
	ql1d *mat.Dense
}

// New builds the prior for order q >= 1 derivatives of a dim-dimensional
// solution.
func New(order, dim int) (*Transition, error) {
	if order < 1 {
		return nil, fmt.Errorf("%w: order must be at least 1, got %d", dynamo.ErrParameterBounds, order)
	}
	if dim < 1 {
		return nil, fmt.Errorf("%w: dimension must be at least 1, got %d", dynamo.ErrParameterBounds, dim)
	}

	n := order + 1
	a := mat.NewDense(n, n, nil)
	q := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			a.Set(i, j, binomial(order-i, order-j))
			q.SetSym(i, j, 1/float64(2*order+1-i-j))
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(q); !ok {
		return nil, fmt.Errorf("iwp: process noise of order %d is not positive definite", order)
	}
	var l mat.TriDense
	chol.LTo(&l)

	return &Transition{
		order: order,
		dim:   dim,
		a1d:   a,
		ql1d:  mat.DenseCopyOf(&l),
	}, nil
}

func (t *Transition) Order() int { return t.order }
func (t *Transition) Dim() int   { return t.dim }

// StateDim returns d*(q+1).
func (t *Transition) StateDim() int {
	return t.dim * (t.order + 1)
}

// Index returns the state index of derivative k of component j.
func (t *Transition) Index(j, k int) int {
	return j*(t.order+1) + k
}

// Preconditioner returns the Nordsieck scaling P and its inverse for step dt.
func (t *Transition) Preconditioner(dt float64) (p, pInv *mat.DiagDense) {
	n := t.order + 1
	scale := make([]float64, n)
	for k := 0; k < n; k++ {
		power := t.order - k
		scale[k] = math.Pow(math.Abs(dt), float64(power)+0.5) / factorial(power)
	}

	diag := make([]float64, t.StateDim())
	inv := make([]float64, t.StateDim())
	for j := 0; j < t.dim; j++ {
		for k := 0; k < n; k++ {
			diag[t.Index(j, k)] = scale[k]
			inv[t.Index(j, k)] = 1 / scale[k]
		}
	}
	return mat.NewDiagDense(len(diag), diag), mat.NewDiagDense(len(inv), inv)
}

// Projection returns the d×D matrix selecting derivative k of every component.
func (t *Transition) Projection(k int) *mat.Dense {
	if k < 0 || k > t.order {
		panic(fmt.Sprintf("iwp: projection order %d outside [0, %d]", k, t.order))
	}
	proj := mat.NewDense(t.dim, t.StateDim(), nil)
	for j := 0; j < t.dim; j++ {
		proj.Set(j, t.Index(j, k), 1)
	}
	return proj
}

// PreconditionedDiscretize returns the transition matrix and the lower
// Cholesky factor of the process noise in preconditioned coordinates.
func (t *Transition) PreconditionedDiscretize() (a, ql *mat.Dense) {
	return BlockDiag(t.a1d, t.dim), BlockDiag(t.ql1d, t.dim)
}

// Discretize returns the transition matrix and process noise factor for a
// step dt in plain Nordsieck coordinates.
func (t *Transition) Discretize(dt float64) (a, ql *mat.Dense) {
	p, pInv := t.Preconditioner(dt)
	abar, qlbar := t.PreconditionedDiscretize()

	a = &mat.Dense{}
	a.Product(p, abar, pInv)
	ql = &mat.Dense{}
	ql.Mul(p, qlbar)
	return a, ql
}

// BlockDiag returns I_n ⊗ b.
func BlockDiag(b *mat.Dense, n int) *mat.Dense {
	r, c := b.Dims()
	out := mat.NewDense(n*r, n*c, nil)
	for k := 0; k < n; k++ {
		out.Slice(k*r, (k+1)*r, k*c, (k+1)*c).(*mat.Dense).Copy(b)
	}
	return out
}

func binomial(n, k int) float64 {
	if k < 0 || k > n {
		return 0
	}
	result := 1.0
	for i := 1; i <= k; i++ {
		result = result * float64(n-k+i) / float64(i)
	}
	return math.Round(result)
}

func factorial(n int) float64 {
	f := 1.0
	for i := 2; i <= n; i++ {
		f *= float64(i)
	}
	return f
}
