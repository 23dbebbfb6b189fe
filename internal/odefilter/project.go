package odefilter

import (
	"github.com/san-kum/odefilter/internal/dynamo"
	"github.com/san-kum/odefilter/internal/gauss"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Projector maps preconditioned trajectories back to solution space.
type Projector struct {
	E0, E1 *mat.Dense
}

func (m *Model) Projector() Projector {
	return Projector{E0: m.E0, E1: m.E1}
}

// Project returns E0·m for every mean m of traj.
func (p Projector) Project(traj *gauss.Trajectory) []dynamo.State {
	return project(p.E0, traj.Mean)
}

// ProjectDerivative returns E1·m for every mean m of traj.
func (p Projector) ProjectDerivative(traj *gauss.Trajectory) []dynamo.State {
	return project(p.E1, traj.Mean)
}

// StdDev returns the marginal standard deviations sqrt(diag(E0·L·Lᵀ·E0ᵀ)).
func (p Projector) StdDev(traj *gauss.Trajectory) []dynamo.State {
	d, _ := p.E0.Dims()
	out := make([]dynamo.State, traj.Len())
	var el mat.Dense
	for i, l := range traj.Chol {
		el.Reset()
		el.Mul(p.E0, l)
		sd := make(dynamo.State, d)
		for j := 0; j < d; j++ {
			sd[j] = floats.Norm(el.RawRowView(j), 2)
		}
		out[i] = sd
	}
	return out
}

func project(e *mat.Dense, means *mat.Dense) []dynamo.State {
	n, _ := means.Dims()
	d, _ := e.Dims()
	var ys mat.Dense
	ys.Mul(means, e.T())

	out := make([]dynamo.State, n)
	for i := 0; i < n; i++ {
		row := make(dynamo.State, d)
		copy(row, ys.RawRowView(i))
		out[i] = row
	}
	return out
}
