package odefilter

import (
	"testing"

	"github.com/san-kum/odefilter/internal/dynamo"
	"github.com/san-kum/odefilter/internal/gauss"
	"github.com/san-kum/odefilter/internal/problems"
	"github.com/san-kum/odefilter/internal/smoother"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestBuildModelShapes(t *testing.T) {
	lv := problems.NewLotkaVolterra()
	m, err := BuildModel(lv, 2, 3, 0.05, 0.1, 0)
	require.NoError(t, err)

	r, c := m.E0.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 8, c)
	r, c = m.Transition.A.Dims()
	assert.Equal(t, 8, r)
	assert.Equal(t, 8, c)
	assert.Equal(t, 2, m.Observation.Dim())
	assert.True(t, mat.Equal(m.Observation.NoiseFactor, mat.NewDense(2, 2, nil)))

	obs := m.Observations(11)
	require.Len(t, obs, 10)
	for _, o := range obs {
		assert.Zero(t, mat.Norm(o, 2))
	}
}

func TestBuildModelDiffusionScalesNoise(t *testing.T) {
	l := problems.NewLogistic()
	a, err := BuildModel(l, 1, 2, 0.1, 1, 0)
	require.NoError(t, err)
	b, err := BuildModel(l, 1, 2, 0.1, 4, 0)
	require.NoError(t, err)

	var scaled mat.Dense
	scaled.Scale(2, a.Transition.NoiseFactor)
	assert.True(t, mat.EqualApprox(&scaled, b.Transition.NoiseFactor, 1e-14))
	assert.True(t, mat.Equal(a.Transition.A, b.Transition.A))
}

func TestBuildModelRejectsBadParameters(t *testing.T) {
	l := problems.NewLogistic()
	tests := []struct {
		name                 string
		order                int
		dt, diffusion, noise float64
	}{
		{"order", 0, 0.1, 1, 0},
		{"dt", 2, 0, 1, 0},
		{"diffusion", 2, 0.1, 0, 0},
		{"noise", 2, 0.1, 1, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildModel(l, 1, tt.order, tt.dt, tt.diffusion, tt.noise)
			assert.ErrorIs(t, err, dynamo.ErrParameterBounds)
		})
	}
}

// At the exact Taylor initial state the ODE residual vanishes.
func TestResidualVanishesAtTaylorInit(t *testing.T) {
	vdp := problems.NewVanDerPol()
	y0 := vdp.DefaultState()
	m, err := BuildModel(vdp, 2, 4, 0.01, 0.1, 0)
	require.NoError(t, err)

	x0, err := TaylorModeInit(vdp, 0, y0, 4)
	require.NoError(t, err)
	pre := m.PreconditionBelief(x0)

	res := m.Observation.Func(0, pre.Mean)
	assert.InDelta(t, 0, mat.Norm(res, 2), 1e-10)

	var y mat.VecDense
	y.MulVec(m.E0, pre.Mean)
	assert.InDelta(t, y0[0], y.AtVec(0), 1e-12)
	assert.InDelta(t, y0[1], y.AtVec(1), 1e-12)
}

// The exact and the numerical residual jacobians agree.
func TestResidualJacobian(t *testing.T) {
	lv := problems.NewLotkaVolterra()
	exact, err := BuildModel(lv, 2, 2, 0.1, 0.1, 0)
	require.NoError(t, err)
	numeric, err := BuildModel(dynamo.Func(lv.Derive), 2, 2, 0.1, 0.1, 0)
	require.NoError(t, err)

	x0, err := TaylorModeInit(lv, 0, dynamo.State{1.2, 0.8}, 2)
	require.NoError(t, err)
	x := exact.PreconditionBelief(x0)

	je, err := exact.Observation.Jacobian(0, x.Mean)
	require.NoError(t, err)
	jn, err := numeric.Observation.Jacobian(0, x.Mean)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(je, jn, 1e-8), "exact\n%v\nnumeric\n%v", mat.Formatted(je), mat.Formatted(jn))

	lin, err := smoother.Extended{}.Linearize(exact.Observation, 0, gauss.NewMVNSqrt(x.Mean, x.Chol))
	require.NoError(t, err)
	assert.True(t, mat.Equal(je, lin.H))
}

func TestPrecondition(t *testing.T) {
	l := problems.NewLogistic()
	m, err := BuildModel(l, 1, 2, 0.1, 0.1, 0)
	require.NoError(t, err)

	states, err := InitialTrajectory(l, TrajectorySeed{Values: []dynamo.State{{0.1}, {0.2}}}, 2, true)
	require.NoError(t, err)

	traj, err := m.Precondition(states)
	require.NoError(t, err)
	require.Equal(t, 2, traj.Len())

	vals := m.Projector().Project(traj)
	assert.InDelta(t, 0.1, vals[0][0], 1e-14)
	assert.InDelta(t, 0.2, vals[1][0], 1e-14)

	_, err = m.Precondition(mat.NewDense(2, 5, nil))
	assert.ErrorIs(t, err, dynamo.ErrDimensionMismatch)
}
