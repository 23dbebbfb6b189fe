package odefilter

import (
	"testing"

	"github.com/san-kum/odefilter/internal/dynamo"
	"github.com/san-kum/odefilter/internal/problems"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestProjectIdempotent(t *testing.T) {
	lv := problems.NewLotkaVolterra()
	opts := DefaultOptions()
	opts.Method = Smoothing{}
	sol, err := SolveIVP(problems.IVP(lv), opts)
	require.NoError(t, err)

	m, err := BuildModel(lv, 2, opts.Order, opts.Dt, opts.Diffusion, 0)
	require.NoError(t, err)
	proj := m.Projector()

	before := mat.DenseCopyOf(sol.Trajectory.Mean)
	first := proj.Project(sol.Trajectory)
	second := proj.Project(sol.Trajectory)
	assert.Equal(t, first, second)
	assert.Equal(t, sol.Values, first)
	assert.True(t, mat.Equal(before, sol.Trajectory.Mean))
}

func TestProjectDerivativeFollowsField(t *testing.T) {
	lv := problems.NewLotkaVolterra()
	sol, err := SolveIVP(problems.IVP(lv), DefaultOptions())
	require.NoError(t, err)

	for i, y := range sol.Values {
		f := lv.Derive(sol.Times[i], y)
		assert.InDeltaSlice(t, f, sol.Derivatives[i], 1e-9, "t=%g", sol.Times[i])
	}
}

func TestStdDev(t *testing.T) {
	l := problems.NewLogistic()
	sol, err := Solve(l, dynamo.State{0.01}, 1, DefaultOptions())
	require.NoError(t, err)

	assert.Zero(t, sol.StdDev[0][0])
	for i := 1; i < len(sol.StdDev); i++ {
		assert.Greater(t, sol.StdDev[i][0], 0.0)
	}
}
