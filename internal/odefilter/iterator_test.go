package odefilter

import (
	"context"
	"testing"

	"github.com/san-kum/odefilter/internal/dynamo"
	"github.com/san-kum/odefilter/internal/gauss"
	"github.com/san-kum/odefilter/internal/problems"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func logisticIVP(tmax float64) (*problems.Logistic, *dynamo.IVP) {
	l := problems.NewLogistic()
	return l, &dynamo.IVP{System: l, T0: 0, TMax: tmax, Y0: dynamo.State{0.01}}
}

func TestIteratorInitial(t *testing.T) {
	_, ivp := logisticIVP(1)
	it, err := NewIterator(ivp, 3, 1e-2, 0.1, false)
	require.NoError(t, err)

	init := it.Initial()
	require.Equal(t, 101, init.Len())
	assert.Equal(t, 4, init.Dim())
	for i := 0; i < init.Len(); i++ {
		assert.True(t, mat.Equal(init.Chol[i], mat.NewDense(4, 4, nil)))
		assert.Equal(t, init.Mean.RawRowView(0), init.Mean.RawRowView(i))
	}

	times := it.Times()
	times[0] = 42
	assert.Equal(t, 0.0, it.Times()[0])
}

func TestIteratorManualLoopMatchesSolve(t *testing.T) {
	l, ivp := logisticIVP(1)
	it, err := NewIterator(ivp, 3, 1e-2, 0.1, true)
	require.NoError(t, err)

	traj := it.Initial()
	for i := 0; i < 5; i++ {
		traj, err = it.Refine(traj)
		require.NoError(t, err)
	}
	values := it.Project(traj)
	require.Len(t, values, 101)
	assert.InDelta(t, l.Exact(1, 0, 0.01), values[100][0], 1e-8)

	opts := DefaultOptions()
	opts.Method = IteratedSmoothing{Convergence: FixedIterations{N: 5}}
	sol, err := SolveIVP(ivp, opts)
	require.NoError(t, err)
	for i := range values {
		assert.InDelta(t, sol.Values[i][0], values[i][0], 1e-12)
	}
}

func TestIteratorRun(t *testing.T) {
	l, ivp := logisticIVP(1)
	it, err := NewIterator(ivp, 3, 1e-2, 0.1, false)
	require.NoError(t, err)

	traj, residuals, err := it.Run(context.Background(), AutoConvergence{})
	require.NoError(t, err)
	require.NotEmpty(t, residuals)
	assert.LessOrEqual(t, residuals[len(residuals)-1], DefaultTolerance)

	values := it.Project(traj)
	assert.InDelta(t, l.Exact(1, 0, 0.01), values[len(values)-1][0], 1e-8)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = it.Run(ctx, AutoConvergence{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIteratorWarmStart(t *testing.T) {
	l, ivp := logisticIVP(1)
	it, err := NewIterator(ivp, 2, 1e-2, 0.1, false)
	require.NoError(t, err)

	times := it.Times()
	exact := make([]dynamo.State, len(times))
	for i, tm := range times {
		exact[i] = dynamo.State{l.Exact(tm, 0, 0.01)}
	}

	nominal, err := it.WarmStart(exact)
	require.NoError(t, err)
	projected := it.Project(nominal)
	for i := range exact {
		assert.InDelta(t, exact[i][0], projected[i][0], 1e-14)
	}

	// one pass from an accurate nominal is already accurate
	traj, err := it.Refine(nominal)
	require.NoError(t, err)
	values := it.Project(traj)
	assert.InDelta(t, exact[len(exact)-1][0], values[len(values)-1][0], 1e-7)

	_, err = it.WarmStart(exact[:10])
	assert.ErrorIs(t, err, dynamo.ErrDimensionMismatch)
}

func TestIteratorRefineRejectsWrongShape(t *testing.T) {
	_, ivp := logisticIVP(1)
	it, err := NewIterator(ivp, 3, 1e-2, 0.1, false)
	require.NoError(t, err)

	_, err = it.Refine(gauss.NewTrajectory(5, 4))
	assert.ErrorIs(t, err, dynamo.ErrDimensionMismatch)
}

func TestIteratorOptions(t *testing.T) {
	l := problems.NewLogistic()
	ivp := &dynamo.IVP{System: dynamo.Func(l.Derive), T0: 0, TMax: 1, Y0: dynamo.State{0.01}}

	_, err := NewIterator(ivp, 3, 1e-2, 0.1, false, WithInit(InitTaylor, 0))
	assert.ErrorIs(t, err, dynamo.ErrNoSeries)

	it, err := NewIterator(ivp, 3, 1e-2, 0.1, false, WithInit(InitUncertain, 1), WithObservationNoise(0))
	require.NoError(t, err)
	sd := it.StdDev(it.Initial())
	assert.Zero(t, sd[0][0])

	_, err = NewIterator(ivp, 3, -1, 0.1, false)
	assert.ErrorIs(t, err, dynamo.ErrParameterBounds)
}
