package odefilter

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/odefilter/internal/dynamo"
	"github.com/san-kum/odefilter/internal/problems"
	"github.com/san-kum/odefilter/internal/smoother"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolveExponentialDecayExact(t *testing.T) {
	decay := problems.NewExpDecay()

	for _, method := range []Method{Filtering{}, Smoothing{}} {
		for order := 1; order <= 3; order++ {
			opts := DefaultOptions()
			opts.Order = order
			opts.Dt = 1e-3
			opts.Method = method

			sol, err := Solve(decay, dynamo.State{1}, 1, opts)
			require.NoError(t, err, "%s order %d", method, order)
			require.Len(t, sol.Times, 1001)

			for i, tm := range sol.Times {
				if math.Abs(sol.Values[i][0]-math.Exp(-tm)) > 1e-4 {
					t.Fatalf("%s order %d: y(%g) = %g, want %g", method, order, tm, sol.Values[i][0], math.Exp(-tm))
				}
			}
		}
	}
}

func TestSolveLogisticEndToEnd(t *testing.T) {
	l := problems.NewLogistic()
	opts := DefaultOptions()
	opts.Order = 3
	opts.Dt = 1e-2
	opts.Method = Filtering{}

	sol, err := Solve(l, dynamo.State{0.01}, 10, opts)
	require.NoError(t, err)

	n := int(math.Ceil(10/1e-2)) + 1
	require.Len(t, sol.Times, n)
	require.Len(t, sol.Values, n)
	require.Len(t, sol.StdDev, n)
	assert.Equal(t, 0.0, sol.Times[0])
	assert.InDelta(t, 10, sol.Times[n-1], 1e-9)

	want := 1 / (1 + 99*math.Exp(-10))
	assert.InDelta(t, want, sol.Values[n-1][0], 1e-2)
	assert.InDelta(t, 0.01, sol.Values[0][0], 1e-15)
	assert.Equal(t, 1, sol.Iterations)
	assert.Equal(t, "ekf", sol.Method)
}

func TestSolveIteratedConvergesOnLogistic(t *testing.T) {
	l := problems.NewLogistic()
	opts := DefaultOptions()
	opts.Method = IteratedSmoothing{Convergence: AutoConvergence{Tol: DefaultTolerance}}

	sol, err := Solve(l, dynamo.State{0.01}, 10, opts)
	require.NoError(t, err)

	assert.Greater(t, sol.Iterations, 1)
	require.Len(t, sol.Residuals, sol.Iterations)
	assert.LessOrEqual(t, sol.Residuals[len(sol.Residuals)-1], DefaultTolerance)
	assert.InDelta(t, l.Exact(10, 0, 0.01), sol.Values[len(sol.Values)-1][0], 1e-2)
}

// Successive iterates of the automatic criterion get closer until they
// settle at round-off level.
func TestIteratedResidualsNonIncreasing(t *testing.T) {
	l := problems.NewLogistic()
	opts := DefaultOptions()
	opts.Method = IteratedSmoothing{Convergence: FixedIterations{N: 10}}

	sol, err := Solve(l, dynamo.State{0.01}, 1, opts)
	require.NoError(t, err)
	require.Len(t, sol.Residuals, 10)
	assert.Equal(t, 10, sol.Iterations)

	const floor = 1e-12
	for i := 1; i < len(sol.Residuals); i++ {
		prev, curr := sol.Residuals[i-1], sol.Residuals[i]
		if curr > prev && curr > floor {
			t.Errorf("residual grew at iteration %d: %g -> %g", i+1, prev, curr)
		}
	}
	assert.InDelta(t, l.Exact(1, 0, 0.01), sol.Values[len(sol.Values)-1][0], 1e-6)
}

func TestSolveMaxIterCapsAutoConvergence(t *testing.T) {
	l := problems.NewLogistic()
	opts := DefaultOptions()
	opts.Method = IteratedSmoothing{Convergence: AutoConvergence{Tol: 1e-30, MaxIter: 3}}

	sol, err := Solve(l, dynamo.State{0.01}, 1, opts)
	require.NoError(t, err)
	assert.Equal(t, 3, sol.Iterations)
	assert.Len(t, sol.Residuals, 3)
}

func TestSolveInitPolicies(t *testing.T) {
	l := problems.NewLogistic()
	plain := dynamo.Func(l.Derive)

	t.Run("uncertain with single pass is rejected", func(t *testing.T) {
		opts := DefaultOptions()
		_, err := Solve(plain, dynamo.State{0.01}, 1, opts)
		assert.ErrorIs(t, err, dynamo.ErrPrecondition)
	})

	t.Run("uncertain with single pass at order 1", func(t *testing.T) {
		opts := DefaultOptions()
		opts.Order = 1
		opts.Dt = 1e-3
		sol, err := Solve(plain, dynamo.State{0.01}, 1, opts)
		require.NoError(t, err)
		assert.InDelta(t, l.Exact(1, 0, 0.01), sol.Values[len(sol.Values)-1][0], 1e-4)
	})

	t.Run("taylor without series", func(t *testing.T) {
		opts := DefaultOptions()
		opts.Init = InitTaylor
		_, err := Solve(plain, dynamo.State{0.01}, 1, opts)
		assert.ErrorIs(t, err, dynamo.ErrNoSeries)
	})

	t.Run("uncertain with iterated smoothing", func(t *testing.T) {
		opts := DefaultOptions()
		opts.Method = IteratedSmoothing{Convergence: AutoConvergence{MaxIter: 50}}
		sol, err := Solve(plain, dynamo.State{0.01}, 1, opts)
		require.NoError(t, err)
		assert.InDelta(t, l.Exact(1, 0, 0.01), sol.Values[len(sol.Values)-1][0], 1e-6)
	})

	t.Run("explicit uncertain on series system", func(t *testing.T) {
		opts := DefaultOptions()
		opts.Init = InitUncertain
		opts.Method = IteratedSmoothing{Convergence: FixedIterations{N: 6}}
		sol, err := Solve(l, dynamo.State{0.01}, 1, opts)
		require.NoError(t, err)
		assert.InDelta(t, l.Exact(1, 0, 0.01), sol.Values[len(sol.Values)-1][0], 1e-6)
	})
}

func TestSolveRejectsBadOptions(t *testing.T) {
	l := problems.NewLogistic()
	tests := []struct {
		name   string
		modify func(o *Options)
		T      float64
		want   error
	}{
		{"order", func(o *Options) { o.Order = 0 }, 1, dynamo.ErrParameterBounds},
		{"dt", func(o *Options) { o.Dt = -1 }, 1, dynamo.ErrParameterBounds},
		{"diffusion", func(o *Options) { o.Diffusion = 0 }, 1, dynamo.ErrParameterBounds},
		{"noise", func(o *Options) { o.ObservationNoise = -1e-3 }, 1, dynamo.ErrParameterBounds},
		{"horizon", func(o *Options) {}, 0, dynamo.ErrParameterBounds},
		{"budget", func(o *Options) { o.Method = IteratedSmoothing{Convergence: FixedIterations{}} }, 1, dynamo.ErrParameterBounds},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.modify(&opts)
			_, err := Solve(l, dynamo.State{0.01}, tt.T, opts)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSolveReportsNumericalFailure(t *testing.T) {
	blowup := dynamo.Func(func(t float64, y dynamo.State) dynamo.State {
		if t > 0.5 {
			return dynamo.State{math.Inf(1)}
		}
		return dynamo.State{-y[0]}
	})
	opts := DefaultOptions()
	opts.Order = 1

	_, err := Solve(blowup, dynamo.State{1}, 1, opts)
	require.Error(t, err)
	assert.ErrorIs(t, err, dynamo.ErrInvalidState)

	var serr *dynamo.SolveError
	require.True(t, errors.As(err, &serr))
	assert.Greater(t, serr.Time, 0.5)
}

// Posterior means do not depend on the diffusion when the initial belief is
// exact.
func TestSolveDiffusionInvariance(t *testing.T) {
	lv := problems.NewLotkaVolterra()
	opts := DefaultOptions()
	opts.Dt = 0.05
	opts.Method = Smoothing{}

	a, err := SolveIVP(problems.IVP(lv), opts)
	require.NoError(t, err)
	opts.Diffusion = 2.5
	b, err := SolveIVP(problems.IVP(lv), opts)
	require.NoError(t, err)

	for i := range a.Values {
		assert.InDeltaSlice(t, a.Values[i], b.Values[i], 1e-8)
	}
	last := len(a.StdDev) - 1
	require.Greater(t, a.StdDev[last][0], 0.0)
	assert.InEpsilon(t, 5*a.StdDev[last][0], b.StdDev[last][0], 1e-6)
}

func TestSolveParallelMatchesSequential(t *testing.T) {
	vdp := problems.NewVanDerPol()
	if err := vdp.SetParam("mu", 1); err != nil {
		t.Fatal(err)
	}
	opts := DefaultOptions()
	opts.Method = IteratedSmoothing{Convergence: FixedIterations{N: 4}}

	seq, err := Solve(vdp, vdp.DefaultState(), 2, opts)
	require.NoError(t, err)

	opts.Parallel = true
	par, err := Solve(vdp, vdp.DefaultState(), 2, opts)
	require.NoError(t, err)

	assert.Equal(t, seq.Values, par.Values)
	assert.Equal(t, seq.Residuals, par.Residuals)
}

func TestSolveCubatureLinearization(t *testing.T) {
	l := problems.NewLogistic()
	opts := DefaultOptions()
	opts.Linearization = smoother.Cubature{}

	sol, err := Solve(l, dynamo.State{0.01}, 10, opts)
	require.NoError(t, err)
	assert.InDelta(t, l.Exact(10, 0, 0.01), sol.Values[len(sol.Values)-1][0], 1e-2)
}

func TestSolveWithObservationNoise(t *testing.T) {
	l := problems.NewLogistic()
	opts := DefaultOptions()
	opts.ObservationNoise = 1e-10

	sol, err := Solve(l, dynamo.State{0.01}, 10, opts)
	require.NoError(t, err)
	assert.InDelta(t, l.Exact(10, 0, 0.01), sol.Values[len(sol.Values)-1][0], 1e-2)
}

func TestSolveIVPUsesInitialTime(t *testing.T) {
	l := problems.NewLogistic()
	ivp := &dynamo.IVP{System: l, T0: 2, TMax: 3, Y0: dynamo.State{0.5}}

	sol, err := SolveIVP(ivp, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 2.0, sol.Times[0])
	assert.InDelta(t, l.Exact(3, 2, 0.5), sol.Values[len(sol.Values)-1][0], 1e-6)
}
