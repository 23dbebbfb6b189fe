package odefilter

import (
	"context"
	"math"
	"testing"

	"github.com/san-kum/odefilter/internal/dynamo"
	"github.com/san-kum/odefilter/internal/problems"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestEnsembleRun(t *testing.T) {
	defer goleak.VerifyNone(t)

	l := problems.NewLogistic()
	e := &Ensemble{System: l, T0: 0, TMax: 2, Options: DefaultOptions(), Workers: 2}
	y0s := []dynamo.State{{0.01}, {0.1}, {0.5}, {0.9}, {1}}

	sols, err := e.Run(context.Background(), y0s)
	require.NoError(t, err)
	require.Len(t, sols, len(y0s))
	for i, sol := range sols {
		want := l.Exact(2, 0, y0s[i][0])
		assert.InDelta(t, want, sol.Values[len(sol.Values)-1][0], 1e-6, "member %d", i)
	}
}

func TestEnsembleFailureCancels(t *testing.T) {
	defer goleak.VerifyNone(t)

	e := &Ensemble{System: problems.NewLogistic(), T0: 0, TMax: 1, Options: DefaultOptions()}
	y0s := []dynamo.State{{0.01}, {math.NaN()}, {0.2}}

	_, err := e.Run(context.Background(), y0s)
	require.Error(t, err)
	assert.ErrorIs(t, err, dynamo.ErrInvalidState)
	assert.Contains(t, err.Error(), "member 1")
}
