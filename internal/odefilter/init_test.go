package odefilter

import (
	"testing"

	"github.com/san-kum/odefilter/internal/dynamo"
	"github.com/san-kum/odefilter/internal/problems"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestTaylorModeInitPinsValue(t *testing.T) {
	lv := problems.NewLotkaVolterra()
	y0 := dynamo.State{1.3, 0.45}

	for order := 1; order <= 5; order++ {
		x0, err := TaylorModeInit(lv, 0, y0, order)
		require.NoError(t, err)
		require.Equal(t, 2*(order+1), x0.Dim())

		for j, v := range y0 {
			assert.Equal(t, v, x0.Mean.AtVec(j*(order+1)), "order %d component %d", order, j)
		}
		assert.True(t, mat.Equal(x0.Chol, mat.NewDense(x0.Dim(), x0.Dim(), nil)), "order %d: nonzero factor", order)
		assert.Zero(t, x0.Cov().At(0, 0))

		dy := lv.Derive(0, y0)
		for j := range y0 {
			assert.InDelta(t, dy[j], x0.Mean.AtVec(j*(order+1)+1), 1e-14)
		}
	}
}

func TestTaylorModeInitHigherDerivatives(t *testing.T) {
	l := problems.NewLogistic()
	y := 0.2
	x0, err := TaylorModeInit(l, 0, dynamo.State{y}, 3)
	require.NoError(t, err)

	// y' = y - y², y'' = (1 - 2y)y', y''' = (1 - 2y)y'' - 2y'²
	d1 := y * (1 - y)
	d2 := (1 - 2*y) * d1
	d3 := (1-2*y)*d2 - 2*d1*d1
	want := []float64{y, d1, d2, d3}
	for k, w := range want {
		assert.InDelta(t, w, x0.Mean.AtVec(k), 1e-14, "derivative %d", k)
	}
}

func TestTaylorModeInitRejectsBadInput(t *testing.T) {
	l := problems.NewLogistic()

	_, err := TaylorModeInit(l, 0, dynamo.State{0.1}, 0)
	assert.ErrorIs(t, err, dynamo.ErrParameterBounds)

	_, err = TaylorModeInit(l, 0, dynamo.State{}, 2)
	assert.ErrorIs(t, err, dynamo.ErrDimensionMismatch)
}

func TestUncertainInit(t *testing.T) {
	vdp := problems.NewVanDerPol()
	y0 := dynamo.State{2, 0.5}
	const order, variance = 4, 2.5

	x0, err := UncertainInit(vdp, 0, y0, order, variance)
	require.NoError(t, err)

	dy := vdp.Derive(0, y0)
	cov := x0.Cov()
	for j := range y0 {
		base := j * (order + 1)
		assert.Equal(t, y0[j], x0.Mean.AtVec(base))
		assert.Equal(t, dy[j], x0.Mean.AtVec(base+1))
		assert.Zero(t, cov.At(base, base))
		assert.Zero(t, cov.At(base+1, base+1))
		for k := 2; k <= order; k++ {
			assert.Zero(t, x0.Mean.AtVec(base+k))
			assert.InDelta(t, variance, cov.At(base+k, base+k), 1e-12)
		}
	}

	_, err = UncertainInit(vdp, 0, y0, order, -1)
	assert.ErrorIs(t, err, dynamo.ErrParameterBounds)
}

func TestInitialTrajectoryShapes(t *testing.T) {
	lv := problems.NewLotkaVolterra()
	y0 := dynamo.State{1, 2}
	values := []dynamo.State{{1, 2}, {1.5, 1}, {0.5, 0.25}}

	tests := []struct {
		name  string
		seed  TrajectorySeed
		order int
		rows  int
	}{
		{"broadcast", TrajectorySeed{Value: y0, N: 7}, 3, 7},
		{"broadcast order 1", TrajectorySeed{Value: y0, N: 1}, 1, 1},
		{"sequence", TrajectorySeed{Values: values}, 2, 3},
		{"sequence with times", TrajectorySeed{Values: values, Times: []float64{0, 1, 2}}, 5, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, withDy := range []bool{true, false} {
				out, err := InitialTrajectory(lv, tt.seed, tt.order, withDy)
				require.NoError(t, err)
				r, c := out.Dims()
				assert.Equal(t, tt.rows, r)
				assert.Equal(t, 2*(tt.order+1), c)

				for i := 0; i < r; i++ {
					for j := 0; j < 2; j++ {
						for k := 2; k <= tt.order; k++ {
							assert.Zero(t, out.At(i, j*(tt.order+1)+k))
						}
						if !withDy {
							assert.Zero(t, out.At(i, j*(tt.order+1)+1))
						}
					}
				}
			}
		})
	}
}

func TestInitialTrajectoryDerivatives(t *testing.T) {
	lv := problems.NewLotkaVolterra()
	values := []dynamo.State{{1, 2}, {1.5, 1}, {0.5, 0.25}}

	out, err := InitialTrajectory(lv, TrajectorySeed{Values: values}, 3, true)
	require.NoError(t, err)
	for i, v := range values {
		dy := lv.Derive(0, v)
		assert.Equal(t, v[0], out.At(i, 0))
		assert.Equal(t, dy[0], out.At(i, 1))
		assert.Equal(t, v[1], out.At(i, 4))
		assert.Equal(t, dy[1], out.At(i, 5))
	}
}

func TestInitialTrajectoryPreconditions(t *testing.T) {
	lv := problems.NewLotkaVolterra()
	y0 := dynamo.State{1, 2}
	values := []dynamo.State{{1, 2}, {1.5, 1}}

	tests := []struct {
		name string
		seed TrajectorySeed
		want error
	}{
		{"sequence with N", TrajectorySeed{Values: values, N: 2}, dynamo.ErrPrecondition},
		{"value without N", TrajectorySeed{Value: y0}, dynamo.ErrPrecondition},
		{"value with negative N", TrajectorySeed{Value: y0, N: -3}, dynamo.ErrPrecondition},
		{"both forms", TrajectorySeed{Value: y0, Values: values}, dynamo.ErrPrecondition},
		{"neither form", TrajectorySeed{N: 4}, dynamo.ErrPrecondition},
		{"ragged sequence", TrajectorySeed{Values: []dynamo.State{{1, 2}, {1}}}, dynamo.ErrDimensionMismatch},
		{"times length", TrajectorySeed{Values: values, Times: []float64{0}}, dynamo.ErrDimensionMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := InitialTrajectory(lv, tt.seed, 2, true)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
