package gauss

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestTria(t *testing.T) {
	tests := []struct {
		name string
		a    *mat.Dense
	}{
		{"wide", mat.NewDense(2, 4, []float64{1, 2, 3, 4, -1, 0.5, 2, 0})},
		{"square", mat.NewDense(3, 3, []float64{2, 0, 0, 1, 3, 0, -1, 1, 4})},
		{"tall", mat.NewDense(3, 1, []float64{1, 2, 3})},
		{"zero", mat.NewDense(2, 2, nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, _ := tt.a.Dims()
			l := Tria(tt.a)

			r, c := l.Dims()
			require.Equal(t, n, r)
			require.Equal(t, n, c)

			for i := 0; i < n; i++ {
				for j := i + 1; j < n; j++ {
					assert.Zero(t, l.At(i, j), "upper entry (%d,%d)", i, j)
				}
			}

			var want, got mat.Dense
			want.Mul(tt.a, tt.a.T())
			got.Mul(l, l.T())
			assert.True(t, mat.EqualApprox(&want, &got, 1e-12), "L·Lᵀ != A·Aᵀ")
		})
	}
}

func TestBlocks(t *testing.T) {
	l := mat.NewDense(3, 3, []float64{
		1, 0, 0,
		2, 3, 0,
		4, 5, 6,
	})
	l11, l21, l22 := Blocks(l, 1)

	assert.Equal(t, 1.0, l11.At(0, 0))
	assert.Equal(t, []float64{2, 4}, mat.Col(nil, 0, l21))
	assert.True(t, mat.Equal(l22, mat.NewDense(2, 2, []float64{3, 0, 5, 6})))
}

func TestMVNSqrtCov(t *testing.T) {
	b := NewMVNSqrt(
		mat.NewVecDense(2, []float64{1, 2}),
		mat.NewDense(2, 2, []float64{2, 0, 1, 1}),
	)
	cov := b.Cov()

	assert.InDelta(t, 4.0, cov.At(0, 0), 1e-15)
	assert.InDelta(t, 2.0, cov.At(0, 1), 1e-15)
	assert.InDelta(t, 2.0, cov.At(1, 1), 1e-15)
	assert.True(t, b.IsFinite())

	b.Chol.Set(1, 1, math.Inf(1))
	assert.False(t, b.IsFinite())
}

func TestConstantTrajectory(t *testing.T) {
	mean := mat.NewVecDense(3, []float64{1, -2, 0.5})
	tr := NewConstant(mean, 4)

	require.Equal(t, 4, tr.Len())
	require.Equal(t, 3, tr.Dim())
	for i := 0; i < tr.Len(); i++ {
		assert.Equal(t, []float64{1, -2, 0.5}, tr.Mean.RawRowView(i))
		assert.Zero(t, mat.Norm(tr.Chol[i], 1))
	}

	mean.SetVec(0, 100)
	assert.Equal(t, 1.0, tr.Mean.At(0, 0), "trajectory must not alias the broadcast mean")
}

func TestTrajectorySetAtClone(t *testing.T) {
	tr := NewTrajectory(2, 2)
	b := NewMVNSqrt(mat.NewVecDense(2, []float64{3, 4}), mat.NewDense(2, 2, []float64{1, 0, 0, 1}))
	tr.Set(1, b)

	got := tr.At(1)
	assert.Equal(t, []float64{3, 4}, got.Mean.RawVector().Data)
	assert.True(t, mat.Equal(got.Chol, b.Chol))

	clone := tr.Clone()
	clone.Mean.Set(1, 0, -1)
	clone.Chol[1].Set(0, 0, -1)
	assert.Equal(t, 3.0, tr.Mean.At(1, 0))
	assert.Equal(t, 1.0, tr.Chol[1].At(0, 0))
}

func TestMeanSquaredDiff(t *testing.T) {
	a := FromMeans(mat.NewDense(2, 2, []float64{0, 0, 0, 0}))
	b := FromMeans(mat.NewDense(2, 2, []float64{1, 1, 1, 3}))

	mse, err := a.MeanSquaredDiff(b)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, mse, 1e-15)

	_, err = a.MeanSquaredDiff(FromMeans(mat.NewDense(3, 2, nil)))
	assert.Error(t, err)
}
