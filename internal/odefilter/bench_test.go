package odefilter

import (
	"testing"

	"github.com/san-kum/odefilter/internal/problems"
)

func benchmarkSolve(b *testing.B, method Method, parallel bool) {
	lv := problems.NewLotkaVolterra()
	ivp := problems.IVP(lv)
	opts := DefaultOptions()
	opts.Method = method
	opts.Parallel = parallel

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := SolveIVP(ivp, opts); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSolveFilter(b *testing.B) {
	benchmarkSolve(b, Filtering{}, false)
}

func BenchmarkSolveSmoother(b *testing.B) {
	benchmarkSolve(b, Smoothing{}, false)
}

func BenchmarkSolveIterated(b *testing.B) {
	benchmarkSolve(b, IteratedSmoothing{Convergence: FixedIterations{N: 3}}, false)
}

func BenchmarkSolveIteratedParallel(b *testing.B) {
	benchmarkSolve(b, IteratedSmoothing{Convergence: FixedIterations{N: 3}}, true)
}
