package smoother

import "github.com/san-kum/odefilter/internal/gauss"

// IteratedSmooth repeats FilterSmooth, each pass linearised at the previous
// pass's output, starting from init. After every pass crit is asked whether
// to continue; it sees the number of completed passes together with the
// previous and the new trajectory.
func IteratedSmooth(p *Problem, init *gauss.Trajectory, crit Criterion) (*gauss.Trajectory, error) {
	curr, err := FilterSmooth(p, init)
	if err != nil {
		return nil, err
	}

	prev := init
	for i := 1; crit(i, prev, curr); i++ {
		prev = curr
		curr, err = FilterSmooth(p, curr)
		if err != nil {
			return nil, err
		}
	}
	return curr, nil
}

// Fixed runs exactly n passes.
func Fixed(n int) Criterion {
	return func(i int, _, _ *gauss.Trajectory) bool {
		return i < n
	}
}

// Tolerance continues while the mean squared difference between successive
// passes exceeds tol.
func Tolerance(tol float64) Criterion {
	return func(_ int, prev, curr *gauss.Trajectory) bool {
		mse, err := curr.MeanSquaredDiff(prev)
		return err == nil && mse > tol
	}
}
