package reference

import (
	"fmt"

	"github.com/san-kum/odefilter/internal/dynamo"
)

type RK4 struct {
	k1, k2, k3, k4 dynamo.State
	scratch        dynamo.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) ensureScratch(n int) {
	if len(r.k1) != n {
		r.k1 = make(dynamo.State, n)
		r.k2 = make(dynamo.State, n)
		r.k3 = make(dynamo.State, n)
		r.k4 = make(dynamo.State, n)
		r.scratch = make(dynamo.State, n)
	}
}

func (r *RK4) Step(sys dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	n := len(x)
	r.ensureScratch(n)

	copy(r.k1, sys.Derive(t, x))

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*r.k1[i]
	}
	copy(r.k2, sys.Derive(t+dt*0.5, r.scratch))

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*r.k2[i]
	}
	copy(r.k3, sys.Derive(t+dt*0.5, r.scratch))

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*r.k3[i]
	}
	copy(r.k4, sys.Derive(t+dt, r.scratch))

	result := make(dynamo.State, n)
	dt6 := dt / 6.0
	for i := 0; i < n; i++ {
		result[i] = x[i] + dt6*(r.k1[i]+2*r.k2[i]+2*r.k3[i]+r.k4[i])
	}

	return result
}

// Integrate steps from y0 at times[0] through every grid point, taking
// substeps fixed-size steps per grid interval.
func (r *RK4) Integrate(sys dynamo.System, y0 dynamo.State, times []float64, substeps int) ([]dynamo.State, error) {
	if len(times) == 0 {
		return nil, fmt.Errorf("%w: empty time grid", dynamo.ErrPrecondition)
	}
	if substeps < 1 {
		substeps = 1
	}

	out := make([]dynamo.State, len(times))
	out[0] = y0.Clone()
	x := y0.Clone()
	for i := 1; i < len(times); i++ {
		h := (times[i] - times[i-1]) / float64(substeps)
		t := times[i-1]
		for s := 0; s < substeps; s++ {
			x = r.Step(sys, x, t, h)
			t += h
		}
		if !x.IsValid() {
			return nil, &dynamo.SolveError{Step: i, Time: times[i], Wrapped: dynamo.ErrInvalidState}
		}
		out[i] = x.Clone()
	}
	return out, nil
}
