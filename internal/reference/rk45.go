package reference

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/odefilter/internal/dynamo"
)

// ErrMaxSteps indicates the adaptive integrator exhausted its step budget.
var ErrMaxSteps = errors.New("reference: maximum number of steps exceeded")

// Dormand-Prince coefficients (RK45)
var (
	a2 = 1.0 / 5.0
	a3 = 3.0 / 10.0
	a4 = 4.0 / 5.0
	a5 = 8.0 / 9.0

	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0
)

// RK45 is an adaptive Dormand–Prince integrator with mixed
// absolute/relative error control.
type RK45 struct {
	RTol     float64
	ATol     float64
	MaxSteps int

	safety   float64
	minScale float64
	maxScale float64
}

func NewRK45() *RK45 {
	return &RK45{
		RTol:     1e-3,
		ATol:     1e-3,
		MaxSteps: 1_000_000,
		safety:   0.9,
		minScale: 0.2,
		maxScale: 10.0,
	}
}

// StepAdaptive takes one step of size dt and returns the new state, the
// proposed next step size and the scaled error norm. A norm above 1 means
// the step should be rejected.
func (r *RK45) StepAdaptive(sys dynamo.System, x dynamo.State, t, dt float64) (dynamo.State, float64, float64) {
	n := len(x)

	k1 := sys.Derive(t, x)

	x2 := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		x2[i] = x[i] + dt*b21*k1[i]
	}
	k2 := sys.Derive(t+a2*dt, x2)

	x3 := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		x3[i] = x[i] + dt*(b31*k1[i]+b32*k2[i])
	}
	k3 := sys.Derive(t+a3*dt, x3)

	x4 := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		x4[i] = x[i] + dt*(b41*k1[i]+b42*k2[i]+b43*k3[i])
	}
	k4 := sys.Derive(t+a4*dt, x4)

	x5 := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		x5[i] = x[i] + dt*(b51*k1[i]+b52*k2[i]+b53*k3[i]+b54*k4[i])
	}
	k5 := sys.Derive(t+a5*dt, x5)

	x6 := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		x6[i] = x[i] + dt*(b61*k1[i]+b62*k2[i]+b63*k3[i]+b64*k4[i]+b65*k5[i])
	}
	k6 := sys.Derive(t+dt, x6)

	xNew := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		xNew[i] = x[i] + dt*(c1*k1[i]+c3*k3[i]+c4*k4[i]+c5*k5[i]+c6*k6[i])
	}

	k7 := sys.Derive(t+dt, xNew)

	// RMS of the embedded error estimate scaled by atol + rtol·|x|
	sum := 0.0
	for i := 0; i < n; i++ {
		errEst := dt * (dc1*k1[i] + dc3*k3[i] + dc4*k4[i] + dc5*k5[i] + dc6*k6[i] + dc7*k7[i])
		scale := r.ATol + r.RTol*math.Max(math.Abs(x[i]), math.Abs(xNew[i]))
		e := errEst / scale
		sum += e * e
	}
	errRatio := math.Sqrt(sum / float64(n))
	if math.IsNaN(errRatio) {
		errRatio = math.Inf(1)
	}

	var dtNew float64
	switch {
	case errRatio > 1:
		dtNew = dt * math.Max(r.minScale, r.safety*math.Pow(errRatio, -0.25))
	case errRatio > 0:
		dtNew = dt * math.Min(r.maxScale, r.safety*math.Pow(errRatio, -0.2))
	default:
		dtNew = dt * r.maxScale
	}

	return xNew, dtNew, errRatio
}

// Solve integrates ivp adaptively and returns the solution at each of
// times, which must be increasing and start at ivp.T0. Steps are shortened
// to land on every requested time.
func (r *RK45) Solve(ctx context.Context, ivp *dynamo.IVP, times []float64) ([]dynamo.State, error) {
	if err := ivp.Validate(); err != nil {
		return nil, err
	}
	if len(times) == 0 || times[0] != ivp.T0 {
		return nil, fmt.Errorf("%w: time grid must start at t0=%g", dynamo.ErrPrecondition, ivp.T0)
	}
	for i := 1; i < len(times); i++ {
		if times[i] <= times[i-1] {
			return nil, fmt.Errorf("%w: time grid not increasing at index %d", dynamo.ErrPrecondition, i)
		}
	}

	out := make([]dynamo.State, len(times))
	out[0] = ivp.Y0.Clone()

	x := ivp.Y0.Clone()
	t := ivp.T0
	dt := r.initialStep(ivp.System, t, x, times[len(times)-1]-t)
	steps := 0

	for i := 1; i < len(times); i++ {
		target := times[i]
		for t < target {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if steps >= r.MaxSteps {
				return nil, &dynamo.SolveError{Step: steps, Time: t, Wrapped: ErrMaxSteps}
			}
			steps++

			h := math.Min(dt, target-t)
			xNew, dtNew, errRatio := r.StepAdaptive(ivp.System, x, t, h)
			if errRatio > 1 {
				dt = dtNew
				if dt < 1e-14*math.Max(1, math.Abs(t)) {
					return nil, &dynamo.SolveError{Step: steps, Time: t, Wrapped: dynamo.ErrInvalidState}
				}
				continue
			}

			x = xNew
			if h == target-t {
				t = target
			} else {
				t += h
			}
			if h < dt {
				// clipped by the grid: keep the longer step
				dt = math.Max(dtNew, dt)
			} else {
				dt = dtNew
			}
			if !x.IsValid() {
				return nil, &dynamo.SolveError{Step: steps, Time: t, Wrapped: dynamo.ErrInvalidState}
			}
		}
		out[i] = x.Clone()
	}
	return out, nil
}

// initialStep follows the usual heuristic h = 0.01·‖y‖/‖f(y)‖, bounded by
// the span.
func (r *RK45) initialStep(sys dynamo.System, t float64, x dynamo.State, span float64) float64 {
	d0 := x.Norm()
	d1 := sys.Derive(t, x).Norm()
	h := 1e-6
	if d0 > 1e-5 && d1 > 1e-5 {
		h = 0.01 * d0 / d1
	}
	return math.Min(h, span)
}
