package dynamo

import (
	"fmt"
	"math"

	"github.com/san-kum/odefilter/internal/taylor"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

// System is an ODE vector field dy/dt = f(t, y).
// Time-invariant systems ignore t.
type System interface {
	Derive(t float64, y State) State
}

// SeriesSystem is a System that can also be evaluated on truncated Taylor
// series. DeriveSeries must compute the same function as Derive.
type SeriesSystem interface {
	System
	DeriveSeries(t taylor.Series, y []taylor.Series) []taylor.Series
}

// Conserved is implemented by systems with a first integral, a quantity
// that stays constant along exact solutions.
type Conserved interface {
	Invariant(y State) float64
}

// Func adapts a plain function to the System interface.
type Func func(t float64, y State) State

func (f Func) Derive(t float64, y State) State {
	return f(t, y)
}

// SeriesFunc pairs a plain vector field with its Taylor series counterpart.
type SeriesFunc struct {
	F      Func
	Series taylor.Field
}

func (f SeriesFunc) Derive(t float64, y State) State {
	return f.F(t, y)
}

func (f SeriesFunc) DeriveSeries(t taylor.Series, y []taylor.Series) []taylor.Series {
	return f.Series(t, y)
}

// SeriesField returns the Taylor series evaluation of sys, or nil when sys
// does not implement SeriesSystem.
func SeriesField(sys System) taylor.Field {
	ss, ok := sys.(SeriesSystem)
	if !ok {
		return nil
	}
	return ss.DeriveSeries
}

// IVP is an initial value problem y' = f(t, y), y(T0) = Y0 on [T0, TMax].
type IVP struct {
	System System
	T0     float64
	TMax   float64
	Y0     State
}

func (p *IVP) Dim() int {
	return len(p.Y0)
}

func (p *IVP) Validate() error {
	if p.System == nil {
		return fmt.Errorf("%w: ivp has no vector field", ErrPrecondition)
	}
	if len(p.Y0) == 0 {
		return fmt.Errorf("%w: ivp has empty initial value", ErrDimensionMismatch)
	}
	if !p.Y0.IsValid() {
		return fmt.Errorf("ivp initial value: %w", ErrInvalidState)
	}
	if p.TMax <= p.T0 {
		return fmt.Errorf("%w: tmax (%g) must exceed t0 (%g)", ErrParameterBounds, p.TMax, p.T0)
	}
	return nil
}

// Grid returns the fixed-step time grid starting at t0 and advancing by dt
// until reaching or exceeding tmax. It has ceil((tmax-t0)/dt)+1 points.
func Grid(t0, tmax, dt float64) ([]float64, error) {
	if dt <= 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		return nil, fmt.Errorf("%w: dt must be positive, got %g", ErrParameterBounds, dt)
	}
	if tmax <= t0 {
		return nil, fmt.Errorf("%w: tmax (%g) must exceed t0 (%g)", ErrParameterBounds, tmax, t0)
	}

	ratio := (tmax - t0) / dt
	// guard against 10/0.01 landing a hair above an integer
	steps := int(math.Ceil(ratio - 1e-9*math.Max(1, ratio)))
	if steps < 1 {
		steps = 1
	}

	times := make([]float64, steps+1)
	for i := range times {
		times[i] = t0 + float64(i)*dt
	}
	return times, nil
}
