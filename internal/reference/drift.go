package reference

import (
	"math"

	"github.com/san-kum/odefilter/internal/dynamo"
)

// InvariantDrift returns the largest relative change of the system's first
// integral along states, measured against its value at states[0]. ok is
// false when sys has no first integral.
func InvariantDrift(sys dynamo.System, states []dynamo.State) (drift float64, ok bool) {
	c, ok := sys.(dynamo.Conserved)
	if !ok || len(states) == 0 {
		return 0, ok
	}

	initial := c.Invariant(states[0])
	scale := math.Abs(initial)
	if scale == 0 {
		scale = 1
	}
	for _, s := range states[1:] {
		drift = math.Max(drift, math.Abs(c.Invariant(s)-initial)/scale)
	}
	return drift, true
}
