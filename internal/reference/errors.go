package reference

import (
	"fmt"
	"math"

	"github.com/san-kum/odefilter/internal/dynamo"
	"gonum.org/v1/gonum/floats"
)

// Deviation summarises the pointwise difference of two solutions on the
// same grid.
type Deviation struct {
	Max   float64 // largest absolute componentwise difference
	RMS   float64 // root mean square over all components and points
	Final float64 // Euclidean distance at the last grid point
}

// Compare measures how far got deviates from want.
func Compare(got, want []dynamo.State) (Deviation, error) {
	if len(got) != len(want) || len(got) == 0 {
		return Deviation{}, fmt.Errorf("%w: %d vs %d grid points", dynamo.ErrDimensionMismatch, len(got), len(want))
	}

	var dev Deviation
	sum, count := 0.0, 0
	for i := range got {
		if len(got[i]) != len(want[i]) {
			return Deviation{}, fmt.Errorf("%w: point %d has %d vs %d components", dynamo.ErrDimensionMismatch, i, len(got[i]), len(want[i]))
		}
		dev.Max = math.Max(dev.Max, floats.Distance(got[i], want[i], math.Inf(1)))
		d := floats.Distance(got[i], want[i], 2)
		sum += d * d
		count += len(got[i])
	}
	dev.RMS = math.Sqrt(sum / float64(count))
	dev.Final = floats.Distance(got[len(got)-1], want[len(want)-1], 2)
	return dev, nil
}
