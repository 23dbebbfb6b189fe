package problems

import (
	"github.com/san-kum/odefilter/internal/dynamo"
	"github.com/san-kum/odefilter/internal/taylor"
)

type Rossler struct{ a, b, c float64 }

func NewRossler() *Rossler       { return &Rossler{0.2, 0.2, 5.7} }
func (r *Rossler) Name() string  { return "rossler" }
func (r *Rossler) StateDim() int { return 3 }

// Derive calculates the Rossler attractor derivatives.
func (r *Rossler) Derive(_ float64, s dynamo.State) dynamo.State {
	return dynamo.State{-s[1] - s[2], s[0] + r.a*s[1], r.b + s[2]*(s[0]-r.c)}
}

func (r *Rossler) DeriveSeries(_ taylor.Series, s []taylor.Series) []taylor.Series {
	return []taylor.Series{
		taylor.Neg(taylor.Add(s[1], s[2])),
		taylor.Add(s[0], taylor.Scale(s[1], r.a)),
		taylor.Shift(taylor.Mul(s[2], taylor.Shift(s[0], -r.c)), r.b),
	}
}

func (r *Rossler) DefaultState() dynamo.State { return dynamo.State{1.0, 1.0, 1.0} }
func (r *Rossler) TSpan() (float64, float64)  { return 0, 20 }
func (r *Rossler) GetParams() map[string]float64 {
	return map[string]float64{"a": r.a, "b": r.b, "c": r.c}
}
func (r *Rossler) SetParam(n string, v float64) error {
	switch n {
	case "a":
		r.a = v
	case "b":
		r.b = v
	case "c":
		r.c = v
	default:
		return unknownParam(r, n)
	}
	return nil
}
