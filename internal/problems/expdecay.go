package problems

import (
	"math"

	"github.com/san-kum/odefilter/internal/dynamo"
	"github.com/san-kum/odefilter/internal/taylor"
)

// ExpDecay is y' = -k·y, applied componentwise.
type ExpDecay struct {
	k float64
}

func NewExpDecay() *ExpDecay      { return &ExpDecay{k: 1} }
func (e *ExpDecay) Name() string  { return "expdecay" }
func (e *ExpDecay) StateDim() int { return 1 }

func (e *ExpDecay) Derive(_ float64, y dynamo.State) dynamo.State {
	dy := make(dynamo.State, len(y))
	for i, v := range y {
		dy[i] = -e.k * v
	}
	return dy
}

func (e *ExpDecay) DeriveSeries(_ taylor.Series, y []taylor.Series) []taylor.Series {
	out := make([]taylor.Series, len(y))
	for i, s := range y {
		out[i] = taylor.Scale(s, -e.k)
	}
	return out
}

func (e *ExpDecay) DefaultState() dynamo.State { return dynamo.State{1} }
func (e *ExpDecay) TSpan() (float64, float64)  { return 0, 1 }

func (e *ExpDecay) Exact(t, t0, y0 float64) float64 {
	return y0 * math.Exp(-e.k*(t-t0))
}

func (e *ExpDecay) GetParams() map[string]float64 { return map[string]float64{"k": e.k} }

func (e *ExpDecay) SetParam(name string, value float64) error {
	if name != "k" {
		return unknownParam(e, name)
	}
	e.k = value
	return nil
}
