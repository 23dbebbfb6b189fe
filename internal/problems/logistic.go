package problems

import (
	"math"

	"github.com/san-kum/odefilter/internal/dynamo"
	"github.com/san-kum/odefilter/internal/taylor"
)

// Logistic is the logistic growth equation y' = r·y·(1 - y).
type Logistic struct {
	r      float64
	y0     float64
	t0, t1 float64
}

func NewLogistic() *Logistic {
	return &Logistic{r: 1, y0: 0.01, t0: 0, t1: 10}
}

func (l *Logistic) Name() string  { return "logistic" }
func (l *Logistic) StateDim() int { return 1 }

func (l *Logistic) Derive(_ float64, y dynamo.State) dynamo.State {
	return dynamo.State{l.r * y[0] * (1 - y[0])}
}

func (l *Logistic) DeriveSeries(_ taylor.Series, y []taylor.Series) []taylor.Series {
	return []taylor.Series{taylor.Scale(taylor.Mul(y[0], taylor.Shift(taylor.Neg(y[0]), 1)), l.r)}
}

func (l *Logistic) DefaultState() dynamo.State { return dynamo.State{l.y0} }
func (l *Logistic) TSpan() (float64, float64)  { return l.t0, l.t1 }

// Exact returns the closed-form solution from y(t0) = y0.
func (l *Logistic) Exact(t, t0, y0 float64) float64 {
	return 1 / (1 + (1/y0-1)*math.Exp(-l.r*(t-t0)))
}

func (l *Logistic) GetParams() map[string]float64 {
	return map[string]float64{"r": l.r}
}

func (l *Logistic) SetParam(name string, value float64) error {
	if name != "r" {
		return unknownParam(l, name)
	}
	l.r = value
	return nil
}
