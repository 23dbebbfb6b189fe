package problems

import (
	"math"

	"github.com/san-kum/odefilter/internal/dynamo"
	"github.com/san-kum/odefilter/internal/taylor"
)

// LotkaVolterra implements the predator-prey equations.
// State: [prey, predator]
//
//	dx/dt = a·x - b·x·y
//	dy/dt = -c·y + d·x·y
type LotkaVolterra struct {
	a, b, c, d float64
}

func NewLotkaVolterra() *LotkaVolterra {
	return &LotkaVolterra{a: 1.5, b: 1, c: 3, d: 1}
}

func (lv *LotkaVolterra) Name() string  { return "lotkavolterra" }
func (lv *LotkaVolterra) StateDim() int { return 2 }

func (lv *LotkaVolterra) Derive(_ float64, s dynamo.State) dynamo.State {
	x, y := s[0], s[1]
	return dynamo.State{lv.a*x - lv.b*x*y, -lv.c*y + lv.d*x*y}
}

func (lv *LotkaVolterra) DeriveSeries(_ taylor.Series, s []taylor.Series) []taylor.Series {
	xy := taylor.Mul(s[0], s[1])
	return []taylor.Series{
		taylor.Sub(taylor.Scale(s[0], lv.a), taylor.Scale(xy, lv.b)),
		taylor.Add(taylor.Scale(s[1], -lv.c), taylor.Scale(xy, lv.d)),
	}
}

func (lv *LotkaVolterra) DefaultState() dynamo.State { return dynamo.State{1, 1} }
func (lv *LotkaVolterra) TSpan() (float64, float64)  { return 0, 7 }

// Invariant returns the conserved quantity d·x - c·ln x + b·y - a·ln y.
func (lv *LotkaVolterra) Invariant(s dynamo.State) float64 {
	return lv.d*s[0] - lv.c*math.Log(s[0]) + lv.b*s[1] - lv.a*math.Log(s[1])
}

func (lv *LotkaVolterra) GetParams() map[string]float64 {
	return map[string]float64{"a": lv.a, "b": lv.b, "c": lv.c, "d": lv.d}
}

func (lv *LotkaVolterra) SetParam(name string, value float64) error {
	switch name {
	case "a":
		lv.a = value
	case "b":
		lv.b = value
	case "c":
		lv.c = value
	case "d":
		lv.d = value
	default:
		return unknownParam(lv, name)
	}
	return nil
}
