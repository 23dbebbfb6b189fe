package problems

import (
	"math"

	"github.com/san-kum/odefilter/internal/dynamo"
	"github.com/san-kum/odefilter/internal/taylor"
)

// Duffing is the forced nonlinear oscillator
// x'' + delta x' + alpha x + beta x^3 = gamma cos(omega t), with the forcing
// phase carried as a third state so the field stays autonomous.
type Duffing struct {
	Alpha, Beta, Delta, Gamma, Omega float64
}

func NewDuffing() *Duffing {
	return &Duffing{-1.0, 1.0, 0.3, 0.5, 1.2}
}

func (d *Duffing) Name() string  { return "duffing" }
func (d *Duffing) StateDim() int { return 3 }

func (d *Duffing) Derive(_ float64, s dynamo.State) dynamo.State {
	x, v, phi := s[0], s[1], s[2]
	return dynamo.State{v, -d.Delta*v - d.Alpha*x - d.Beta*x*x*x + d.Gamma*math.Cos(phi), d.Omega}
}

func (d *Duffing) DeriveSeries(_ taylor.Series, s []taylor.Series) []taylor.Series {
	x, v, phi := s[0], s[1], s[2]
	accel := taylor.Add(
		taylor.Add(taylor.Scale(v, -d.Delta), taylor.Scale(x, -d.Alpha)),
		taylor.Add(taylor.Scale(taylor.PowInt(x, 3), -d.Beta), taylor.Scale(taylor.Cos(phi), d.Gamma)),
	)
	return []taylor.Series{v.Clone(), accel, taylor.Const(d.Omega, len(phi))}
}

func (d *Duffing) DefaultState() dynamo.State { return dynamo.State{1.0, 0.0, 0.0} }
func (d *Duffing) TSpan() (float64, float64)  { return 0, 20 }

func (d *Duffing) GetParams() map[string]float64 {
	return map[string]float64{"alpha": d.Alpha, "beta": d.Beta, "delta": d.Delta, "gamma": d.Gamma, "omega": d.Omega}
}

func (d *Duffing) SetParam(n string, v float64) error {
	switch n {
	case "alpha":
		d.Alpha = v
	case "beta":
		d.Beta = v
	case "delta":
		d.Delta = v
	case "gamma":
		d.Gamma = v
	case "omega":
		d.Omega = v
	default:
		return unknownParam(d, n)
	}
	return nil
}
