package problems

import (
	"github.com/san-kum/odefilter/internal/dynamo"
	"github.com/san-kum/odefilter/internal/taylor"
)

// VanDerPol implements the Van der Pol oscillator.
// State: [x, y] where y = dx/dt
// Equations:
//
//	dx/dt = y
//	dy/dt = μ((1 - x²)y - x)
//
// The problem grows stiff as μ increases.
type VanDerPol struct {
	mu float64 // Stiffness constant
}

func NewVanDerPol() *VanDerPol {
	return &VanDerPol{mu: 10}
}

func (v *VanDerPol) Name() string  { return "vanderpol" }
func (v *VanDerPol) StateDim() int { return 2 }

func (v *VanDerPol) Derive(_ float64, s dynamo.State) dynamo.State {
	x, y := s[0], s[1]
	return dynamo.State{y, v.mu * ((1-x*x)*y - x)}
}

func (v *VanDerPol) DeriveSeries(_ taylor.Series, s []taylor.Series) []taylor.Series {
	x, y := s[0], s[1]
	damp := taylor.Mul(taylor.Shift(taylor.Neg(taylor.Square(x)), 1), y)
	return []taylor.Series{y.Clone(), taylor.Scale(taylor.Sub(damp, x), v.mu)}
}

func (v *VanDerPol) DefaultState() dynamo.State { return dynamo.State{2, 0} }
func (v *VanDerPol) TSpan() (float64, float64)  { return 0, 6.3 }

func (v *VanDerPol) GetParams() map[string]float64 {
	return map[string]float64{"mu": v.mu}
}

func (v *VanDerPol) SetParam(name string, value float64) error {
	if name != "mu" {
		return unknownParam(v, name)
	}
	v.mu = value
	return nil
}
