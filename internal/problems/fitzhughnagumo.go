package problems

import (
	"github.com/san-kum/odefilter/internal/dynamo"
	"github.com/san-kum/odefilter/internal/taylor"
)

// FitzHughNagumo is a two-variable reduction of the Hodgkin–Huxley neuron.
// State: [v, w] (membrane potential, recovery variable)
//
//	dv/dt = v - v³/3 - w + I
//	dw/dt = (v + a - b·w) / τ
type FitzHughNagumo struct {
	a, b, tauInv, current float64
}

func NewFitzHughNagumo() *FitzHughNagumo {
	return &FitzHughNagumo{a: 0.7, b: 0.8, tauInv: 1 / 12.5, current: 0.5}
}

func (f *FitzHughNagumo) Name() string  { return "fitzhughnagumo" }
func (f *FitzHughNagumo) StateDim() int { return 2 }

func (f *FitzHughNagumo) Derive(_ float64, s dynamo.State) dynamo.State {
	v, w := s[0], s[1]
	return dynamo.State{
		v - v*v*v/3 - w + f.current,
		f.tauInv * (v + f.a - f.b*w),
	}
}

func (f *FitzHughNagumo) DeriveSeries(_ taylor.Series, s []taylor.Series) []taylor.Series {
	v, w := s[0], s[1]
	dv := taylor.Shift(taylor.Sub(taylor.Sub(v, taylor.Scale(taylor.PowInt(v, 3), 1.0/3)), w), f.current)
	dw := taylor.Scale(taylor.Shift(taylor.Sub(v, taylor.Scale(w, f.b)), f.a), f.tauInv)
	return []taylor.Series{dv, dw}
}

func (f *FitzHughNagumo) DefaultState() dynamo.State { return dynamo.State{1, 1} }
func (f *FitzHughNagumo) TSpan() (float64, float64)  { return 0, 100 }

func (f *FitzHughNagumo) GetParams() map[string]float64 {
	return map[string]float64{"a": f.a, "b": f.b, "tau_inv": f.tauInv, "current": f.current}
}

func (f *FitzHughNagumo) SetParam(name string, value float64) error {
	switch name {
	case "a":
		f.a = value
	case "b":
		f.b = value
	case "tau_inv":
		f.tauInv = value
	case "current":
		f.current = value
	default:
		return unknownParam(f, name)
	}
	return nil
}
